package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/concierge-portal/internal/api/http/handlers"
	"github.com/spec-kit/concierge-portal/internal/auth"
	"github.com/spec-kit/concierge-portal/internal/auth/authtest"
	"github.com/spec-kit/concierge-portal/internal/client"
	"github.com/spec-kit/concierge-portal/internal/config"
	"github.com/spec-kit/concierge-portal/internal/domain"
	"github.com/spec-kit/concierge-portal/internal/events"
	"github.com/spec-kit/concierge-portal/internal/observability"
	"github.com/spec-kit/concierge-portal/internal/persistence"
	"github.com/spec-kit/concierge-portal/internal/querycache"
	"github.com/spec-kit/concierge-portal/internal/service"
)

const cookieName = "portal_visitor"

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := stdhttp.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		var creds domain.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		roles := map[string]domain.Role{
			"admin@example.com":    domain.RoleAdmin,
			"investor@example.com": domain.RoleInvestor,
		}
		role, ok := roles[creds.Email]
		if !ok || creds.Password != "secret" {
			stdhttp.Error(w, "Invalid credentials", stdhttp.StatusUnauthorized)
			return
		}
		writeAuthResult(w, "u-"+string(role), role)
	})
	mux.HandleFunc("/api/auth/register", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		stdhttp.Error(w, "User already exists", stdhttp.StatusConflict)
	})
	mux.HandleFunc("/api/auth/logout", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusNoContent)
	})
	mux.HandleFunc("/api/auth/switch-role", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		var body struct {
			UserType domain.Role `json:"userType"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeAuthResult(w, "u-switched", body.UserType)
	})
	mux.HandleFunc("/api/auth/user", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		claims, err := auth.DecodeClaims(token)
		if err != nil {
			stdhttp.Error(w, "Unauthorized", stdhttp.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": claims.SubjectID(), "email": "someone@example.com"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeAuthResult(w stdhttp.ResponseWriter, subject string, role domain.Role) {
	_ = json.NewEncoder(w).Encode(domain.AuthResult{
		Token:    authtest.Valid(subject, role),
		UserID:   subject,
		UserType: role,
	})
}

type pingFailure struct {
	*persistence.Memory
}

func (pingFailure) Ping(context.Context) error {
	return errors.New("storage down")
}

func newTestApp(t *testing.T, backendURL string, storage persistence.Backend, devTools bool) *fiber.App {
	t.Helper()
	c, err := client.New(backendURL, nil, client.Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	cache, err := querycache.New(querycache.Config{Policy: querycache.DefaultPolicy()})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	t.Cleanup(cache.Close)

	metrics := observability.NewMetrics()
	portal := service.NewPortal(service.PortalDependencies{
		Storage: storage,
		Client:  c,
		Cache:   cache,
		Events:  events.NewInMemoryDispatcher(),
	})
	portalCfg := config.PortalConfig{CookieName: cookieName, DevTools: devTools}

	app := fiber.New()
	RegisterMiddlewares(app, nil, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Portal:       portal,
		PortalConfig: portalCfg,
		Health:       handlers.NewHealthHandler("concierge-portal", "test", config.StorageMemory, storage, metrics),
		Auth:         handlers.NewAuthHandler(devTools),
		Pages:        handlers.NewPagesHandler(),
	})
	return app
}

// browser replays the visitor cookie between requests like a real browser.
type browser struct {
	t      *testing.T
	app    *fiber.App
	cookie string
}

func (b *browser) do(method, path string, body any) (*stdhttp.Response, map[string]any) {
	b.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			b.t.Fatalf("marshal: %v", err)
		}
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.cookie != "" {
		req.AddCookie(&stdhttp.Cookie{Name: cookieName, Value: b.cookie})
	}
	resp, err := b.app.Test(req, -1)
	if err != nil {
		b.t.Fatalf("%s %s: %v", method, path, err)
	}
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			b.cookie = c.Value
		}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func TestProtectedPageRedirectsAnonymousVisitor(t *testing.T) {
	backend := newBackend(t)
	b := &browser{t: t, app: newTestApp(t, backend.URL, persistence.NewMemory(), false)}

	for _, page := range Pages {
		if !page.Protected {
			continue
		}
		resp, _ := b.do(stdhttp.MethodGet, page.Path, nil)
		if resp.StatusCode != fiber.StatusFound {
			t.Fatalf("%s: expected 302, got %d", page.Path, resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != auth.PathAuth {
			t.Fatalf("%s: expected redirect to /auth, got %q", page.Path, loc)
		}
	}
	if b.cookie == "" {
		t.Fatal("expected a visitor cookie")
	}
}

func TestLoginFlowRoutesToDashboard(t *testing.T) {
	backend := newBackend(t)
	b := &browser{t: t, app: newTestApp(t, backend.URL, persistence.NewMemory(), false)}

	resp, body := b.do(stdhttp.MethodPost, "/auth/login", map[string]string{"email": "admin@example.com", "password": "secret"})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login: expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["redirect"] != auth.PathAdminDashboard {
		t.Fatalf("expected admin dashboard redirect, got %v", body["redirect"])
	}
	if _, leaked := body["token"]; leaked {
		t.Fatal("token must not be sent to the browser")
	}

	resp, _ = b.do(stdhttp.MethodGet, "/auth", nil)
	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != auth.PathAdminDashboard {
		t.Fatalf("expected /auth to bounce to dashboard, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body = b.do(stdhttp.MethodGet, auth.PathAdminDashboard, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", resp.StatusCode)
	}
	user, ok := body["user"].(map[string]any)
	if !ok || user["id"] != "u-admin" {
		t.Fatalf("expected dashboard identity, got %v", body["user"])
	}

	_, body = b.do(stdhttp.MethodPost, "/auth/logout", nil)
	if body["redirect"] != auth.PathHome {
		t.Fatalf("expected redirect home after logout, got %v", body["redirect"])
	}
	_, body = b.do(stdhttp.MethodGet, "/me", nil)
	if body["user"] != nil {
		t.Fatalf("expected null identity after logout, got %v", body["user"])
	}
	resp, _ = b.do(stdhttp.MethodGet, auth.PathAdminDashboard, nil)
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("expected redirect after logout, got %d", resp.StatusCode)
	}
}

func TestInvestorLandsOnHome(t *testing.T) {
	backend := newBackend(t)
	b := &browser{t: t, app: newTestApp(t, backend.URL, persistence.NewMemory(), false)}

	_, body := b.do(stdhttp.MethodPost, "/auth/login", map[string]string{"email": "investor@example.com", "password": "secret"})
	if body["redirect"] != auth.PathHome {
		t.Fatalf("expected home redirect, got %v", body["redirect"])
	}
	_, body = b.do(stdhttp.MethodGet, "/", nil)
	if body["authenticated"] != true {
		t.Fatalf("expected authenticated home page, got %v", body)
	}
}

func TestLoginFailureMessages(t *testing.T) {
	backend := newBackend(t)
	b := &browser{t: t, app: newTestApp(t, backend.URL, persistence.NewMemory(), false)}

	cases := []struct {
		name    string
		path    string
		body    map[string]string
		status  int
		message string
	}{
		{"bad password", "/auth/login", map[string]string{"email": "admin@example.com", "password": "nope"}, fiber.StatusUnauthorized, "Invalid email or password"},
		{"missing fields", "/auth/login", map[string]string{"email": ""}, fiber.StatusBadRequest, "Email and password are required"},
		{"duplicate account", "/auth/register", map[string]string{"email": "admin@example.com", "password": "secret"}, fiber.StatusConflict, "An account with this email already exists"},
		{"register missing fields", "/auth/register", map[string]string{"email": "x@example.com"}, fiber.StatusBadRequest, "Email and password are required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := b.do(stdhttp.MethodPost, tc.path, tc.body)
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
			errBody, _ := body["error"].(map[string]any)
			if errBody["message"] != tc.message {
				t.Fatalf("expected %q, got %v", tc.message, errBody["message"])
			}
		})
	}
}

func TestSwitchRoleRequiresDevTools(t *testing.T) {
	backend := newBackend(t)

	off := &browser{t: t, app: newTestApp(t, backend.URL, persistence.NewMemory(), false)}
	off.do(stdhttp.MethodPost, "/auth/login", map[string]string{"email": "admin@example.com", "password": "secret"})
	resp, _ := off.do(stdhttp.MethodPost, "/auth/switch-role", map[string]string{"userType": "personnel"})
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 without dev tools, got %d", resp.StatusCode)
	}

	on := &browser{t: t, app: newTestApp(t, backend.URL, persistence.NewMemory(), true)}
	resp, _ = on.do(stdhttp.MethodPost, "/auth/switch-role", map[string]string{"userType": "personnel"})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", resp.StatusCode)
	}
	on.do(stdhttp.MethodPost, "/auth/login", map[string]string{"email": "admin@example.com", "password": "secret"})
	_, body := on.do(stdhttp.MethodPost, "/auth/switch-role", map[string]string{"userType": "personnel"})
	if body["redirect"] != auth.PathPersonnelDashboard {
		t.Fatalf("expected personnel dashboard, got %v", body)
	}
	resp, _ = on.do(stdhttp.MethodGet, "/auth", nil)
	if resp.Header.Get("Location") != auth.PathPersonnelDashboard {
		t.Fatalf("expected switched role to drive routing, got %q", resp.Header.Get("Location"))
	}
}

func TestMalformedVisitorCookieIsReplaced(t *testing.T) {
	backend := newBackend(t)
	b := &browser{t: t, app: newTestApp(t, backend.URL, persistence.NewMemory(), false), cookie: "not-a-uuid"}

	b.do(stdhttp.MethodGet, "/", nil)
	if b.cookie == "not-a-uuid" {
		t.Fatal("expected a fresh visitor id")
	}
}

func TestHealthEndpoints(t *testing.T) {
	backend := newBackend(t)

	app := newTestApp(t, backend.URL, persistence.NewMemory(), false)
	b := &browser{t: t, app: app}
	resp, body := b.do(stdhttp.MethodGet, "/health/live", nil)
	if resp.StatusCode != fiber.StatusOK || body["status"] != "alive" {
		t.Fatalf("live: %d %v", resp.StatusCode, body)
	}
	resp, body = b.do(stdhttp.MethodGet, "/health/ready", nil)
	if resp.StatusCode != fiber.StatusOK || body["status"] != "ready" {
		t.Fatalf("ready: %d %v", resp.StatusCode, body)
	}
	if b.cookie != "" {
		t.Fatal("health probes must not issue visitor cookies")
	}

	down := &browser{t: t, app: newTestApp(t, backend.URL, pingFailure{persistence.NewMemory()}, false)}
	resp, _ = down.do(stdhttp.MethodGet, "/health/ready", nil)
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503 when storage is down, got %d", resp.StatusCode)
	}
}

func TestUnknownRouteRendersDomainError(t *testing.T) {
	backend := newBackend(t)
	b := &browser{t: t, app: newTestApp(t, backend.URL, persistence.NewMemory(), false)}

	resp, body := b.do(stdhttp.MethodGet, "/nowhere", nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	errBody, _ := body["error"].(map[string]any)
	if errBody["code"] != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %v", body)
	}
}
