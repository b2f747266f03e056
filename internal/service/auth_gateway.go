package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/concierge-portal/internal/auth"
	"github.com/spec-kit/concierge-portal/internal/client"
	"github.com/spec-kit/concierge-portal/internal/domain"
	"github.com/spec-kit/concierge-portal/internal/events"
	"github.com/spec-kit/concierge-portal/internal/observability"
	"github.com/spec-kit/concierge-portal/internal/querycache"
	apperrors "github.com/spec-kit/concierge-portal/pkg/util"
)

// Backend endpoints used by the gateway.
const (
	loginPath      = "/api/auth/login"
	registerPath   = "/api/auth/register"
	logoutPath     = "/api/auth/logout"
	switchRolePath = "/api/auth/switch-role"
)

// IdentityKey is the query cache key of the current-user record.
var IdentityKey = []string{"api", "auth", "user"}

// AuthGateway logs one browser profile in and out of the backend and keeps its
// token store and identity cache entry in step.
type AuthGateway struct {
	client  *client.Client
	session *auth.Session
	cache   *querycache.Cache
	events  events.Dispatcher
	scope   string
	logger  *zap.Logger
}

// GatewayDependencies encapsulates what one gateway needs.
type GatewayDependencies struct {
	Client  *client.Client
	Session *auth.Session
	Cache   *querycache.Cache
	Events  events.Dispatcher
	// Scope is the browser profile namespace used for cache entries and events.
	Scope  string
	Logger *zap.Logger
}

// NewAuthGateway builds the gateway. The client is rebound to the session's token store.
func NewAuthGateway(deps GatewayDependencies) *AuthGateway {
	return &AuthGateway{
		client:  deps.Client.WithTokens(deps.Session.Tokens()),
		session: deps.Session,
		cache:   deps.Cache,
		events:  deps.Events,
		scope:   deps.Scope,
		logger:  observability.OrNop(deps.Logger),
	}
}

// Session exposes the session evaluator.
func (g *AuthGateway) Session() *auth.Session {
	return g.session
}

// Login posts credentials and stores the returned token.
func (g *AuthGateway) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	payload := domain.Credentials{Email: email, Password: password}
	return g.authenticate(ctx, loginPath, payload, events.EventSessionStarted)
}

// Register creates an account and stores the returned token. Field
// validation is left to the backend.
func (g *AuthGateway) Register(ctx context.Context, fields domain.RegisterFields) (*domain.AuthResult, error) {
	return g.authenticate(ctx, registerPath, fields, events.EventSessionStarted)
}

// SwitchRole asks the backend to reissue the session token for role. It is a
// debugging aid for exercising every dashboard from one account.
func (g *AuthGateway) SwitchRole(ctx context.Context, role domain.Role) (*domain.AuthResult, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"userType": role})
	}
	payload := struct {
		UserType domain.Role `json:"userType"`
	}{UserType: role}
	return g.authenticate(ctx, switchRolePath, payload, events.EventRoleSwitched)
}

func (g *AuthGateway) authenticate(ctx context.Context, path string, payload any, eventType events.EventType) (*domain.AuthResult, error) {
	var result domain.AuthResult
	err := g.cache.Mutate(ctx, func(ctx context.Context) error {
		return g.client.DoJSON(ctx, http.MethodPost, path, payload, &result)
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Token) == "" {
		return nil, apperrors.NewInvalidResponse("backend returned no token", nil)
	}

	if err := g.session.Tokens().Set(ctx, result.Token); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	g.cache.Invalidate(g.scope, IdentityKey)
	g.publish(ctx, events.NewEvent(eventType, g.scope, result.UserID, result.UserType))
	return &result, nil
}

// Logout tells the backend the session is over, then clears the local token
// whatever the backend answered. It never fails.
func (g *AuthGateway) Logout(ctx context.Context) {
	if err := g.client.DoJSON(ctx, http.MethodPost, logoutPath, nil, nil); err != nil {
		g.logger.Warn("remote logout failed; clearing local session anyway", zap.String("scope", g.scope), zap.Error(err))
	}

	local := context.WithoutCancel(ctx)
	g.session.Tokens().Clear(local)
	g.cache.Invalidate(g.scope, IdentityKey)
	g.publish(local, events.NewEvent(events.EventSessionEnded, g.scope, "", ""))
}

// CurrentUser returns the identity of the active session, or nil when nobody
// is logged in. No request is made unless the session is active.
func (g *AuthGateway) CurrentUser(ctx context.Context) (*domain.User, error) {
	data, err := g.cache.Fetch(ctx, querycache.Query{
		Scope:   g.scope,
		Key:     IdentityKey,
		Fn:      g.client.QueryFunc(client.QueryOptions{Key: IdentityKey, On401: client.ReturnNull}),
		Enabled: g.session.IsActive(ctx),
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var user *domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, apperrors.NewInvalidResponse("decode current user", err)
	}
	return user, nil
}

func (g *AuthGateway) publish(ctx context.Context, event events.Event) {
	if g.events == nil {
		return
	}
	if err := g.events.Publish(ctx, event); err != nil {
		g.logger.Warn("session event handler failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

// LoginFailureMessage maps a login error to the text shown on the form.
func LoginFailureMessage(err error) string {
	if err == nil {
		return ""
	}
	if strings.Contains(err.Error(), "Invalid credentials") {
		return "Invalid email or password"
	}
	return "Login failed. Please try again."
}

// RegisterFailureMessage maps a registration error to the text shown on the form.
func RegisterFailureMessage(err error) string {
	if err == nil {
		return ""
	}
	if strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return "An account with this email already exists"
	}
	return "Registration failed. Please try again."
}
