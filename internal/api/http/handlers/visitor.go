package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/concierge-portal/internal/config"
	"github.com/spec-kit/concierge-portal/internal/service"
	apperrors "github.com/spec-kit/concierge-portal/pkg/util"
)

const (
	gatewayContextKey = "portal_gateway"
	visitorCookieTTL  = 365 * 24 * time.Hour
)

// VisitorMiddleware identifies the browser profile through a cookie, issuing a
// fresh id when it is missing or malformed, and attaches its gateway.
func VisitorMiddleware(portal *service.Portal, cfg config.PortalConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		visitorID := c.Cookies(cfg.CookieName)
		if _, err := uuid.Parse(visitorID); err != nil {
			visitorID = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     cfg.CookieName,
				Value:    visitorID,
				Path:     "/",
				Expires:  time.Now().Add(visitorCookieTTL),
				HTTPOnly: true,
				Secure:   cfg.CookieSecure,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(gatewayContextKey, portal.Gateway(visitorID))
		return c.Next()
	}
}

// GatewayFromContext returns the gateway attached by VisitorMiddleware.
func GatewayFromContext(c *fiber.Ctx) (*service.AuthGateway, bool) {
	gw, ok := c.Locals(gatewayContextKey).(*service.AuthGateway)
	return gw, ok && gw != nil
}

func gatewayOrError(c *fiber.Ctx) (*service.AuthGateway, error) {
	gw, ok := GatewayFromContext(c)
	if !ok {
		return nil, apperrors.NewInternalError(errors.New("visitor gateway missing from context"))
	}
	return gw, nil
}
