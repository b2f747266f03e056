package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/concierge-portal/internal/api/dto"
	"github.com/spec-kit/concierge-portal/internal/auth"
)

// PagesHandler renders the public and protected portal pages.
type PagesHandler struct{}

// NewPagesHandler constructs handler.
func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

// Public renders a page that anyone may view.
func (h *PagesHandler) Public(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gw, err := gatewayOrError(c)
		if err != nil {
			return err
		}
		return c.JSON(dto.PageResponse{
			Page:          name,
			Authenticated: gw.Session().IsActive(c.UserContext()),
		})
	}
}

// Protected renders a dashboard. Visitors without an active session go to /auth.
func (h *PagesHandler) Protected(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gw, err := gatewayOrError(c)
		if err != nil {
			return err
		}
		ctx := c.UserContext()
		if !gw.Session().IsActive(ctx) {
			return c.Redirect(auth.PathAuth, fiber.StatusFound)
		}
		user, err := gw.CurrentUser(ctx)
		if err != nil {
			return err
		}
		return c.JSON(dto.PageResponse{Page: name, Authenticated: true, User: user})
	}
}

// Me handles GET /me. The user is null when nobody is logged in.
func (h *PagesHandler) Me(c *fiber.Ctx) error {
	gw, err := gatewayOrError(c)
	if err != nil {
		return err
	}
	user, err := gw.CurrentUser(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}
