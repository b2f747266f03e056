package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/concierge-portal/internal/api/dto"
	"github.com/spec-kit/concierge-portal/internal/auth"
	"github.com/spec-kit/concierge-portal/internal/domain"
	"github.com/spec-kit/concierge-portal/internal/service"
	apperrors "github.com/spec-kit/concierge-portal/pkg/util"
)

// AuthHandler serves the /auth page and its form actions.
type AuthHandler struct {
	devTools bool
}

// NewAuthHandler constructs handler. devTools enables role switching.
func NewAuthHandler(devTools bool) *AuthHandler {
	return &AuthHandler{devTools: devTools}
}

// Entry handles GET /auth. Visitors with an active session are sent to their dashboard.
func (h *AuthHandler) Entry(c *fiber.Ctx) error {
	gw, err := gatewayOrError(c)
	if err != nil {
		return err
	}
	if claims, ok := gw.Session().Claims(c.UserContext()); ok {
		return c.Redirect(auth.DestinationFor(claims.UserType), fiber.StatusFound)
	}
	return c.JSON(dto.PageResponse{Page: "auth"})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	gw, err := gatewayOrError(c)
	if err != nil {
		return err
	}
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("Email and password are required", nil)
	}

	result, err := gw.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return formError(err, service.LoginFailureMessage(err))
	}
	return c.JSON(dto.NewAuthResponse(result, auth.DestinationFor(result.UserType)))
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	gw, err := gatewayOrError(c)
	if err != nil {
		return err
	}
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("Email and password are required", nil)
	}

	result, err := gw.Register(c.UserContext(), domain.RegisterFields{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return formError(err, service.RegisterFailureMessage(err))
	}
	return c.Status(http.StatusCreated).JSON(dto.NewAuthResponse(result, auth.DestinationFor(result.UserType)))
}

// Logout handles POST /auth/logout. It always succeeds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	gw, err := gatewayOrError(c)
	if err != nil {
		return err
	}
	gw.Logout(c.UserContext())
	return c.JSON(fiber.Map{"redirect": auth.PathHome})
}

// SwitchRole handles POST /auth/switch-role when dev tools are enabled.
func (h *AuthHandler) SwitchRole(c *fiber.Ctx) error {
	if !h.devTools {
		return apperrors.NewNotFound("route")
	}
	gw, err := gatewayOrError(c)
	if err != nil {
		return err
	}
	if !gw.Session().IsActive(c.UserContext()) {
		return apperrors.NewUnauthorized("login required")
	}
	var req dto.SwitchRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := gw.SwitchRole(c.UserContext(), req.UserType)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(result, auth.DestinationFor(result.UserType)))
}

// formError keeps the status of err but replaces its message with the form text.
func formError(err error, message string) error {
	domainErr := apperrors.ToDomainError(err)
	return apperrors.NewDomainError(domainErr.Code, message, domainErr.HTTPStatus, nil)
}
