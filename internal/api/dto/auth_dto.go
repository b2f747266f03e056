package dto

import "github.com/spec-kit/concierge-portal/internal/domain"

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// RegisterRequest payload for POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	FirstName string `json:"firstName,omitempty" form:"firstName"`
	LastName  string `json:"lastName,omitempty" form:"lastName"`
}

// SwitchRoleRequest payload for POST /auth/switch-role.
type SwitchRoleRequest struct {
	UserType domain.Role `json:"userType" form:"userType"`
}

// AuthResponse tells the browser where to go after a successful login.
// The bearer token itself never leaves the server.
type AuthResponse struct {
	Redirect            string                     `json:"redirect"`
	UserID              string                     `json:"user_id"`
	UserType            domain.Role                `json:"userType"`
	ServiceProviderType domain.ServiceProviderKind `json:"serviceProviderType,omitempty"`
	Profile             *domain.Profile            `json:"profile,omitempty"`
}

// NewAuthResponse builds the response for result, redirecting to redirect.
func NewAuthResponse(result *domain.AuthResult, redirect string) AuthResponse {
	return AuthResponse{
		Redirect:            redirect,
		UserID:              result.UserID,
		UserType:            result.UserType,
		ServiceProviderType: result.ServiceProviderType,
		Profile:             result.Profile,
	}
}

// PageResponse describes a rendered portal page.
type PageResponse struct {
	Page          string       `json:"page"`
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}
