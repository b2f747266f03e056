package domain

import "time"

// User is the current-user identity record served by the backend. The portal
// never builds one locally; it only requests it with the session's bearer token.
type User struct {
	ID              string     `json:"id"`
	Email           *string    `json:"email,omitempty"`
	FirstName       *string    `json:"firstName,omitempty"`
	LastName        *string    `json:"lastName,omitempty"`
	ProfileImageURL *string    `json:"profileImageUrl,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}
