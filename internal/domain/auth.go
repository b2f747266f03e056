package domain

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterFields is the registration payload.
type RegisterFields struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// AuthResult is returned by login, register and role switch.
type AuthResult struct {
	Token               string              `json:"token"`
	UserID              string              `json:"user_id"`
	UserType            Role                `json:"userType"`
	ServiceProviderType ServiceProviderKind `json:"serviceProviderType,omitempty"`
	Profile             *Profile            `json:"profile,omitempty"`
}
