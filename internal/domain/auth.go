package domain

// LoginRequest is the payload of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the payload of POST /auth/register.
type RegisterRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	MiddleName string `json:"middleName,omitempty"`
	Address    string `json:"address,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       Role   `json:"role,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token   string `json:"token"`
	Role    Role   `json:"role"`
	Message string `json:"message,omitempty"`
}
