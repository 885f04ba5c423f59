package model

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID       int64  `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email" yaml:"email"`
	Role     string `json:"role,omitempty" yaml:"role,omitempty"`
}

// AuthResponse is returned by both the login and the register endpoint.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
