package models

import "time"

// Role is a free-text tag carried in the session token
type Role string

// Role constants
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered account
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PasswordHash string `json:"-"` // Never serialize password hash
	Role         Role   `json:"role"`
	IsActive     bool   `json:"is_active"`
}

// RegisterRequest represents a request to create a user
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// TokenResponse is returned by the token endpoint
type TokenResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Session is a signed session token and the moment it stops being valid
type Session struct {
	Token     string
	ExpiresAt time.Time
}
