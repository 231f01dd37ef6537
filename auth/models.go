package auth

import "time"

type Role string

const (
	RoleProducer Role = "PRODUCER"
	RoleBuyer    Role = "BUYER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleProducer || r == RoleBuyer
}

// User is the domain representation of an authenticated user.
// It mirrors the users table and should not include JSON annotations so it
// can be reused by different presentation layers.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// RegisterRequest contains user registration data supplied by callers.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"required,oneof=PRODUCER BUYER"`
}

// LoginRequest contains user login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
