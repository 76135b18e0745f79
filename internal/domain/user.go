package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles assigned to identities. Admin is granted out-of-band (bootstrap
// config), never through the API.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is an identity record. Email is treated as pre-confirmed at signup.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user carries the admin role claim.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
