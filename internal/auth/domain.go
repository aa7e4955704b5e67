package auth

import (
	"time"

	"github.com/posledger/posledger/internal/rbac"
)

// User represents an authenticated user account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         rbac.Role `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal returns the authorization identity of u.
func (u User) Principal() rbac.Principal {
	return rbac.Principal{UserID: u.ID, Role: u.Role}
}
