package rbac

import (
	"math"
	"strings"
)

// Role groups POS users by what they may see and change.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

// ParseRole normalises a stored role value. Unknown values map to "".
func ParseRole(raw string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleAdmin, RoleManager, RoleCashier:
		return r
	}
	return ""
}

// Principal describes the authenticated actor.
type Principal struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

// Anonymous is the zero principal.
var Anonymous = Principal{}

// Authenticated reports whether the principal carries a user.
func (p Principal) Authenticated() bool {
	return p.UserID > 0
}

// IsAdmin reports whether the principal is an authenticated admin.
func (p Principal) IsAdmin() bool {
	return p.Authenticated() && p.Role == RoleAdmin
}

// Scope is used to partition cached data by visibility.
func (p Principal) Scope() string {
	if p.IsAdmin() {
		return string(RoleAdmin)
	}
	return "public"
}

// System is the admin-scoped principal background jobs derive under.
var System = Principal{UserID: math.MaxInt64, Role: RoleAdmin}
