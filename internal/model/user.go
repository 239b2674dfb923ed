package model

import (
	"strings"
	"time"
)

// Role is the single exclusive tag that decides what a user may do.
// Roles are not hierarchical: an admin is not implicitly a store owner.
type Role string

const (
	RoleSystemAdmin Role = "SYSTEM_ADMIN"
	RoleStoreOwner  Role = "STORE_OWNER"
	RoleNormalUser  Role = "NORMAL_USER"
)

// Roles lists every known role in a stable order.
var Roles = []Role{RoleSystemAdmin, RoleStoreOwner, RoleNormalUser}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleStoreOwner, RoleNormalUser:
		return true
	}
	return false
}

// ParseRole normalises s and returns the matching role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User represents an account as stored in the `users` table.
//
// Fields:
//
//	ID               – uuid primary key.
//	Name             – display name, 2 to 60 characters.
//	Email            – unique, lower-cased email address.
//	PasswordHash     – bcrypt hash, never serialised.
//	Address          – postal address, at most 400 characters.
//	Role             – SYSTEM_ADMIN, STORE_OWNER or NORMAL_USER.
//	RefreshTokenHash – SHA-256 of the active refresh token (nullable).
//	CreatedAt        – creation timestamp (UTC).
//	Store            – the owned store, only populated by profile and listing queries.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Address          string     `json:"address"`
	Role             Role       `json:"role"`
	RefreshTokenHash *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
	Store            *StoreRef  `json:"store,omitempty"`
}

// UserRef is the trimmed user shape embedded in store and rating responses.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
