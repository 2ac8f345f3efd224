package models

import (
	"slices"
	"time"
)

// User is a reviewer account.
// `db` tags map columns for sqlx, `json` tags drive the wire format.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"` // never leaves the server
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RegisterRequest is the body of a registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the body of a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Roles a user can hold.
const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
	RoleViewer   = "viewer"
)

// Permissions checked on vault routes.
const (
	PermVaultRead     = "vault:read"
	PermVaultCreate   = "vault:create"
	PermVaultFeedback = "vault:feedback"
	PermVaultArchive  = "vault:archive"
	PermVaultRevert   = "vault:revert"
)

// rolePermissions lists what each non-admin role may do. Admins may do everything.
//
//nolint:gochecknoglobals // read-only table
var rolePermissions = map[string][]string{
	RoleReviewer: {PermVaultRead, PermVaultFeedback, PermVaultArchive, PermVaultRevert},
	RoleViewer:   {PermVaultRead},
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	if role == RoleAdmin {
		return true
	}
	_, ok := rolePermissions[role]
	return ok
}

// RoleAllows reports whether role grants perm.
func RoleAllows(role, perm string) bool {
	if role == RoleAdmin {
		return true
	}
	return slices.Contains(rolePermissions[role], perm)
}
