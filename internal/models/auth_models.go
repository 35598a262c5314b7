package models

import "time"

// Role names. Roles are a closed set; there is no role table.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleSupport    = "support"
)

// User represents an authenticated user of the admin backend.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // '-' means don't send in JSON response
	FullName     *string   `json:"full_name,omitempty" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Caller is the authenticated identity attached to every ledger entry point.
// Supervisors only see and edit batches recorded under their own name.
type Caller struct {
	UserID   int64
	Username string
	FullName string
	Role     string
}

// IsValidRole reports whether name is one of the known roles.
func IsValidRole(name string) bool {
	switch name {
	case RoleAdmin, RoleSupervisor, RoleSupport:
		return true
	default:
		return false
	}
}
