package domain

import "time"

// UserRole distinguishes administrators from regular employees.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleEmployee UserRole = "EMPLOYEE"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// User is the domain model for accounts that log into the system.
// Email is the login key and is unique at the store boundary; the role
// is assigned once at creation and never changes afterwards.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
