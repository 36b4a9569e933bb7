package models

import "time"

// Employee roles. Any role other than admin is treated as non-admin by
// authorization checks.
const (
	RoleAdmin = "admin"
	RoleClerk = "clerk"
)

// Employee is a staff member operating the back office.
type Employee struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        *string   `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	JoinedOn     time.Time `json:"joined_on" db:"joined_on"`
}
