package models

import (
	"time"
)

// Role is the closed set of user roles. There is no third variant; policy
// decisions switch on exactly these two values.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleContributor   Role = "contributor"
)

// Valid reports whether the role is one of the two known variants.
func (r Role) Valid() bool {
	return r == RoleAdministrator || r == RoleContributor
}

// User represents an account in the workspace. Team is the single source of
// truth for record visibility: records never store a team of their own, they
// inherit it from their author at read time. An empty team means unassigned.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password"`
	Role         Role      `json:"role" db:"role"`
	Team         string    `json:"team" db:"team"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
