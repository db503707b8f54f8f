// Package model defines domain entities for the application.
package model

import "time"

// Role is the primary role of a back-office user.
type Role string

// Known user roles.
const (
	RoleBuyer  Role = "buyer"
	RoleLead   Role = "lead"
	RoleMentor Role = "mentor"
	RoleHead   Role = "head"
	RoleAdmin  Role = "admin"
)

// creditedRoles are the roles that may be credited with conversions in
// statistics. Admin and unknown roles are never credited even when they are
// the literal routing target.
var creditedRoles = map[Role]bool{
	RoleBuyer:  true,
	RoleLead:   true,
	RoleMentor: true,
	RoleHead:   true,
}

// Credited reports whether conversions attributed to this role count toward
// performance statistics.
func (r Role) Credited() bool {
	return creditedRoles[r]
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || creditedRoles[r]
}

// User represents a back-office user identified by their Telegram ID.
type User struct {
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username,omitempty"`
	FullName   string    `json:"full_name,omitempty"`
	Role       Role      `json:"role"`
	TeamID     *int64    `json:"team_id,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName returns the username when set, otherwise the full name,
// otherwise the Telegram ID is left to the caller.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FullName
}
