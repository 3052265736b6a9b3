// Package models contains data structures for the application's domain models.
package models

import "time"

// Role is a user's platform-wide privilege level.
type Role string

const (
	RoleStudent    Role = "student"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// User represents an account on the forum.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email         string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password      string    `gorm:"not null" json:"-"`
	Role          Role      `gorm:"type:varchar(20);not null;default:'student';index" json:"role"`
	PrivateMember bool      `gorm:"not null;default:false" json:"private_member"`
	PostCount     int       `gorm:"not null;default:0" json:"post_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Author is the public view of a user attached to content.
type Author struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// AsAuthor projects u for content payloads. Nil-safe.
func (u *User) AsAuthor() *Author {
	if u == nil {
		return nil
	}
	return &Author{ID: u.ID, Username: u.Username}
}

// Actor returns the identity used by access checks.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role, PrivateMember: u.PrivateMember}
}

// Actor is the resolved caller of an operation.
type Actor struct {
	ID            uint
	Role          Role
	PrivateMember bool
}

// IsAdmin reports admin or super_admin.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}
