// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// User represents a registered Gamelogue account.
// PasswordHash never leaves the server; every JSON rendering of a User is safe to return.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Username      string     `gorm:"uniqueIndex;size:30;not null" json:"username"`
	PasswordHash  string     `gorm:"not null" json:"-"`
	Bio           string     `gorm:"size:500" json:"bio"`
	Avatar        string     `json:"avatar"`
	EmailVerified bool       `gorm:"not null;default:false" json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ProfileSlug is the path segment used for the user's profile page.
// Accounts without a username fall back to the local part of their email.
func (u *User) ProfileSlug() string {
	return ProfileSlug(u.Username, u.Email)
}

// ProfileSlug picks the username, or the local part of email when username is blank.
func ProfileSlug(username, email string) string {
	if strings.TrimSpace(username) != "" {
		return username
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
