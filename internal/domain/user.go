package domain

import "time"

// User is an account that can sign in, create challenges and post progress.
type User struct {
	Entity
	// Username is unique ignoring case and is what other participants see.
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// Name returns the best available name to display for the user.
// Prefers Username, falls back to Email, then ID.
func (u *User) Name() string {
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}
