// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts come from two places: email/password sign-up (which stays
// unconfirmed until the out-of-band confirmation link is followed) and
// GitHub OAuth (confirmed immediately, keyed by the GitHub numeric ID).
//
// PasswordHash and ConfirmToken never leave the server: the `json:"-"` tag
// keeps them out of every API response.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	ConfirmToken string     `json:"-"`
	GitHubID     *int64     `json:"githubId,omitempty"` // nil for email accounts
	Login        string     `json:"login,omitempty"`    // GitHub username
	AvatarURL    string     `json:"avatarUrl,omitempty"`
	ConfirmedAt  *time.Time `json:"confirmedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Confirmed reports whether the account may sign in.
func (u *User) Confirmed() bool {
	return u.ConfirmedAt != nil
}

// DisplayName is the login for GitHub accounts, the email otherwise.
func (u *User) DisplayName() string {
	if u.Login != "" {
		return u.Login
	}
	return u.Email
}
