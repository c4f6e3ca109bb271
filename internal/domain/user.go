package domain

import "time"

// DefaultCredits is granted to every new account, whether it was created via
// the register form or a first Google sign-in.
const DefaultCredits = 5

// User represents an account within the platform. PasswordHash is empty for
// accounts created through Google sign-in only.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	GoogleSub    string
	AvatarURL    string
	Credits      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can authenticate with credentials.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}
