package domain

import "time"

// Roles assigned to users. New accounts always start as RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the canonical identity record. It is the single owner of the
// password hash and of the one session token that is currently valid for
// the account. PasswordHash is empty for accounts created through an
// external provider; SessionToken is empty when the user is logged out.
type User struct {
	ID            int64
	Email         string
	FirstName     string
	LastName      string
	PasswordHash  string
	SessionToken  string
	AvatarURL     string
	EmailVerified bool
	Role          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasPassword reports whether the account can authenticate with a
// password at all. Pure OAuth accounts cannot.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// FederatedProfile is the normalized user-info payload returned by an
// external identity provider. It exists only to find or create a User
// and is never persisted.
type FederatedProfile struct {
	Provider      string
	Email         string
	GivenName     string
	FamilyName    string
	AvatarURL     string
	EmailVerified bool
}
