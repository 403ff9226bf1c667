// Package model defines the data structures used throughout the application.
package model

import "time"

// Subscription is the account tier.
type Subscription string

const (
	SubscriptionStarter  Subscription = "starter"
	SubscriptionPro      Subscription = "pro"
	SubscriptionBusiness Subscription = "business"
)

// User represents a registered user account.
//
// SECRETS NEVER LEAVE THE SERVER:
// PasswordHash, Token and VerificationToken carry `json:"-"` so that encoding
// a User by accident can't leak them. Handlers respond with Public() instead.
//
// SESSION TOKEN:
// Token holds the JWT issued at the last login, or "" when logged out. The
// auth gate only accepts a bearer token equal to this value, which is how
// logout revokes a token that would otherwise stay valid until it expires.
//
// VERIFICATION STATE:
// While Verified is false, VerificationToken holds the pending single-use
// token. Verification sets Verified and clears the token in one write, and
// nothing ever sets Verified back to false.
type User struct {
	ID                string       `json:"id"`
	Email             string       `json:"email"`
	PasswordHash      string       `json:"-"`
	Subscription      Subscription `json:"subscription"`
	AvatarURL         string       `json:"avatarURL"`
	Token             string       `json:"-"`
	Verified          bool         `json:"verify"`
	VerificationToken string       `json:"-"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// PublicUser is the projection of a User returned to clients.
type PublicUser struct {
	Email        string       `json:"email"`
	Subscription Subscription `json:"subscription"`
}

// Public returns the client-facing projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{Email: u.Email, Subscription: u.Subscription}
}
