package auth

import "github.com/google/uuid"

// NewVerificationToken returns a fresh single-use email-verification token.
//
// Version 4 UUIDs carry 122 random bits, so collisions are not a practical
// concern; the users.verification_token UNIQUE index catches one anyway.
func NewVerificationToken() string {
	return uuid.NewString()
}

// newTokenID returns a unique JWT ID ("jti").
func newTokenID() string {
	return uuid.NewString()
}
