package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/model"
)

// notAuthorized is the only message the gate ever reports. A missing header,
// a bad signature, an unknown user and a revoked token are indistinguishable
// to the client.
const notAuthorized = "Not authorized"

// UserLookup is the slice of the user repository the gate needs.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// RevocationPolicy selects how the gate treats a token that verifies but is
// no longer the one stored on the user.
type RevocationPolicy int

const (
	// RequireStoredToken accepts a token only while it equals user.Token.
	// Logging out, or logging in again elsewhere, invalidates older tokens.
	RequireStoredToken RevocationPolicy = iota

	// SignatureOnly accepts any correctly signed, unexpired token whose
	// user still exists. Logout then only clears the stored token.
	SignatureOnly
)

// Gate authenticates requests from their Authorization header.
type Gate struct {
	tokens *TokenService
	users  UserLookup
	policy RevocationPolicy
	logger *slog.Logger
}

// NewGate creates a Gate.
func NewGate(tokens *TokenService, users UserLookup, policy RevocationPolicy, logger *slog.Logger) *Gate {
	return &Gate{
		tokens: tokens,
		users:  users,
		policy: policy,
		logger: logger,
	}
}

// Authenticate resolves an "Authorization: Bearer <token>" header value to
// the user it belongs to.
//
// STEPS:
//  1. The header must use the Bearer scheme (case-insensitive) with a
//     non-empty token.
//  2. The token must verify (signature, issuer, expiry).
//  3. The user named by the token must exist.
//  4. Under RequireStoredToken, the token must equal the stored one.
//
// Every failure is apperror.ErrUnauthorized with the same message.
func (g *Gate) Authenticate(ctx context.Context, header string) (*model.User, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, apperror.Unauthorized(notAuthorized)
	}

	userID, err := g.tokens.Validate(token)
	if err != nil {
		g.logger.Debug("rejected bearer token", slog.String("reason", err.Error()))
		return nil, apperror.Unauthorized(notAuthorized)
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		g.logger.Debug("token subject not found",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Unauthorized(notAuthorized)
	}

	if g.policy == RequireStoredToken && !sameToken(user.Token, token) {
		g.logger.Debug("revoked token presented", slog.String("userID", userID))
		return nil, apperror.Unauthorized(notAuthorized)
	}

	return user, nil
}

// bearerToken extracts the token from a "Bearer <token>" header value.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func sameToken(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
