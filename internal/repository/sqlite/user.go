package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore reads and writes the users table.
type UserStore struct {
	conn *sql.DB
}

const userColumns = `id, email, password_hash, subscription, avatar_url, token,
	verified, verification_token, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u                 model.User
		subscription      string
		token, verifToken sql.NullString
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&subscription,
		&u.AvatarURL,
		&token,
		&u.Verified,
		&verifToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Subscription = model.Subscription(subscription)
	u.Token = token.String
	u.VerificationToken = verifToken.String
	return &u, nil
}

// Create inserts a new user. The ID and timestamps are generated here and
// written back into user. An email that is already registered (compared
// case-insensitively) yields apperror.ErrConflict.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Subscription == "" {
		user.Subscription = model.SubscriptionStarter
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, subscription, avatar_url, token,
		                    verified, verification_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		string(user.Subscription),
		user.AvatarURL,
		nullable(user.Token),
		user.Verified,
		nullable(user.VerificationToken),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ConflictMessage("Email in use")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFoundMessage("User not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// SetToken stores the session token for a user. Passing "" stores NULL,
// which is how logout revokes the current session.
func (s *UserStore) SetToken(ctx context.Context, id, token string) error {
	return s.updateOne(ctx, id, "setting token",
		`UPDATE users SET token = ?, updated_at = ? WHERE id = ?`,
		nullable(token), time.Now(), id,
	)
}

// SetAvatarURL replaces the user's avatar reference.
func (s *UserStore) SetAvatarURL(ctx context.Context, id, avatarURL string) error {
	return s.updateOne(ctx, id, "setting avatar",
		`UPDATE users SET avatar_url = ?, updated_at = ? WHERE id = ?`,
		avatarURL, time.Now(), id,
	)
}

// SetVerificationToken stores a pending verification token. It only
// touches unverified users: verification is terminal, so a verified user
// never gets a token again.
func (s *UserStore) SetVerificationToken(ctx context.Context, id, token string) error {
	return s.updateOne(ctx, id, "setting verification token",
		`UPDATE users SET verification_token = ?, updated_at = ?
		 WHERE id = ? AND verified = 0`,
		nullable(token), time.Now(), id,
	)
}

// ConsumeVerificationToken verifies the user holding token.
//
// SINGLE USE:
// The UPDATE both matches on the token and clears it, so two concurrent
// calls with the same token can't both succeed: the second one matches zero
// rows and gets NotFound. The user is then read back by ID.
func (s *UserStore) ConsumeVerificationToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperror.NotFoundMessage("User not found")
	}

	var id string
	err := s.conn.QueryRowContext(ctx,
		`UPDATE users
		 SET verified = 1, verification_token = NULL, updated_at = ?
		 WHERE verification_token = ? AND verified = 0
		 RETURNING id`,
		time.Now(), token,
	).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFoundMessage("User not found")
		}
		return nil, fmt.Errorf("sqlite: consuming verification token: %w", err)
	}

	return s.GetByID(ctx, id)
}

// updateOne runs an UPDATE expected to touch exactly one user row.
// Zero affected rows means the user doesn't exist (or the WHERE clause's
// extra condition didn't hold) → NotFound.
func (s *UserStore) updateOne(ctx context.Context, id, what, query string, args ...any) error {
	result, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: %s for user %s: %w", what, id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
