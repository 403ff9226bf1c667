package service

// AuthService is the business logic layer for accounts. It sequences the
// credential primitives into the public operations:
//
//	UserHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService, PasswordService (auth)
//	                               ↘ Mailer, avatar.Store
//
// KEY RULES:
//   - Emails are trimmed and lowercased before they are stored or looked up.
//   - Login answers "Email or password is wrong" for an unknown email and for
//     a wrong password alike, so the endpoint can't be used to enumerate
//     accounts.
//   - An unverified user may log in; verification only gates itself.
//   - A failed verification email does not undo a registration. The user can
//     ask for a new one through ResendVerification.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/auth"
	"github.com/sakif/contacts-api/internal/avatar"
	"github.com/sakif/contacts-api/internal/mailer"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/repository"
	"github.com/sakif/contacts-api/internal/validation"
)

const wrongCredentials = "Email or password is wrong"

// AuthService handles registration, sessions, verification and avatars.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - tokens     *auth.TokenService        → issue session JWTs
//   - passwords  *auth.PasswordService     → bcrypt hashing
//   - mail       mailer.Mailer             → verification emails
//   - avatars    avatar.Store              → uploaded avatar files
//   - baseURL    string                    → prefix of emailed links
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	mail      mailer.Mailer
	avatars   avatar.Store
	baseURL   string
	logger    *slog.Logger

	now func() time.Time
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mail mailer.Mailer,
	avatars avatar.Store,
	baseURL string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		mail:      mail,
		avatars:   avatars,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

// LoginResult is returned by Login: the issued session token and the user
// it belongs to.
type LoginResult struct {
	Token string
	User  *model.User
}

// Register creates an unverified account and emails its verification link.
//
// Returns apperror.ErrValidation for bad input and apperror.ErrConflict
// ("Email in use") when the email is taken, in any casing.
func (s *AuthService) Register(ctx context.Context, in validation.RegisterInput) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	// Cheap check first so a duplicate doesn't cost a bcrypt hash. The
	// UNIQUE index still decides when two registrations race.
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperror.ConflictMessage("Email in use")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up %s: %w", in.Email, err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Email:             in.Email,
		PasswordHash:      hash,
		Subscription:      model.SubscriptionStarter,
		AvatarURL:         avatar.Gravatar(in.Email),
		VerificationToken: auth.NewVerificationToken(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	if err := s.sendVerification(ctx, user.Email, user.VerificationToken); err != nil {
		s.logger.Error("verification email not sent",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}

// Login checks the credentials, issues a session token and stores it on the
// user. The stored token replaces any previous one, which the auth gate then
// stops accepting.
func (s *AuthService) Login(ctx context.Context, in validation.LoginInput) (*LoginResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(wrongCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", in.Email, err)
	}

	if !s.passwords.Verify(user.PasswordHash, in.Password) {
		s.logger.Info("login rejected", slog.String("userID", user.ID))
		return nil, apperror.Unauthorized(wrongCredentials)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	if err := s.users.SetToken(ctx, user.ID, token); err != nil {
		return nil, fmt.Errorf("service/auth: storing token for user %s: %w", user.ID, err)
	}
	user.Token = token

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &LoginResult{Token: token, User: user}, nil
}

// Logout clears the stored session token of an authenticated user.
func (s *AuthService) Logout(ctx context.Context, user *model.User) error {
	if user == nil {
		return apperror.Unauthorized("Not authorized")
	}
	if err := s.users.SetToken(ctx, user.ID, ""); err != nil {
		return fmt.Errorf("service/auth: clearing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged out", slog.String("userID", user.ID))
	return nil
}

// Current returns the client view of an authenticated user.
func (s *AuthService) Current(user *model.User) (model.PublicUser, error) {
	if user == nil {
		return model.PublicUser{}, apperror.Unauthorized("Not authorized")
	}
	return user.Public(), nil
}

// Verify consumes a verification token. An unknown or already used token
// is apperror.ErrNotFound ("User not found").
func (s *AuthService) Verify(ctx context.Context, token string) error {
	user, err := s.users.ConsumeVerificationToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return err
	}

	s.logger.Info("email verified", slog.String("userID", user.ID))
	return nil
}

// ResendVerification emails the pending verification link again. When no
// token is pending a fresh one is issued first.
//
// Returns apperror.ErrNotFound for an unknown email and
// apperror.ErrAlreadyVerified for a verified account.
func (s *AuthService) ResendVerification(ctx context.Context, in validation.EmailInput) error {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if user.Verified {
		return apperror.AlreadyVerified()
	}

	token := user.VerificationToken
	if token == "" {
		token = auth.NewVerificationToken()
		if err := s.users.SetVerificationToken(ctx, user.ID, token); err != nil {
			return fmt.Errorf("service/auth: reissuing verification token: %w", err)
		}
	}

	if err := s.sendVerification(ctx, user.Email, token); err != nil {
		s.logger.Error("verification email not sent",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("service/auth: %w", err)
	}
	return nil
}

// UpdateAvatar stores an uploaded image and points the user's avatar at it.
// Only .jpg, .jpeg, .png, .gif and .webp files are accepted.
func (s *AuthService) UpdateAvatar(ctx context.Context, user *model.User, filename string, r io.Reader) (string, error) {
	if user == nil {
		return "", apperror.Unauthorized("Not authorized")
	}
	ext, ok := avatar.Extension(filename)
	if !ok {
		return "", apperror.ValidationFailed("avatar", "avatar must be a .jpg, .jpeg, .png, .gif or .webp image")
	}

	key := avatar.ObjectKey(user.ID, filename, s.now())
	url, err := s.avatars.Save(ctx, key, r, avatar.ContentType(ext))
	if err != nil {
		s.logger.Error("failed to store avatar",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("service/auth: storing avatar: %w", err)
	}

	if err := s.users.SetAvatarURL(ctx, user.ID, url); err != nil {
		return "", fmt.Errorf("service/auth: saving avatar URL: %w", err)
	}

	s.logger.Info("avatar updated", slog.String("userID", user.ID), slog.String("url", url))
	return url, nil
}

func (s *AuthService) sendVerification(ctx context.Context, to, token string) error {
	link := s.baseURL + "/users/verify/" + token
	return s.mail.Send(ctx, mailer.VerificationMessage(to, link))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
