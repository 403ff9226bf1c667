// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in sub-packages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/contacts-api/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
	// Favorite, when non-nil, restricts the listing to contacts whose
	// favorite flag equals *Favorite.
	Favorite *bool
}

// UserRepository persists user accounts.
//
// Every method touches exactly one user row. Methods that look a user up
// return apperror.ErrNotFound when nothing matches; Create returns
// apperror.ErrConflict when the email is already registered.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// SetToken stores the session token; "" clears it.
	SetToken(ctx context.Context, id, token string) error
	SetAvatarURL(ctx context.Context, id, avatarURL string) error
	// SetVerificationToken stores a pending token on an unverified user.
	SetVerificationToken(ctx context.Context, id, token string) error
	// ConsumeVerificationToken marks the user owning token as verified and
	// clears the token in a single statement, so a token is usable once.
	ConsumeVerificationToken(ctx context.Context, token string) (*model.User, error)
}

// ContactRepository persists contacts. Every method is scoped to ownerID:
// rows belonging to other users are never read, changed or removed, and are
// reported as apperror.ErrNotFound.
type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Contact, error)
	List(ctx context.Context, ownerID string, opts ListOptions) ([]model.Contact, error)
	Update(ctx context.Context, ownerID, id string, patch model.ContactPatch) (*model.Contact, error)
	Delete(ctx context.Context, ownerID, id string) error
}
