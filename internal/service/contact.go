// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take typed inputs (see package validation) and return domain
// errors from package apperror. They know nothing about HTTP.
//
// DEPENDENCY INJECTION:
// Services receive repository interfaces, never *sqlite.DB, so tests can
// pass in-memory fakes (see contact_test.go and auth_test.go).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/repository"
	"github.com/sakif/contacts-api/internal/validation"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ContactService is the contact ownership guard.
//
// OWNERSHIP:
// Every method takes the authenticated owner's ID and passes it to the
// repository as a query predicate. Someone else's contact therefore comes
// back as NotFound, exactly like a contact that never existed: callers can't
// probe for other users' IDs.
type ContactService struct {
	repo   repository.ContactRepository
	logger *slog.Logger
}

// NewContactService creates a new ContactService.
func NewContactService(repo repository.ContactRepository, logger *slog.Logger) *ContactService {
	return &ContactService{
		repo:   repo,
		logger: logger,
	}
}

// ListParams are the optional filters of a contact listing.
type ListParams struct {
	Page     int // 1-based; values below 1 select the first page
	Limit    int // clamped to 1..MaxListLimit, default DefaultListLimit
	Favorite *bool
}

// List returns one page of the owner's contacts.
func (s *ContactService) List(ctx context.Context, ownerID string, p ListParams) ([]model.Contact, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized("Not authorized")
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	page := p.Page
	if page < 1 {
		page = 1
	}

	contacts, err := s.repo.List(ctx, ownerID, repository.ListOptions{
		Limit:    limit,
		Offset:   (page - 1) * limit,
		Favorite: p.Favorite,
	})
	if err != nil {
		s.logger.Error("failed to list contacts",
			slog.String("owner", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing contacts: %w", err)
	}

	return contacts, nil
}

// Get returns one of the owner's contacts.
func (s *ContactService) Get(ctx context.Context, ownerID, id string) (*model.Contact, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized("Not authorized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("contactId", "contact ID is required")
	}

	// NotFound is a normal outcome, not logged.
	return s.repo.GetByID(ctx, ownerID, id)
}

// Create stores a new contact owned by ownerID. The input has no owner
// field, so a client cannot create a contact on someone else's behalf.
func (s *ContactService) Create(ctx context.Context, ownerID string, in validation.CreateContactInput) (*model.Contact, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized("Not authorized")
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	contact := &model.Contact{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Favorite: in.Favorite,
		OwnerID:  ownerID,
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		s.logger.Error("failed to create contact",
			slog.String("owner", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating contact: %w", err)
	}

	s.logger.Info("contact created",
		slog.String("id", contact.ID),
		slog.String("owner", ownerID),
	)

	return contact, nil
}

// Update applies a partial update to one of the owner's contacts.
// An update that sets no field is rejected with "missing fields".
func (s *ContactService) Update(ctx context.Context, ownerID, id string, in validation.UpdateContactInput) (*model.Contact, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized("Not authorized")
	}

	in.Name = trimPtr(in.Name)
	in.Email = trimPtr(in.Email)
	in.Phone = trimPtr(in.Phone)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return s.update(ctx, ownerID, id, in.Patch())
}

// UpdateFavorite sets the favorite flag of one of the owner's contacts.
func (s *ContactService) UpdateFavorite(ctx context.Context, ownerID, id string, in validation.FavoriteInput) (*model.Contact, error) {
	if ownerID == "" {
		return nil, apperror.Unauthorized("Not authorized")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return s.update(ctx, ownerID, id, model.ContactPatch{Favorite: in.Favorite})
}

func (s *ContactService) update(ctx context.Context, ownerID, id string, patch model.ContactPatch) (*model.Contact, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("contactId", "contact ID is required")
	}

	contact, err := s.repo.Update(ctx, ownerID, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("contact updated",
		slog.String("id", contact.ID),
		slog.String("owner", ownerID),
	)
	return contact, nil
}

// Delete removes one of the owner's contacts.
func (s *ContactService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return apperror.Unauthorized("Not authorized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("contactId", "contact ID is required")
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.logger.Info("contact deleted",
		slog.String("id", id),
		slog.String("owner", ownerID),
	)
	return nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
