package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/repository"
)

var _ repository.ContactRepository = (*ContactStore)(nil)

// ContactStore reads and writes the contacts table.
//
// OWNER SCOPING:
// Every query below carries "owner_id = ?" in its WHERE clause. The filter
// is part of the query itself, not a check applied after loading the row,
// so another user's contact is indistinguishable from a missing one.
type ContactStore struct {
	conn *sql.DB
}

const contactColumns = `id, owner_id, name, email, phone, favorite, created_at, updated_at`

func scanContact(row rowScanner) (*model.Contact, error) {
	var c model.Contact
	if err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Favorite,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new contact. contact.OwnerID must already be set by the
// caller; the ID and timestamps are generated here.
func (s *ContactStore) Create(ctx context.Context, contact *model.Contact) error {
	if contact.OwnerID == "" {
		return fmt.Errorf("sqlite: creating contact: owner is required")
	}

	contact.ID = xid.New().String()
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO contacts (id, owner_id, name, email, phone, favorite, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		contact.ID,
		contact.OwnerID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Favorite,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating contact: %w", err)
	}

	return nil
}

// GetByID retrieves one of ownerID's contacts.
func (s *ContactStore) GetByID(ctx context.Context, ownerID, id string) (*model.Contact, error) {
	c, err := scanContact(s.conn.QueryRowContext(ctx,
		`SELECT `+contactColumns+`
		 FROM contacts
		 WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("contact", id)
		}
		return nil, fmt.Errorf("sqlite: getting contact %s: %w", id, err)
	}
	return c, nil
}

// List retrieves ownerID's contacts, oldest first, with pagination and an
// optional favorite filter.
func (s *ContactStore) List(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Contact, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE owner_id = ?`
	args := []any{ownerID}
	if opts.Favorite != nil {
		query += ` AND favorite = ?`
		args = append(args, *opts.Favorite)
	}
	query += ` ORDER BY created_at, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]model.Contact, 0, limit)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning contact row: %w", err)
		}
		contacts = append(contacts, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating contacts: %w", err)
	}

	return contacts, nil
}

// Update applies patch to one of ownerID's contacts and returns the
// updated row.
//
// The UPDATE only names the columns present in the patch, and the owner
// filter is in the same statement: a contact owned by someone else is never
// modified. The row is read back afterwards, still owner-scoped.
func (s *ContactStore) Update(ctx context.Context, ownerID, id string, patch model.ContactPatch) (*model.Contact, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 7)

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *patch.Phone)
	}
	if patch.Favorite != nil {
		sets = append(sets, "favorite = ?")
		args = append(args, *patch.Favorite)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now(), id, ownerID)

	result, err := s.conn.ExecContext(ctx,
		`UPDATE contacts SET `+strings.Join(sets, ", ")+`
		 WHERE id = ? AND owner_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating contact %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("contact", id)
	}

	return s.GetByID(ctx, ownerID, id)
}

// Delete removes one of ownerID's contacts.
func (s *ContactStore) Delete(ctx context.Context, ownerID, id string) error {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting contact %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("contact", id)
	}

	return nil
}
