package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/validation"
)

// newTestContactService creates a ContactService over an in-memory repo.
func newTestContactService(t *testing.T) (*ContactService, *fakeContactRepo) {
	t.Helper()
	repo := newFakeContactRepo()
	return NewContactService(repo, testLogger()), repo
}

func ptr[T any](v T) *T { return &v }

func mustCreate(t *testing.T, svc *ContactService, ownerID, name string) *model.Contact {
	t.Helper()
	c, err := svc.Create(context.Background(), ownerID, validation.CreateContactInput{Name: name, Phone: "123"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return c
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestContactCreate_OwnerIsPrincipal(t *testing.T) {
	svc, repo := newTestContactService(t)

	contact, err := svc.Create(context.Background(), "user-a", validation.CreateContactInput{
		Name:  "Bob",
		Email: "b@x.com",
		Phone: "123",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if contact.OwnerID != "user-a" {
		t.Errorf("OwnerID = %q, want %q", contact.OwnerID, "user-a")
	}
	if contact.Favorite {
		t.Error("Favorite should default to false")
	}
	if stored := repo.contacts[contact.ID]; stored == nil || stored.OwnerID != "user-a" {
		t.Errorf("stored contact = %+v, want owner user-a", stored)
	}
}

func TestContactCreate_TrimsFields(t *testing.T) {
	svc, _ := newTestContactService(t)

	contact, err := svc.Create(context.Background(), "user-a", validation.CreateContactInput{
		Name:  "  Bob  ",
		Phone: " 123 ",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if contact.Name != "Bob" || contact.Phone != "123" {
		t.Errorf("got name=%q phone=%q, want trimmed values", contact.Name, contact.Phone)
	}
}

func TestContactCreate_ValidationErrors(t *testing.T) {
	svc, repo := newTestContactService(t)

	tests := []struct {
		name  string
		input validation.CreateContactInput
	}{
		{"missing name", validation.CreateContactInput{Phone: "1"}},
		{"name only spaces", validation.CreateContactInput{Name: "     ", Phone: "1"}},
		{"name too short", validation.CreateContactInput{Name: "Bo", Phone: "1"}},
		{"missing phone", validation.CreateContactInput{Name: "Bob"}},
		{"bad email", validation.CreateContactInput{Name: "Bob", Phone: "1", Email: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-a", tt.input)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}

	if len(repo.contacts) != 0 {
		t.Errorf("invalid input reached the repository: %d contacts stored", len(repo.contacts))
	}
}

func TestContactCreate_RequiresOwner(t *testing.T) {
	svc, _ := newTestContactService(t)

	_, err := svc.Create(context.Background(), "", validation.CreateContactInput{Name: "Bob", Phone: "1"})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Create() error = %v, want ErrUnauthorized", err)
	}
}

func TestContactCreate_RepositoryError(t *testing.T) {
	svc, repo := newTestContactService(t)
	repo.err = errDatabaseDown

	_, err := svc.Create(context.Background(), "user-a", validation.CreateContactInput{Name: "Bob", Phone: "1"})
	if !errors.Is(err, errDatabaseDown) {
		t.Errorf("Create() error = %v, want wrapped repository error", err)
	}
}

// =========================================================================
// OWNERSHIP TESTS
// =========================================================================

func TestContact_OtherOwnerSeesNotFound(t *testing.T) {
	svc, repo := newTestContactService(t)
	ctx := context.Background()
	contact := mustCreate(t, svc, "user-a", "Carol")

	t.Run("get", func(t *testing.T) {
		_, err := svc.Get(ctx, "user-b", contact.ID)
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		_, err := svc.Update(ctx, "user-b", contact.ID, validation.UpdateContactInput{Name: ptr("Mallory")})
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("favorite", func(t *testing.T) {
		_, err := svc.UpdateFavorite(ctx, "user-b", contact.ID, validation.FavoriteInput{Favorite: ptr(true)})
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("UpdateFavorite() error = %v, want ErrNotFound", err)
		}
		if errors.Is(err, apperror.ErrForbidden) {
			t.Error("UpdateFavorite() must not reveal the contact exists")
		}
	})

	t.Run("delete", func(t *testing.T) {
		err := svc.Delete(ctx, "user-b", contact.ID)
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("Delete() error = %v, want ErrNotFound", err)
		}
	})

	stored := repo.contacts[contact.ID]
	if stored == nil || stored.Name != "Carol" || stored.Favorite {
		t.Errorf("contact was modified by another owner: %+v", stored)
	}
}

func TestContactList_OnlyOwnContacts(t *testing.T) {
	svc, _ := newTestContactService(t)
	mustCreate(t, svc, "user-a", "Alice")
	mustCreate(t, svc, "user-a", "Albert")
	mustCreate(t, svc, "user-b", "Bobby")

	contacts, err := svc.List(context.Background(), "user-a", ListParams{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("List() returned %d contacts, want 2", len(contacts))
	}
	for _, c := range contacts {
		if c.OwnerID != "user-a" {
			t.Errorf("List() returned contact owned by %q", c.OwnerID)
		}
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestContactList_Paging(t *testing.T) {
	tests := []struct {
		name       string
		params     ListParams
		wantLimit  int
		wantOffset int
	}{
		{"defaults", ListParams{}, DefaultListLimit, 0},
		{"second page", ListParams{Page: 2, Limit: 5}, 5, 5},
		{"limit capped", ListParams{Limit: 1000}, MaxListLimit, 0},
		{"negative page", ListParams{Page: -3, Limit: 10}, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestContactService(t)

			if _, err := svc.List(context.Background(), "user-a", tt.params); err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if repo.lastList.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", repo.lastList.Limit, tt.wantLimit)
			}
			if repo.lastList.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", repo.lastList.Offset, tt.wantOffset)
			}
		})
	}
}

func TestContactList_FavoriteFilter(t *testing.T) {
	svc, _ := newTestContactService(t)
	ctx := context.Background()
	fav := mustCreate(t, svc, "user-a", "Favorite")
	mustCreate(t, svc, "user-a", "Regular")

	if _, err := svc.UpdateFavorite(ctx, "user-a", fav.ID, validation.FavoriteInput{Favorite: ptr(true)}); err != nil {
		t.Fatalf("UpdateFavorite() error = %v", err)
	}

	contacts, err := svc.List(ctx, "user-a", ListParams{Favorite: ptr(true)})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(contacts) != 1 || contacts[0].ID != fav.ID {
		t.Errorf("List(favorite=true) = %+v, want only %s", contacts, fav.ID)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestContactUpdate_Partial(t *testing.T) {
	svc, _ := newTestContactService(t)
	contact := mustCreate(t, svc, "user-a", "Original")

	updated, err := svc.Update(context.Background(), "user-a", contact.ID, validation.UpdateContactInput{
		Phone: ptr(" 999 "),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Phone != "999" {
		t.Errorf("Phone = %q, want %q", updated.Phone, "999")
	}
	if updated.Name != "Original" {
		t.Errorf("Name = %q, want unchanged %q", updated.Name, "Original")
	}
}

func TestContactUpdate_MissingFields(t *testing.T) {
	svc, _ := newTestContactService(t)
	contact := mustCreate(t, svc, "user-a", "Original")

	_, err := svc.Update(context.Background(), "user-a", contact.ID, validation.UpdateContactInput{})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Update() error = %v, want ErrValidation", err)
	}
	if err.Error() != "missing fields" {
		t.Errorf("message = %q, want %q", err.Error(), "missing fields")
	}
}

func TestContactUpdateFavorite(t *testing.T) {
	svc, _ := newTestContactService(t)
	contact := mustCreate(t, svc, "user-a", "Someone")

	updated, err := svc.UpdateFavorite(context.Background(), "user-a", contact.ID, validation.FavoriteInput{Favorite: ptr(true)})
	if err != nil {
		t.Fatalf("UpdateFavorite() error = %v", err)
	}
	if !updated.Favorite {
		t.Error("Favorite = false, want true")
	}

	_, err = svc.UpdateFavorite(context.Background(), "user-a", contact.ID, validation.FavoriteInput{})
	if !errors.Is(err, apperror.ErrValidation) || err.Error() != "missing field favorite" {
		t.Errorf("UpdateFavorite(nil) error = %v, want 'missing field favorite'", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestContactDelete(t *testing.T) {
	svc, _ := newTestContactService(t)
	ctx := context.Background()
	contact := mustCreate(t, svc, "user-a", "Goner")

	if err := svc.Delete(ctx, "user-a", contact.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, "user-a", contact.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}
}

func TestContact_EmptyID(t *testing.T) {
	svc, _ := newTestContactService(t)

	if _, err := svc.Get(context.Background(), "user-a", "  "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Get() error = %v, want ErrValidation", err)
	}
	if err := svc.Delete(context.Background(), "user-a", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Delete() error = %v, want ErrValidation", err)
	}
}
