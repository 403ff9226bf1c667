package validation

import (
	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/model"
)

// RegisterInput is the body of POST /users/register.
// Passwords are capped at bcrypt's 72-byte input limit.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput is the body of POST /users/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EmailInput is the body of POST /users/verify.
type EmailInput struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateContactInput is the body of POST /contacts. There is no owner
// field: the owner is always the authenticated user.
type CreateContactInput struct {
	Name     string `json:"name" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"required"`
	Favorite bool   `json:"favorite"`
}

// UpdateContactInput is the body of PUT /contacts/{contactId}. Absent
// fields are left unchanged; present ones obey the create rules.
type UpdateContactInput struct {
	Name     *string `json:"name" validate:"omitempty,min=3,max=30"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,min=1"`
	Favorite *bool   `json:"favorite"`
}

// Patch converts the input to a store patch.
func (in UpdateContactInput) Patch() model.ContactPatch {
	return model.ContactPatch{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Favorite: in.Favorite,
	}
}

// Validate runs the tag rules and additionally rejects an update that
// changes nothing.
func (in UpdateContactInput) Validate() error {
	if in.Patch().Empty() {
		return apperror.ValidationFailed("body", "missing fields")
	}
	return Struct(in)
}

// FavoriteInput is the body of PATCH /contacts/{contactId}/favorite.
type FavoriteInput struct {
	Favorite *bool `json:"favorite" validate:"required"`
}

// Validate reports a missing favorite flag with the route's own message.
func (in FavoriteInput) Validate() error {
	if in.Favorite == nil {
		return apperror.ValidationFailed("favorite", "missing field favorite")
	}
	return nil
}
