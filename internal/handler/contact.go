package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/auth"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/service"
	"github.com/sakif/contacts-api/internal/validation"
)

// ContactService is what ContactHandler needs from the contact service.
// *service.ContactService implements it.
type ContactService interface {
	List(ctx context.Context, ownerID string, p service.ListParams) ([]model.Contact, error)
	Get(ctx context.Context, ownerID, id string) (*model.Contact, error)
	Create(ctx context.Context, ownerID string, in validation.CreateContactInput) (*model.Contact, error)
	Update(ctx context.Context, ownerID, id string, in validation.UpdateContactInput) (*model.Contact, error)
	UpdateFavorite(ctx context.Context, ownerID, id string, in validation.FavoriteInput) (*model.Contact, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ContactHandler serves the /contacts endpoints. Every route sits behind
// auth.RequireAuth; the authenticated user is the owner for every call.
type ContactHandler struct {
	svc    ContactService
	logger *slog.Logger
}

// NewContactHandler creates a ContactHandler.
func NewContactHandler(svc ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, logger: logger}
}

// ownerID returns the authenticated user's ID, or "" when the route was
// mounted without RequireAuth (the service then answers Unauthorized).
func ownerID(r *http.Request) string {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return user.ID
	}
	return ""
}

// HandleList returns the caller's contacts.
//
// HTTP: GET /contacts?page=1&limit=20&favorite=true
func (h *ContactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	contacts, err := h.svc.List(r.Context(), ownerID(r), params)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func parseListParams(r *http.Request) (service.ListParams, error) {
	var p service.ListParams
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return p, apperror.ValidationFailed("page", "page must be a positive integer")
		}
		p.Page = page
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return p, apperror.ValidationFailed("limit", "limit must be a positive integer")
		}
		p.Limit = limit
	}
	if v := q.Get("favorite"); v != "" {
		fav, err := strconv.ParseBool(v)
		if err != nil {
			return p, apperror.ValidationFailed("favorite", "favorite must be true or false")
		}
		p.Favorite = &fav
	}
	return p, nil
}

// HandleGet returns one contact.
//
// HTTP: GET /contacts/{contactId} → 200 | 404
func (h *ContactHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	contact, err := h.svc.Get(r.Context(), ownerID(r), chi.URLParam(r, "contactId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// HandleCreate adds a contact owned by the caller. An "owner" field in the
// body is ignored.
//
// HTTP: POST /contacts
// REQUEST BODY: {"name": "Bob", "email": "b@x.com", "phone": "123"}
func (h *ContactHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in validation.CreateContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	contact, err := h.svc.Create(r.Context(), ownerID(r), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// HandleUpdate changes the fields present in the body.
//
// HTTP: PUT /contacts/{contactId} → 200 | 400 "missing fields" | 404
func (h *ContactHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in validation.UpdateContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	contact, err := h.svc.Update(r.Context(), ownerID(r), chi.URLParam(r, "contactId"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// HandleFavorite sets the favorite flag.
//
// HTTP: PATCH /contacts/{contactId}/favorite
// REQUEST BODY: {"favorite": true} → 200 | 400 "missing field favorite" | 404
func (h *ContactHandler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	var in validation.FavoriteInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	contact, err := h.svc.UpdateFavorite(r.Context(), ownerID(r), chi.URLParam(r, "contactId"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// HandleDelete removes a contact.
//
// HTTP: DELETE /contacts/{contactId} → 200 {"message": "contact deleted"} | 404
func (h *ContactHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), ownerID(r), chi.URLParam(r, "contactId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "contact deleted"})
}
