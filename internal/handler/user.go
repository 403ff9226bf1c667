package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/contacts-api/internal/apperror"
	"github.com/sakif/contacts-api/internal/auth"
	"github.com/sakif/contacts-api/internal/model"
	"github.com/sakif/contacts-api/internal/service"
	"github.com/sakif/contacts-api/internal/validation"
)

// UserService is what UserHandler needs from the account service.
// *service.AuthService implements it.
type UserService interface {
	Register(ctx context.Context, in validation.RegisterInput) (*model.User, error)
	Login(ctx context.Context, in validation.LoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, user *model.User) error
	Current(user *model.User) (model.PublicUser, error)
	Verify(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, in validation.EmailInput) error
	UpdateAvatar(ctx context.Context, user *model.User, filename string, r io.Reader) (string, error)
}

// UserHandler serves the /users endpoints.
type UserHandler struct {
	svc            UserService
	maxAvatarBytes int64
	logger         *slog.Logger
}

// NewUserHandler creates a UserHandler. maxAvatarBytes caps the size of an
// uploaded avatar file.
func NewUserHandler(svc UserService, maxAvatarBytes int64, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:            svc,
		maxAvatarBytes: maxAvatarBytes,
		logger:         logger,
	}
}

type registerResponse struct {
	User model.PublicUser `json:"user"`
}

type loginResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

type avatarResponse struct {
	AvatarURL string `json:"avatarURL"`
}

// HandleRegister creates an account.
//
// HTTP: POST /users/register
// REQUEST BODY: {"email": "a@x.com", "password": "secret1"}
// RESPONSE: 201 {"user": {"email": "a@x.com", "subscription": "starter"}}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in validation.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{User: user.Public()})
}

// HandleLogin exchanges credentials for a session token.
//
// HTTP: POST /users/login
// RESPONSE: 200 {"token": "<jwt>", "user": {"email": ..., "subscription": ...}}
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in validation.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.svc.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: result.Token, User: result.User.Public()})
}

// HandleLogout revokes the caller's session token.
//
// HTTP: POST /users/logout (bearer) → 204
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	if err := h.svc.Logout(r.Context(), user); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCurrent returns the caller's public profile.
//
// HTTP: GET /users/current (bearer) → 200 {"email": ..., "subscription": ...}
func (h *UserHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	current, err := h.svc.Current(user)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// HandleVerify consumes an emailed verification token.
//
// HTTP: GET /users/verify/{verificationToken} → 200 | 404
func (h *UserHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Verify(r.Context(), chi.URLParam(r, "verificationToken")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Verification successful"})
}

// HandleResendVerification emails the verification link again.
//
// HTTP: POST /users/verify
// REQUEST BODY: {"email": "a@x.com"}
// RESPONSE: 200 | 400 (bad input, already verified) | 404
func (h *UserHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	var in validation.EmailInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.svc.ResendVerification(r.Context(), in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Verification email sent"})
}

// HandleAvatar replaces the caller's avatar with an uploaded image.
//
// HTTP: PATCH /users/avatars (bearer)
// REQUEST: multipart/form-data with the image in the "avatar" field
// RESPONSE: 200 {"avatarURL": "/avatars/<file>"}
//
// The whole body is capped a little above maxAvatarBytes to leave room for
// the multipart framing. Parts beyond the in-memory threshold are spooled to
// a temporary file by the standard library and removed afterwards.
func (h *UserHandler) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+64<<10)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, h.logger, apperror.TooLarge("avatar file is too large"))
			return
		}
		writeError(w, r, h.logger, apperror.ValidationFailed("avatar", "missing avatar file"))
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	if header.Size > h.maxAvatarBytes {
		writeError(w, r, h.logger, apperror.TooLarge("avatar file is too large"))
		return
	}

	url, err := h.svc.UpdateAvatar(r.Context(), user, header.Filename, file)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, avatarResponse{AvatarURL: url})
}
