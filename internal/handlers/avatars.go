package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-social/apiserver/internal/services"
	"github.com/inkwell-social/apiserver/internal/storage"
	"github.com/inkwell-social/apiserver/internal/store"
)

const (
	maxAvatarBytes  = 2 << 20
	formFieldAvatar = "avatar"
)

// AvatarHandler provides upload and retrieval of user avatars backed by
// object storage.
type AvatarHandler struct {
	users   *services.UserService
	avatars *storage.AvatarStore
}

func NewAvatarHandler(users *services.UserService, avatars *storage.AvatarStore) *AvatarHandler {
	return &AvatarHandler{users: users, avatars: avatars}
}

// AvatarRouter registers avatar routes on the given router. Routes are
// only mounted when an avatar store is configured.
func AvatarRouter(r chi.Router, handler *AvatarHandler) {
	r.Get("/{userID}/avatar", handler.GetAvatar)
	r.With(RequireAuthenticated).Put("/{userID}/avatar", handler.PutAvatar)
}

// PutAvatar stores a new avatar for the user. Allowed for the account
// owner and administrators.
func (h *AvatarHandler) PutAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal := principalFromContext(r.Context())
	if principal.User.ID != id && !principal.User.IsAdmin() {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile(formFieldAvatar)
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		writeError(w, http.StatusBadRequest, "avatar file too large")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "avatar must be an image")
		return
	}

	key, err := h.avatars.Put(r.Context(), user.ID, file, header.Size, contentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	user.AvatarKey = key
	if _, err := h.users.UpdateProfile(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"avatar_key": key})
}

// GetAvatar streams the stored avatar of the user.
func (h *AvatarHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user.AvatarKey == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	object, err := h.avatars.Get(r.Context(), user.AvatarKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch avatar")
		return
	}
	defer object.Close()

	if _, err := io.Copy(w, object); err != nil {
		// Response already started; nothing sensible left to send.
		return
	}
}
