package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-social/apiserver/internal/services"
	"github.com/inkwell-social/apiserver/internal/store"
	"github.com/inkwell-social/apiserver/types"
)

// AuthHandler provides registration, login, and the token-guarded
// account workflows: confirmation, password reset, email change.
type AuthHandler struct {
	users    *services.UserService
	accounts *services.AccountService
	reader   services.AccountReader
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, accounts *services.AccountService, reader services.AccountReader) *AuthHandler {
	return &AuthHandler{users: users, accounts: accounts, reader: reader}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler, auth *Authenticator) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/reset", handler.RequestPasswordReset)
	r.Put("/reset", handler.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(auth.Resolve, RequireAuthenticated)
		r.Post("/confirm", handler.Confirm)
		r.Post("/confirm/resend", handler.ResendConfirmation)
		r.Post("/password", handler.ChangePassword)
		r.Post("/change-email", handler.RequestEmailChange)
		r.Put("/change-email", handler.ChangeEmail)
	})
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// Register creates a new account and queues the confirmation mail.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	result, err := services.ValidateRegistration(r.Context(), h.reader, req.Email, req.Username, req.Password, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if !result.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost a race with a concurrent registration.
			writeError(w, http.StatusConflict, "email or username already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	if err := h.accounts.RequestConfirmation(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to send confirmation")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login verifies credentials and returns an API token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, valid, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.accounts.IssueAPIToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// IssueToken mints an API access token for the current account.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	token, err := h.accounts.IssueAPIToken(principal.User)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Confirm validates a confirmation token for the current account.
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	principal := principalFromContext(r.Context())
	confirmed, err := h.accounts.Confirm(r.Context(), principal.User, req.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to confirm account")
		return
	}
	if !confirmed {
		writeError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"confirmed": true})
}

// ResendConfirmation queues a fresh confirmation mail.
func (h *AuthHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	if principal.User.Confirmed {
		writeJSON(w, http.StatusOK, map[string]bool{"confirmed": true})
		return
	}
	if err := h.accounts.RequestConfirmation(r.Context(), principal.User); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to send confirmation")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ChangePassword replaces the password after checking the old one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new password is required")
		return
	}

	principal := principalFromContext(r.Context())
	changed, err := h.users.ChangePassword(r.Context(), principal.User, req.OldPassword, req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}
	if !changed {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": true})
}

// RequestPasswordReset queues a reset mail when the address is known.
// The response never reveals whether the address is registered.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.accounts.RequestPasswordReset(r.Context(), strings.TrimSpace(req.Email)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to request reset")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ResetPassword sets a new password guarded by a reset token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new password is required")
		return
	}

	reset, err := h.accounts.ResetPassword(r.Context(), strings.TrimSpace(req.Email), req.Token, req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}
	if !reset {
		writeError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

// RequestEmailChange issues an email-change token after re-checking the
// requester's password, and mails it to the new address.
func (h *AuthHandler) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
		NewEmail string `json:"new_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	principal := principalFromContext(r.Context())
	if !services.VerifyPassword(principal.User.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	result, err := h.accounts.RequestEmailChange(r.Context(), principal.User, strings.TrimSpace(req.NewEmail))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to request email change")
		return
	}
	if !result.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ChangeEmail rewrites the account email guarded by a change token.
func (h *AuthHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	principal := principalFromContext(r.Context())
	changed, err := h.accounts.ChangeEmail(r.Context(), principal.User, req.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to change email")
		return
	}
	if !changed {
		writeError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": true})
}
