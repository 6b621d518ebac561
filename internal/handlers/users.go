package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-social/apiserver/internal/services"
	"github.com/inkwell-social/apiserver/internal/store"
	"github.com/inkwell-social/apiserver/types"
)

// UserHandler provides HTTP handlers for user profiles and the follow
// graph.
type UserHandler struct {
	users    *services.UserService
	follows  *services.FollowService
	posts    *services.PostService
	pageSize int
}

func NewUserHandler(users *services.UserService, follows *services.FollowService, posts *services.PostService, pageSize int) *UserHandler {
	return &UserHandler{users: users, follows: follows, posts: posts, pageSize: pageSize}
}

// UserRouter registers user routes on the given router. The caller has
// already applied the credential-resolving middleware.
func UserRouter(r chi.Router, handler *UserHandler) {
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Get("/posts", handler.ListUserPosts)
		r.Get("/timeline", handler.Timeline)
		r.Get("/followers", handler.ListFollowers)
		r.Get("/following", handler.ListFollowing)

		r.With(RequireAuthenticated).Put("/", handler.UpdateProfile)
		r.With(RequireAuthenticated).Delete("/", handler.DeleteUser)
		r.With(RequirePermission(types.PermFollow)).Post("/follow", handler.Follow)
		r.With(RequirePermission(types.PermFollow)).Delete("/follow", handler.Unfollow)
	})
}

// UserResponse is a user profile plus its follow counts. Both counts
// include the account's own self-follow edge.
type UserResponse struct {
	types.User
	FollowingCount int `json:"following_count"`
	FollowersCount int `json:"followers_count"`
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	following, followers, err := h.follows.Counts(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user, FollowingCount: following, FollowersCount: followers})
}

// UpdateProfile edits the profile fields. Allowed for the account owner
// and administrators.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	principal := principalFromContext(r.Context())
	if principal.User.ID != user.ID && !principal.User.IsAdmin() {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var req struct {
		Name     string `json:"name"`
		Location string `json:"location"`
		AboutMe  string `json:"about_me"`
		RoleID   *int   `json:"role_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	// Only administrators move accounts between roles.
	if req.RoleID != nil && !principal.User.IsAdmin() {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	user.Name = req.Name
	user.Location = req.Location
	user.AboutMe = req.AboutMe
	updated, err := h.users.UpdateProfile(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	if req.RoleID != nil {
		updated, err = h.users.AssignRole(r.Context(), user.ID, *req.RoleID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnprocessableEntity, "unknown role")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update profile")
			return
		}
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteUser removes an account. Administrators only. Follow edges,
// posts, and comments of the account cascade away with it.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	if !principal.User.IsAdmin() {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Follow makes the current user follow the target user.
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	target, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	principal := principalFromContext(r.Context())
	if err := h.follows.Follow(r.Context(), principal.User.ID, target.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to follow")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unfollow removes the current user's edge to the target user.
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	target, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	principal := principalFromContext(r.Context())
	if err := h.follows.Unfollow(r.Context(), principal.User.ID, target.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to unfollow")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FollowListResponse is a paginated list of follow edges.
type FollowListResponse struct {
	Items []types.Follow `json:"items"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func (h *UserHandler) ListFollowers(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, h.follows.ListFollowers)
}

func (h *UserHandler) ListFollowing(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, h.follows.ListFollowing)
}

func (h *UserHandler) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	page, limit, offset, err := parsePagination(r, h.pageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	posts, total, err := h.posts.ListByAuthor(r.Context(), user.ID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Items: posts, Page: page, Limit: limit, Total: total})
}

// Timeline lists posts authored by accounts the user follows.
func (h *UserHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	page, limit, offset, err := parsePagination(r, h.pageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	posts, total, err := h.posts.Timeline(r.Context(), user.ID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list timeline")
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Items: posts, Page: page, Limit: limit, Total: total})
}

type edgeLister func(ctx context.Context, userID, offset, limit int) ([]types.Follow, error)

func (h *UserHandler) listEdges(w http.ResponseWriter, r *http.Request, list edgeLister) {
	user, ok := h.lookupUser(w, r)
	if !ok {
		return
	}

	page, limit, offset, err := parsePagination(r, h.pageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	edges, err := list(r.Context(), user.ID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list follows")
		return
	}
	writeJSON(w, http.StatusOK, FollowListResponse{Items: edges, Page: page, Limit: limit})
}

func (h *UserHandler) lookupUser(w http.ResponseWriter, r *http.Request) (types.User, bool) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.User{}, false
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return types.User{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return types.User{}, false
	}
	return user, true
}
