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

// PostHandler provides HTTP handlers for posts and their comments.
type PostHandler struct {
	posts    *services.PostService
	comments *services.CommentService
	pageSize int
}

func NewPostHandler(posts *services.PostService, comments *services.CommentService, pageSize int) *PostHandler {
	return &PostHandler{posts: posts, comments: comments, pageSize: pageSize}
}

// PostRouter registers post routes on the given router. Reads are open
// to anonymous principals; writes are permission-gated.
func PostRouter(r chi.Router, handler *PostHandler) {
	r.Get("/", handler.ListPosts)
	r.With(RequirePermission(types.PermWriteArticles)).Post("/", handler.CreatePost)

	r.Route("/{postID}", func(r chi.Router) {
		r.Get("/", handler.GetPost)
		r.With(RequireAuthenticated).Put("/", handler.UpdatePost)
		r.With(RequireAuthenticated).Delete("/", handler.DeletePost)

		r.Get("/comments", handler.ListComments)
		r.With(RequirePermission(types.PermComment)).Post("/comments", handler.CreateComment)
	})
}

// PostListResponse is the paginated post list payload.
type PostListResponse struct {
	Items []types.Post `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

type PostRequest struct {
	Body string `json:"body"`
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r, h.pageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	posts, total, err := h.posts.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Items: posts, Page: page, Limit: limit, Total: total})
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	body, ok := decodePostBody(w, r)
	if !ok {
		return
	}

	principal := principalFromContext(r.Context())
	post, err := h.posts.Create(r.Context(), principal.User.ID, body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create post")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// UpdatePost edits a post. Allowed for the author and administrators.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}

	principal := principalFromContext(r.Context())
	if principal.User.ID != post.AuthorID && !principal.User.IsAdmin() {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	body, ok := decodePostBody(w, r)
	if !ok {
		return
	}

	updated, err := h.posts.Update(r.Context(), post, body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update post")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeletePost removes a post. Allowed for the author and administrators.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}

	principal := principalFromContext(r.Context())
	if principal.User.ID != post.AuthorID && !principal.User.IsAdmin() {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	if err := h.posts.Delete(r.Context(), post.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CommentListResponse is the paginated comment list payload.
type CommentListResponse struct {
	Items []types.Comment `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}

func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}

	page, limit, offset, err := parsePagination(r, h.pageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comments, total, err := h.comments.ListByPost(r.Context(), post.ID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}

	// Disabled comments stay listed but lose their body unless the
	// requester can moderate.
	principal := principalFromContext(r.Context())
	if !principal.Can(types.PermModerateComments) {
		for i := range comments {
			if comments[i].Disabled {
				comments[i].Body = ""
				comments[i].BodyHTML = ""
			}
		}
	}

	writeJSON(w, http.StatusOK, CommentListResponse{Items: comments, Page: page, Limit: limit, Total: total})
}

func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	post, ok := h.lookupPost(w, r)
	if !ok {
		return
	}

	body, ok := decodePostBody(w, r)
	if !ok {
		return
	}

	principal := principalFromContext(r.Context())
	comment, err := h.comments.Create(r.Context(), principal.User.ID, post.ID, body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create comment")
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *PostHandler) lookupPost(w http.ResponseWriter, r *http.Request) (types.Post, bool) {
	id, err := parseIDParam(r, "postID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.Post{}, false
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return types.Post{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch post")
		return types.Post{}, false
	}
	return post, true
}

func decodePostBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return "", false
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return "", false
	}
	return body, true
}
