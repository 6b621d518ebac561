package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-social/apiserver/internal/services"
	"github.com/inkwell-social/apiserver/internal/store"
	"github.com/inkwell-social/apiserver/types"
)

// CommentHandler provides HTTP handlers for comment moderation.
type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// CommentRouter registers comment routes on the given router.
func CommentRouter(r chi.Router, handler *CommentHandler) {
	r.Route("/{commentID}", func(r chi.Router) {
		r.Get("/", handler.GetComment)
		moderate := RequirePermission(types.PermModerateComments)
		r.With(moderate).Put("/disable", handler.Disable)
		r.With(moderate).Put("/enable", handler.Enable)
	})
}

func (h *CommentHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.lookupComment(w, r)
	if !ok {
		return
	}

	principal := principalFromContext(r.Context())
	if comment.Disabled && !principal.Can(types.PermModerateComments) {
		comment.Body = ""
		comment.BodyHTML = ""
	}
	writeJSON(w, http.StatusOK, comment)
}

// Disable hides a comment from regular readers.
func (h *CommentHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, true)
}

// Enable restores a previously disabled comment.
func (h *CommentHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, false)
}

func (h *CommentHandler) moderate(w http.ResponseWriter, r *http.Request, disabled bool) {
	comment, ok := h.lookupComment(w, r)
	if !ok {
		return
	}

	if err := h.comments.Moderate(r.Context(), comment.ID, disabled); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to moderate comment")
		return
	}
	comment.Disabled = disabled
	writeJSON(w, http.StatusOK, comment)
}

func (h *CommentHandler) lookupComment(w http.ResponseWriter, r *http.Request) (types.Comment, bool) {
	id, err := parseIDParam(r, "commentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.Comment{}, false
	}

	comment, err := h.comments.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return types.Comment{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch comment")
		return types.Comment{}, false
	}
	return comment, true
}
