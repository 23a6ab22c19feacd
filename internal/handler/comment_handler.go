package handler

import (
	"net/http"

	"blog-api/internal/domain"
	"blog-api/internal/middleware"
	"blog-api/internal/service"

	"github.com/go-chi/chi/v5"
)

// CommentHandler serves comments and reactions
type CommentHandler struct {
	comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type CommentRequest struct {
	Body string `json:"body" validate:"required,max=600"`
}

// ReactionResponse reports the comment after a like or dislike toggle
type ReactionResponse struct {
	Comment *domain.Comment `json:"comment"`
	Action  domain.Reaction `json:"action"`
	Active  bool            `json:"active"`
}

func (h *CommentHandler) ListForPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	viewer, _ := middleware.UserFromContext(r.Context())
	comments, err := h.comments.ListForPost(r.Context(), viewer, postID, pageParams(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, comments)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.comments.Create(r.Context(), user, postID, req.Body)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, comment)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.comments.Update(r.Context(), user, id, req.Body)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, comment)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.comments.Delete(r.Context(), user, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// React toggles the {action} (like or dislike) of the caller on a comment
func (h *CommentHandler) React(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	action := domain.Reaction(chi.URLParam(r, "action"))
	comment, active, err := h.comments.React(r.Context(), user, id, action)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, ReactionResponse{Comment: comment, Action: action, Active: active})
}
