package handler

import (
	"net/http"
	"strconv"

	"blog-api/internal/domain"
	"blog-api/internal/middleware"
	"blog-api/internal/service"
)

// PostHandler serves posts and their categories
type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// PostRequest is the body of post create and update
type PostRequest struct {
	Title      string   `json:"title" validate:"required,max=512"`
	Body       string   `json:"body"`
	Tags       []string `json:"tags" validate:"omitempty,max=50,dive,required,max=30"`
	CategoryID *int64   `json:"category_id" validate:"omitempty,gt=0"`
	Rating     int      `json:"rating" validate:"gte=0,lte=5"`
	IsPublish  bool     `json:"is_publish"`
}

func (req PostRequest) input() service.PostInput {
	return service.PostInput{
		Title:      req.Title,
		Body:       req.Body,
		Tags:       req.Tags,
		CategoryID: req.CategoryID,
		Rating:     req.Rating,
		IsPublish:  req.IsPublish,
	}
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// List supports ?category=, ?tag=, ?owner=, ?skip= and ?limit=
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := pageParams(r)
	filter := domain.PostFilter{
		Tag:    q.Get("tag"),
		Offset: page.Offset,
		Limit:  page.Limit,
	}

	for name, dst := range map[string]*int64{"category": &filter.CategoryID, "owner": &filter.OwnerID} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			respondError(w, r, http.StatusBadRequest, "Invalid "+name)
			return
		}
		*dst = v
	}

	viewer, _ := middleware.UserFromContext(r.Context())
	posts, err := h.posts.List(r.Context(), viewer, filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, posts)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	viewer, _ := middleware.UserFromContext(r.Context())
	post, err := h.posts.Get(r.Context(), viewer, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, post)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.posts.Create(r.Context(), user, req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.posts.Update(r.Context(), user, id, req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), user, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.posts.ListCategories(r.Context(), pageParams(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, categories)
}

func (h *PostHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	category, err := h.posts.GetCategory(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, category)
}

func (h *PostHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.posts.CreateCategory(r.Context(), user, req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, category)
}
