package handler

import (
	"errors"
	"net/http"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/security"
	"blog-api/internal/service"
)

// multipartOverhead leaves room for form boundaries around the image part
const multipartOverhead = 64 << 10

// UserHandler serves the /users resources
type UserHandler struct {
	users         *service.UserService
	posts         *service.PostService
	comments      *service.CommentService
	maxImageBytes int64
}

func NewUserHandler(users *service.UserService, posts *service.PostService, comments *service.CommentService, maxImageBytes int64) *UserHandler {
	return &UserHandler{
		users:         users,
		posts:         posts,
		comments:      comments,
		maxImageBytes: maxImageBytes,
	}
}

// UpdateMeRequest is a partial profile update; omitted fields are kept
type UpdateMeRequest struct {
	Email       *string        `json:"email" validate:"omitempty,email,max=254"`
	FirstName   *string        `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string        `json:"last_name" validate:"omitempty,max=150"`
	Gender      *domain.Gender `json:"gender"`
	DateOfBirth *string        `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	About       *string        `json:"about" validate:"omitempty,max=2000"`
	Social      *SocialRequest `json:"social"`
}

func (req UpdateMeRequest) update() domain.UserUpdate {
	upd := domain.UserUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    req.Gender,
		About:     req.About,
	}
	if req.DateOfBirth != nil {
		dob, _ := time.Parse(time.DateOnly, *req.DateOfBirth)
		upd.DateOfBirth = &dob
	}
	if req.Social != nil {
		links := req.Social.links()
		upd.Social = &links
	}
	return upd
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, h.users.Profile(user))
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateMeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.users.UpdateMe(r.Context(), user, req.update())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.users.Profile(updated))
}

// DeleteMe removes the account and ends the browser session
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.users.DeleteMe(r.Context(), user); err != nil {
		respondServiceError(w, r, err)
		return
	}

	http.SetCookie(w, security.ClearCSRFCookie())
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage takes the "image" part of a multipart form
func (h *UserHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+multipartOverhead)
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		respondError(w, r, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	updated, err := h.users.UploadImage(r.Context(), user, file)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.users.Profile(updated))
}

// MyPosts lists the caller's posts including drafts
func (h *UserHandler) MyPosts(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page := pageParams(r)
	posts, err := h.posts.List(r.Context(), user, domain.PostFilter{
		OwnerID: user.ID,
		Offset:  page.Offset,
		Limit:   page.Limit,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, posts)
}

// MyComments lists the caller's comments, or with ?rate=liked|disliked the
// comments the caller reacted to
func (h *UserHandler) MyComments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	comments, err := h.comments.ListForUser(r.Context(), user.ID, r.URL.Query().Get("rate"), pageParams(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, comments)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), pageParams(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	profiles := make([]*service.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, h.users.Profile(u))
	}
	respondJSON(w, r, http.StatusOK, profiles)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.users.Profile(user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), actor, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
