package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/middleware"
	"blog-api/internal/observability"
	"blog-api/internal/security"
	"blog-api/internal/service"

	"github.com/go-chi/chi/v5"
)

// AuthHandler handles sign up, login and the emailed account links
type AuthHandler struct {
	auth       *service.AuthService
	users      *service.UserService
	csrfMaxAge int
}

func NewAuthHandler(auth *service.AuthService, users *service.UserService, csrfMaxAge int) *AuthHandler {
	return &AuthHandler{
		auth:       auth,
		users:      users,
		csrfMaxAge: csrfMaxAge,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Username    string        `json:"username" validate:"required,min=3,max=150"`
	Email       string        `json:"email" validate:"required,email,max=254"`
	Password    string        `json:"password" validate:"required,min=8,max=128"`
	FirstName   string        `json:"first_name" validate:"max=150"`
	LastName    string        `json:"last_name" validate:"max=150"`
	Gender      domain.Gender `json:"gender" validate:"omitempty,oneof=male female"`
	DateOfBirth string        `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	About       string        `json:"about" validate:"max=2000"`
	Social      SocialRequest `json:"social"`
}

type SocialRequest struct {
	Twitter   *string `json:"twitter" validate:"omitempty,url,max=255"`
	Facebook  *string `json:"facebook" validate:"omitempty,url,max=255"`
	Instagram *string `json:"instagram" validate:"omitempty,url,max=255"`
	LinkedIn  *string `json:"linkedin" validate:"omitempty,url,max=255"`
}

func (s SocialRequest) links() domain.SocialLinks {
	return domain.SocialLinks{
		Twitter:   s.Twitter,
		Facebook:  s.Facebook,
		Instagram: s.Instagram,
		LinkedIn:  s.LinkedIn,
	}
}

// LoginRequest follows the OAuth2 password grant field names
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Scope    string `json:"scope"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int64            `json:"expires_in"`
	Scope       string           `json:"scope"`
	User        *service.Profile `json:"user"`
}

type PasswordResetRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type PasswordResetConfirmRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    req.Gender,
		About:     req.About,
		Social:    req.Social.links(),
	}
	if req.DateOfBirth != "" {
		dob, _ := time.Parse(time.DateOnly, req.DateOfBirth)
		in.DateOfBirth = &dob
	}

	user, err := h.auth.Register(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, h.users.Profile(user))
}

// Activate follows the emailed activation link
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Activate(r.Context(), chi.URLParam(r, "uidb64"), chi.URLParam(r, "token"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, h.users.Profile(user))
}

// Login accepts a JSON body or an OAuth2 password grant form, returns a
// bearer token and sets the CSRF cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			respondError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		req = LoginRequest{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
			Scope:    r.PostForm.Get("scope"),
		}
		if !validateRequest(w, r, &req) {
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password, security.ParseScopes(req.Scope))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	csrfToken, err := security.GenerateCSRFToken(security.LoginCSRFTokenBytes)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	http.SetCookie(w, security.NewCSRFCookie(csrfToken, h.csrfMaxAge))

	respondJSON(w, r, http.StatusOK, TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   result.ExpiresIn,
		Scope:       strings.Join(result.Scopes, " "),
		User:        h.users.Profile(result.User),
	})
}

// Logout revokes the bearer token and clears the CSRF cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.auth.Logout(r.Context(), claims); err != nil {
		respondServiceError(w, r, err)
		return
	}

	http.SetCookie(w, security.ClearCSRFCookie())
	observability.FromContext(r.Context()).Info("user logged out", slog.String("jti", claims.ID))
	respondJSON(w, r, http.StatusOK, MessageResponse{Message: "Successfully logged out"})
}

// RequestPasswordReset emails a reset link to the account named by
// username or email
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Username, req.Email); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, MessageResponse{Message: "Password reset link sent"})
}

// CheckPasswordResetLink answers a followed reset link without consuming it
func (h *AuthHandler) CheckPasswordResetLink(w http.ResponseWriter, r *http.Request) {
	err := h.auth.CheckPasswordResetLink(r.Context(), chi.URLParam(r, "uidb64"), chi.URLParam(r, "token"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, MessageResponse{Message: "Link is valid"})
}

// ConfirmPasswordReset sets the new password carried in the body
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.auth.ConfirmPasswordReset(r.Context(), chi.URLParam(r, "uidb64"), chi.URLParam(r, "token"), req.NewPassword)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, MessageResponse{Message: "Password has been reset"})
}
