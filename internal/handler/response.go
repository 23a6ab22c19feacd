package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"blog-api/internal/domain"
	"blog-api/internal/middleware"
	"blog-api/internal/observability"
	"blog-api/internal/security"
	"blog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// MessageResponse acknowledges requests that return no resource
type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, ErrorResponse{Error: message})
}

// respondServiceError maps domain errors to HTTP statuses. Anything unknown
// is logged and hidden behind a 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrTokenAlreadyUsed):
		// A consumed link reads the same as a bad one.
		respondError(w, r, http.StatusBadRequest, domain.ErrInvalidActionToken.Error())
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidActionToken),
		errors.Is(err, domain.ErrInvalidImage):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, security.ErrInvalidAccessToken):
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInactiveUser),
		errors.Is(err, domain.ErrForbidden):
		respondError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrPostNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrCommentNotFound):
		respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUsernameExists),
		errors.Is(err, domain.ErrEmailExists),
		errors.Is(err, domain.ErrPostTitleExists),
		errors.Is(err, domain.ErrCategoryExists):
		respondError(w, r, http.StatusConflict, err.Error())
	default:
		observability.FromContext(r.Context()).Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		respondError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON decodes the body into v and validates its struct tags. On
// failure the response has been written and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return validateRequest(w, r, v)
}

func validateRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		respondError(w, r, http.StatusBadRequest, "Invalid request")
		return false
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonFieldName(fe)] = validationMessage(fe)
	}
	respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: fields})
	return false
}

// jsonFieldName drops the root struct from the namespace, so nested fields
// read like "social.twitter"
func jsonFieldName(fe validator.FieldError) string {
	_, name, _ := strings.Cut(fe.Namespace(), ".")
	return name
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte", "lte":
		return fmt.Sprintf("is out of range (%s %s)", fe.Tag(), fe.Param())
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}

// idParam parses a positive integer URL parameter
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// pageParams reads skip and limit query parameters
func pageParams(r *http.Request) service.Page {
	q := r.URL.Query()
	skip, _ := strconv.Atoi(q.Get("skip"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return service.Page{Offset: skip, Limit: limit}.Normalize()
}

// currentUser returns the user set by middleware.Auth
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "Not authenticated")
	}
	return user, ok
}
