package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"blog-api/internal/observability"
	"blog-api/internal/security"
)

// CSRFConfig lists paths that skip the check
type CSRFConfig struct {
	ExemptPaths []string
}

// DefaultCSRFConfig exempts endpoints that carry no user state
func DefaultCSRFConfig() CSRFConfig {
	return CSRFConfig{
		ExemptPaths: []string{"/health", "/metrics"},
	}
}

// CSRF enforces the double-submit check for state-changing requests: the
// csrftoken cookie set at login must be echoed in the X-CSRFToken header.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) || isExemptPath(r.URL.Path, cfg.ExemptPaths) {
				next.ServeHTTP(w, r)
				return
			}

			var cookieToken string
			if cookie, err := r.Cookie(security.CSRFCookieName); err == nil {
				cookieToken = cookie.Value
			}
			headerToken := r.Header.Get(security.CSRFHeaderName)

			if err := security.VerifyCSRF(cookieToken, headerToken); err != nil {
				reason := csrfFailureReason(cookieToken, headerToken)
				observability.CSRFFailures.WithLabelValues(reason).Inc()
				logCSRFFailure(r, reason)
				writeError(w, r, http.StatusForbidden, err.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func isExemptPath(path string, exempt []string) bool {
	for _, p := range exempt {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func csrfFailureReason(cookieToken, headerToken string) string {
	switch {
	case cookieToken == "":
		return "missing_cookie"
	case headerToken == "":
		return "missing_header"
	default:
		return "mismatch"
	}
}

func logCSRFFailure(r *http.Request, reason string) {
	observability.FromContext(r.Context()).Warn("CSRF validation failed",
		slog.String("reason", reason),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
	)
}
