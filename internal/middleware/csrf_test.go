package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"blog-api/internal/observability"
	"blog-api/internal/security"
	"blog-api/internal/testutil"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCSRF_SkipsSafeMethods(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
		t.Run(method, func(t *testing.T) {
			called := false
			handler := CSRF(DefaultCSRFConfig())(okHandler(&called))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/users/me", nil))

			assert.True(t, called)
			testutil.AssertStatusCode(t, w, http.StatusOK)
		})
	}
}

func TestCSRF_SkipsExemptPaths(t *testing.T) {
	called := false
	handler := CSRF(DefaultCSRFConfig())(okHandler(&called))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health/ready", nil))

	assert.True(t, called)
}

func TestCSRF_DoubleSubmit(t *testing.T) {
	tests := []struct {
		name       string
		cookie     string
		header     string
		wantStatus int
		reason     string
	}{
		{"matching pair", "tok123", "tok123", http.StatusOK, ""},
		{"missing cookie", "", "tok123", http.StatusForbidden, "missing_cookie"},
		{"missing header", "tok123", "", http.StatusForbidden, "missing_header"},
		{"mismatch", "tok123", "tok124", http.StatusForbidden, "mismatch"},
		{"both missing", "", "", http.StatusForbidden, "missing_cookie"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before float64
			if tt.reason != "" {
				before = promtestutil.ToFloat64(observability.CSRFFailures.WithLabelValues(tt.reason))
			}

			called := false
			handler := CSRF(DefaultCSRFConfig())(okHandler(&called))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: security.CSRFCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(security.CSRFHeaderName, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if tt.wantStatus == http.StatusOK {
				assert.True(t, called)
				testutil.AssertStatusCode(t, w, http.StatusOK)
				return
			}

			assert.False(t, called)
			testutil.AssertJSONError(t, w, http.StatusForbidden, "CSRF token missing or incorrect")
			after := promtestutil.ToFloat64(observability.CSRFFailures.WithLabelValues(tt.reason))
			assert.Equal(t, before+1, after)
		})
	}
}
