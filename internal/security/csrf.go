package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFHeaderName = "X-CSRFToken"

	// DefaultCSRFTokenBytes is used when the caller does not ask for a size.
	DefaultCSRFTokenBytes = 32
	// LoginCSRFTokenBytes is the entropy of the token minted at login.
	LoginCSRFTokenBytes = 64
	// DefaultCSRFMaxAge is the cookie lifetime in seconds.
	DefaultCSRFMaxAge = 3600
)

var ErrCSRFMismatch = errors.New("CSRF token missing or incorrect")

// GenerateCSRFToken returns nBytes of randomness encoded as unpadded
// URL-safe base64. Non-positive nBytes selects DefaultCSRFTokenBytes.
func GenerateCSRFToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = DefaultCSRFTokenBytes
	}

	randomBytes := make([]byte, nBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// VerifyCSRF checks the double-submitted pair. An absent half is rejected
// the same way as a mismatch.
func VerifyCSRF(cookieToken, headerToken string) error {
	if cookieToken == "" || headerToken == "" {
		return ErrCSRFMismatch
	}
	if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) != 1 {
		return ErrCSRFMismatch
	}
	return nil
}

// NewCSRFCookie builds the cookie carrying the CSRF token.
func NewCSRFCookie(value string, maxAge int) *http.Cookie {
	if maxAge <= 0 {
		maxAge = DefaultCSRFMaxAge
	}
	return &http.Cookie{
		Name:     CSRFCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearCSRFCookie builds a cookie that deletes the CSRF cookie on the client.
func ClearCSRFCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
