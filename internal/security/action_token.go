package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"blog-api/internal/domain"
)

// actionTokenKeySalt namespaces the HMAC key of action tokens so the same
// secret can sign other things. Changing it invalidates every issued link.
const actionTokenKeySalt = "blog.account.utils.LimitedLifeTokenGenerator"

// signatureStride keeps every second hex digit of the digest, which yields
// a 32 character signature.
const signatureStride = 2

const lastLoginLayout = "2006-01-02 15:04:05"

// tokenEpoch is the zero point of token timestamps.
var tokenEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

var ErrEmptySecret = errors.New("token secret must not be empty")

// TokenGenerator mints and verifies time-limited action tokens for emailed
// links (account activation, password reset). Tokens are not stored: a token
// is valid while it re-derives from the user's current state and is younger
// than the configured expiry.
//
// Token format: "<base36 seconds since 2001-01-01>-<32 hex chars>".
type TokenGenerator struct {
	key    []byte
	expiry time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenGenerator.
type TokenOption func(*TokenGenerator)

// WithClock replaces the wall clock used for minting and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(g *TokenGenerator) {
		g.now = now
	}
}

// NewTokenGenerator creates a generator signing with secret. Tokens older
// than expiry are rejected.
func NewTokenGenerator(secret string, expiry time.Duration, opts ...TokenOption) (*TokenGenerator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := sha256.Sum256([]byte(actionTokenKeySalt + secret))
	g := &TokenGenerator{
		key:    key[:],
		expiry: expiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Expiry returns the token lifetime.
func (g *TokenGenerator) Expiry() time.Duration {
	return g.expiry
}

// MakeToken returns a token for user valid from now.
func (g *TokenGenerator) MakeToken(user *domain.User) string {
	return g.makeTokenWithTimestamp(user, g.secondsSinceEpoch(g.now()))
}

// CheckToken reports whether token was issued for user's current state and
// has not expired. It never fails loudly; malformed tokens are just invalid.
func (g *TokenGenerator) CheckToken(user *domain.User, token string) bool {
	if user == nil || token == "" {
		return false
	}

	parts := strings.Split(token, "-")
	if len(parts) != 2 {
		return false
	}

	ts, err := Base36Decode(parts[0])
	if err != nil {
		return false
	}

	expected := g.makeTokenWithTimestamp(user, ts)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return false
	}

	age := g.secondsSinceEpoch(g.now()) - ts
	return age <= int64(g.expiry/time.Second)
}

// TokenSignature returns the signature half of a well-formed token, or ""
// when the token has no single separator.
func TokenSignature(token string) string {
	ts, sig, ok := strings.Cut(token, "-")
	if !ok || ts == "" || strings.Contains(sig, "-") {
		return ""
	}
	return sig
}

func (g *TokenGenerator) makeTokenWithTimestamp(user *domain.User, ts int64) string {
	// ts is never negative here: minted timestamps are after the epoch and
	// decoded ones come from the unsigned alphabet.
	encoded, _ := Base36Encode(ts)

	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(fingerprint(user, ts)))
	digest := hex.EncodeToString(mac.Sum(nil))

	var sig strings.Builder
	sig.Grow(len(digest) / signatureStride)
	for i := 0; i < len(digest); i += signatureStride {
		sig.WriteByte(digest[i])
	}

	return encoded + "-" + sig.String()
}

// fingerprint concatenates the user fields whose change revokes all
// outstanding tokens: setting a password or activating the account makes
// earlier links stop verifying.
func fingerprint(user *domain.User, ts int64) string {
	lastLogin := ""
	if user.LastLogin != nil {
		lastLogin = user.LastLogin.Format(lastLoginLayout)
	}

	var b strings.Builder
	b.WriteString(strconv.FormatInt(user.ID, 10))
	b.WriteString(user.HashedPassword)
	b.WriteString(lastLogin)
	b.WriteString(strconv.FormatInt(ts, 10))
	b.WriteString(user.Email)
	b.WriteString(titleBool(user.IsActive))
	return b.String()
}

// titleBool keeps the "True"/"False" rendering that already issued links
// were signed with.
func titleBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func (g *TokenGenerator) secondsSinceEpoch(t time.Time) int64 {
	return int64(t.Sub(tokenEpoch) / time.Second)
}
