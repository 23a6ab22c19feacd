package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidAccessToken = errors.New("invalid access token")

// AccessClaims are the claims of a bearer access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID int64    `json:"uid"`
	Scopes []string `json:"scopes"`
}

// HasScope reports whether the token grants scope.
func (c *AccessClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// JWTIssuer signs and parses HS256 access tokens.
type JWTIssuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewJWTIssuer(secret string, validity time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &JWTIssuer{
		secret:   []byte(secret),
		validity: validity,
		now:      time.Now,
	}, nil
}

// Validity returns how long issued tokens stay valid.
func (i *JWTIssuer) Validity() time.Duration {
	return i.validity
}

// Issue returns a signed token for the user and its claims.
func (i *JWTIssuer) Issue(userID int64, username string, scopes []string) (string, *AccessClaims, error) {
	now := i.now()
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		UserID: userID,
		Scopes: scopes,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign access token: %w", err)
	}
	return signed, claims, nil
}

// Parse validates the signature and expiry of tokenString.
func (i *JWTIssuer) Parse(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}
