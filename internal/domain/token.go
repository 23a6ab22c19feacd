package domain

import (
	"context"
	"time"
)

// Purposes of emailed action links. A link verified for one purpose is
// tracked separately from links of another purpose.
const (
	PurposeActivation    = "activation"
	PurposePasswordReset = "password-reset"
)

// TokenStore keeps the short-lived state that stateless tokens cannot carry:
// consumed action links and revoked access tokens.
type TokenStore interface {
	// MarkUsed records the link signature as consumed. It returns false when
	// it was already consumed.
	MarkUsed(ctx context.Context, purpose, signature string, ttl time.Duration) (bool, error)
	// Release forgets a consumed signature so the link can be used again.
	// It undoes MarkUsed when the action behind the link failed.
	Release(ctx context.Context, purpose, signature string) error
	IsUsed(ctx context.Context, purpose, signature string) (bool, error)
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
