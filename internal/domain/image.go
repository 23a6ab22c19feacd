package domain

import (
	"context"
	"io"
)

// ImageStore keeps uploaded profile images addressed by key
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	// URL returns where clients can fetch the image stored under key.
	URL(key string) string
}
