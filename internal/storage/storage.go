// Package storage holds the screenshot stores: an S3-compatible object store
// and the local uploads directory fallback.
package storage

import (
	"context"
	"io"
)

// Remote stores uploaded images in an object store reachable by public URL.
type Remote interface {
	// Put uploads body under key and returns the public URL of the object.
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}
