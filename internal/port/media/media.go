// Package media defines the media store port (interface) for listing
// image hosting.
package media

import (
	"context"
	"io"
)

// Asset is a stored media object.
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Store is the port interface for external media hosting.
type Store interface {
	// Upload stores a file and returns its public URL and ID.
	Upload(ctx context.Context, name string, r io.Reader) (*Asset, error)

	// Delete removes a stored object. Callers treat failures as
	// non-fatal: they are logged, never surfaced as request failures.
	Delete(ctx context.Context, publicID string) error
}
