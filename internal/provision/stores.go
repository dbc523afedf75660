package provision

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned by ParamStore.Get when no record exists
// under the key. Callers treat it as "resource never created" or
// "already cleaned up", never as a hard failure during teardown.
var ErrRecordNotFound = errors.New("record not found")

// ParamStore is the durable key-value store holding ResourceRecords.
// The external store is the single source of truth: the Provisioner
// re-reads it on every run rather than caching across invocations.
type ParamStore interface {
	// Get returns the value under key, or ErrRecordNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Put creates or overwrites the value under key.
	Put(ctx context.Context, key, value string) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// SecretStore holds the unit's credential bundle. Upserts are driven by
// an existence probe so create vs update is decided per run.
type SecretStore interface {
	// Exists reports whether a secret with the name exists.
	Exists(ctx context.Context, name string) (bool, error)
	// Create creates a new secret with the value.
	Create(ctx context.Context, name, value string) error
	// Update replaces the value of an existing secret.
	Update(ctx context.Context, name, value string) error
	// Delete removes the secret without a recovery window. Deleting an
	// absent secret is not an error.
	Delete(ctx context.Context, name string) error
}
