package history

import (
	"context"
	"time"
)

// ListFilter narrows run listings.
type ListFilter struct {
	// ObjectType restricts to runs of one object type.
	ObjectType string

	// Since restricts to runs created at or after this time.
	Since time.Time

	// Limit caps the number of results (0 means no limit).
	Limit int
}

// Store persists simulation run records.
type Store interface {
	// Save persists a new record. Saving an existing id fails with
	// ErrRunExists.
	Save(ctx context.Context, rec *Record) error

	// Get retrieves a record by run id.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns summaries of stored runs, newest first.
	List(ctx context.Context, filter ListFilter) ([]Summary, error)

	// Delete removes a record by run id.
	Delete(ctx context.Context, id string) error

	// Close releases store resources.
	Close() error
}
