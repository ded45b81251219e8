package user

import (
	"context"
	"errors"
)

// Store sentinel errors. Implementations return these for the conditions the
// orchestrator branches on; anything else is treated as an unexpected store
// failure.
var (
	ErrNotFound            = errors.New("user: not found")
	ErrDuplicateEmail      = errors.New("user: email already exists")
	ErrDuplicateExternalID = errors.New("user: external id already exists")
)

// Store is the persistence contract for local user records.
type Store interface {
	// Save inserts a new record and returns it with the assigned ID.
	Save(ctx context.Context, u User) (User, error)
	FindByExternalID(ctx context.Context, externalID string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Update replaces the mutable fields of the record keyed by ExternalID.
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, externalID string) error
	// List returns one page ordered by ID plus the total record count.
	List(ctx context.Context, offset, limit int) ([]User, int64, error)
}
