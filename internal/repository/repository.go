// Package repository implements persistence for event records.
//
// The store contract mirrors a single-item conditional-write key-value
// store: point lookups, an unconditional put, an atomic conditional update,
// an atomic compound conditional delete, a paginated scan, and one
// secondary-index query by organizer. Correctness of concurrent writes to
// the same event is delegated entirely to the store's per-item atomicity;
// there is no in-process locking.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shivanand-hulikatti/events-manager/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConditionFailed is returned when a conditional write's condition did
// not hold. It carries no further detail: the primitive cannot distinguish
// a missing record from a condition mismatch.
var ErrConditionFailed = errors.New("conditional check failed")

// EventStore is the persistence port consumed by the service layer.
type EventStore interface {
	// Insert writes a full event record. The id is freshly generated by
	// the caller, so no prior record can collide.
	Insert(ctx context.Context, event model.Event) error

	// GetByID returns the event or ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.Event, error)

	// List scans up to limit events in the store's native key order,
	// starting after startKey when given. It returns the next
	// continuation key, or "" when the scan may be exhausted.
	List(ctx context.Context, limit int, startKey string) ([]model.Event, string, error)

	// ListByOrganizer returns every event owned by the organizer,
	// unpaginated, via the secondary index.
	ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error)

	// UpdateIfOwner atomically applies the patch and stamps updatedAt,
	// but only if the stored record's organizer equals requesterID. It
	// returns the full post-update record, or ErrConditionFailed when
	// the record is missing or owned by someone else.
	UpdateIfOwner(ctx context.Context, id, requesterID string, patch model.EventPatch, updatedAt time.Time) (*model.Event, error)

	// DeleteIfOwnerAndUnregistered atomically deletes the record, but
	// only if the requester owns it and no attendees are registered.
	// Any precondition failure, including a missing record, is
	// ErrConditionFailed.
	DeleteIfOwnerAndUnregistered(ctx context.Context, id, requesterID string) error
}
