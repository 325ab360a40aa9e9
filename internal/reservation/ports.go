package reservation

import (
	"context"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// TableInventory is the read side of the table catalog.
type TableInventory interface {
	// ListByMinCapacity returns every table seating at least n guests,
	// ordered by ascending id.
	ListByMinCapacity(ctx context.Context, n int) ([]model.Table, error)
}

// NewReservation carries the values needed to insert a reservation.  New
// reservations always start in model.StatusConfirmed.
type NewReservation struct {
	GuestName string
	PartySize int
	TableID   uint64
	StartsAt  time.Time
	EndsAt    time.Time
}

// TableTx is the view of the store available while a table is locked.
type TableTx interface {
	// FindOverlapping returns reservations on tableID whose window
	// intersects [start, end) and whose status is not in exclude.
	FindOverlapping(ctx context.Context, tableID uint64, start, end time.Time, exclude []model.Status) ([]model.Reservation, error)
	// Create inserts a confirmed reservation.  It returns
	// ErrStorageConflict when a uniqueness guarantee rejects the row.
	Create(ctx context.Context, nr NewReservation) (model.Reservation, error)
}

// Query narrows ReservationStore.List.  Zero values mean "no constraint".
type Query struct {
	Status      model.Status
	StartsFrom  time.Time // inclusive
	StartsUntil time.Time // exclusive
	EndsAfter   time.Time // inclusive
}

// ReservationStore persists reservations.
type ReservationStore interface {
	// WithTableLock runs fn inside a storage transaction holding an
	// exclusive lock on tableID.  The transaction commits when fn returns
	// nil and rolls back otherwise; fn's error is returned unchanged.
	WithTableLock(ctx context.Context, tableID uint64, fn func(tx TableTx) error) error
	// Get returns ErrNotFound when id does not exist.
	Get(ctx context.Context, id string) (model.Reservation, error)
	// UpdateStatus sets the status to `to` only if it is currently `from`.
	// It returns ErrNotFound or ErrStaleStatus when the update did not apply.
	UpdateStatus(ctx context.Context, id string, from, to model.Status) (model.Reservation, error)
	// List returns reservations ordered by start ascending.
	List(ctx context.Context, q Query) ([]model.Reservation, error)
}

// EventSink is notified after reservation state has been committed.
// Implementations must not block for long; errors are logged by the caller.
type EventSink interface {
	ReservationCreated(ctx context.Context, r model.Reservation) error
	ReservationStatusChanged(ctx context.Context, r model.Reservation, previous model.Status) error
}

type nopSink struct{}

func (nopSink) ReservationCreated(context.Context, model.Reservation) error { return nil }
func (nopSink) ReservationStatusChanged(context.Context, model.Reservation, model.Status) error {
	return nil
}
