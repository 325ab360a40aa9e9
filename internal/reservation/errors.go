package reservation

import (
	"errors"
	"fmt"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

var (
	// ErrInvalidRequest covers malformed party sizes, starts in the past and
	// unknown statuses.  It is never retried.
	ErrInvalidRequest = errors.New("invalid reservation request")
	// ErrNoCapacityAvailable means no table has enough seats for the party.
	ErrNoCapacityAvailable = errors.New("no table with enough seats")
	// ErrNoTableAvailable means tables with enough seats exist but every one
	// of them is occupied during the requested window.
	ErrNoTableAvailable = errors.New("no table available for the requested time")
	// ErrInvalidTransition is matched by *TransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotFound is returned when a reservation id does not exist.
	ErrNotFound = errors.New("reservation not found")
	// ErrStorageConflict is returned by a store when its atomicity guarantee
	// rejected a concurrent write.
	ErrStorageConflict = errors.New("storage conflict")
	// ErrStaleStatus is returned by ReservationStore.UpdateStatus when the
	// stored status no longer matches the expected one.
	ErrStaleStatus = errors.New("reservation status changed concurrently")
)

// ValidationError describes a rejected request field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// TransitionError reports a status change the lifecycle does not allow.
type TransitionError struct {
	From model.Status
	To   model.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move reservation from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
