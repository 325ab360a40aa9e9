package reservation

import (
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// transitions lists every allowed edge of the stored-status machine.
// confirmed is the only initial state and nothing moves back into it.
var transitions = map[model.Status][]model.Status{
	model.StatusConfirmed: {
		model.StatusCheckedIn,
		model.StatusNoShow,
		model.StatusCancelledByGuest,
	},
	// A guest may still cancel after being seated.
	model.StatusCheckedIn: {
		model.StatusCancelledByGuest,
	},
}

// CheckTransition returns nil when a reservation stored with status from may
// move to status to, and a *TransitionError otherwise.  Timing is not
// considered: a late check-in and an early no-show are both legal.
func CheckTransition(from, to model.Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

// Derive computes the admin status of a reservation at instant now.  It is
// pure and is the only place lateness is evaluated, for display and for
// allocation alike.  For a confirmed reservation both window edges are
// inclusive: eligible from start through start+tolerance.
func Derive(stored model.Status, start, now time.Time, tolerance time.Duration) model.AdminStatus {
	switch stored {
	case model.StatusConfirmed:
		deadline := start.Add(tolerance)
		switch {
		case now.Before(start):
			return model.AdminAwaitingTime
		case now.After(deadline):
			return model.AdminOverdueReleasable
		default:
			return model.AdminEligibleForCheckIn
		}
	case model.StatusCheckedIn:
		return model.AdminCheckInComplete
	default:
		return model.AdminStatus(stored)
	}
}

// Blocks reports whether an existing reservation still occupies its table at
// instant now.  A confirmed reservation past the lateness tolerance is
// treated as released even though nobody has marked it no_show yet.
func Blocks(r model.Reservation, now time.Time, tolerance time.Duration) bool {
	switch r.Status {
	case model.StatusCheckedIn:
		return true
	case model.StatusConfirmed:
		return Derive(r.Status, r.StartsAt, now, tolerance) != model.AdminOverdueReleasable
	default:
		return false
	}
}

// View attaches the derived admin status to a reservation.
func View(r model.Reservation, now time.Time, tolerance time.Duration) model.ReservationView {
	return model.ReservationView{
		Reservation: r,
		AdminStatus: Derive(r.Status, r.StartsAt, now, tolerance),
	}
}
