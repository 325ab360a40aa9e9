package model

import "time"

// Status is the persisted state of a reservation.
type Status string

const (
	StatusConfirmed        Status = "confirmed"
	StatusCheckedIn        Status = "checked_in"
	StatusNoShow           Status = "no_show"
	StatusCancelledByGuest Status = "cancelled_by_guest"
)

// Valid reports whether s is one of the known stored statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCheckedIn, StatusNoShow, StatusCancelledByGuest:
		return true
	}
	return false
}

// Terminal reports whether s is an end state of the lifecycle.  Note that
// checked_in is terminal for check-in purposes but may still move to
// cancelled_by_guest.
func (s Status) Terminal() bool {
	return s == StatusCheckedIn || s == StatusNoShow || s == StatusCancelledByGuest
}

// Vacating reports whether a reservation in status s has released its table.
func (s Status) Vacating() bool {
	return s == StatusNoShow || s == StatusCancelledByGuest
}

// VacatingStatuses lists the statuses that never block a table.
func VacatingStatuses() []Status {
	return []Status{StatusCancelledByGuest, StatusNoShow}
}

// AdminStatus is the presentation-only classification shown to staff.  It is
// recomputed on every read and never stored.
type AdminStatus string

const (
	AdminAwaitingTime       AdminStatus = "awaiting_time"
	AdminEligibleForCheckIn AdminStatus = "eligible_for_checkin"
	AdminOverdueReleasable  AdminStatus = "overdue_releasable"
	AdminCheckInComplete    AdminStatus = "checkin_complete"
)

// Reservation is a booking of one table for a fixed service window.
//
// Fields:
//  ID          – UUID assigned on creation.
//  GuestName   – name the booking was made under.
//  PartySize   – number of guests, positive.
//  TableID     – table assigned at creation; never reassigned.
//  TableNumber – display number of the table (read via join).
//  StartsAt    – start of the service window (UTC).
//  EndsAt      – StartsAt plus the configured service duration.
//  Status      – stored lifecycle status.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last status change.
type Reservation struct {
	ID          string    `json:"id"`
	GuestName   string    `json:"guest_name"`
	PartySize   int       `json:"party_size"`
	TableID     uint64    `json:"table_id"`
	TableNumber uint32    `json:"table_number"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Overlaps reports whether the reservation window intersects [start, end)
// using half-open interval semantics.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.StartsAt.Before(end) && r.EndsAt.After(start)
}

// ReservationView pairs a reservation with its derived admin status.
type ReservationView struct {
	Reservation
	AdminStatus AdminStatus `json:"admin_status"`
}
