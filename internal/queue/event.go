// Package queue defines the reservation event payloads exchanged over
// RabbitMQ and the consumer that records them.
package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// EventType names a reservation event.
type EventType string

const (
	EventCreated       EventType = "reservation.created"
	EventStatusChanged EventType = "reservation.status_changed"
	// EventOverdue is emitted once when a confirmed reservation passes its
	// late tolerance without a check-in.
	EventOverdue EventType = "reservation.overdue"
)

// ReservationEvent carries enough of a reservation for consumers to log or
// notify without querying the database.  Times are RFC 3339 in UTC.
type ReservationEvent struct {
	Type           EventType    `json:"type"`
	ReservationID  string       `json:"reservation_id"`
	GuestName      string       `json:"guest_name,omitempty"`
	PartySize      int          `json:"party_size"`
	TableID        uint64       `json:"table_id"`
	TableNumber    uint32       `json:"table_number,omitempty"`
	StartsAt       string       `json:"starts_at"`
	EndsAt         string       `json:"ends_at"`
	Status         model.Status `json:"status"`
	PreviousStatus model.Status `json:"previous_status,omitempty"`
	OccurredAt     string       `json:"occurred_at"`
}

// NewReservationEvent snapshots r as an event of type typ.
func NewReservationEvent(typ EventType, r model.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          typ,
		ReservationID: r.ID,
		GuestName:     r.GuestName,
		PartySize:     r.PartySize,
		TableID:       r.TableID,
		TableNumber:   r.TableNumber,
		StartsAt:      r.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:        r.EndsAt.UTC().Format(time.RFC3339),
		Status:        r.Status,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}

// LogLine renders ev as a single human readable line ending in a newline.
func (ev ReservationEvent) LogLine() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | reservation_id=%s | table=%d | party=%d | starts_at=%s | status=%s",
		ev.OccurredAt, ev.Type, ev.ReservationID, ev.TableNumber, ev.PartySize, ev.StartsAt, ev.Status)
	if ev.PreviousStatus != "" {
		fmt.Fprintf(&b, " | previous=%s", ev.PreviousStatus)
	}
	if ev.GuestName != "" {
		fmt.Fprintf(&b, " | guest=%q", ev.GuestName)
	}
	b.WriteByte('\n')
	return b.String()
}
