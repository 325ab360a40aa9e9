// Package reservation holds the booking rules: which table a new party
// gets, how a reservation moves between statuses, and how lateness is
// judged.  Storage and time are reached through the TableInventory,
// ReservationStore and Clock interfaces.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// statusAttempts bounds the read-validate-write loop of
// UpdateReservationStatus when the stored status keeps changing underneath.
const statusAttempts = 3

// Filter selects reservations for ListReservations.
type Filter struct {
	// Status keeps only reservations with this stored status when set.
	Status model.Status
	// Day keeps only reservations starting within [Day, Day+24h).  Callers
	// pass midnight in the restaurant's time zone.
	Day time.Time
	// IncludePast disables the default of hiding reservations whose window
	// has already ended.  It has no effect when Day is set.
	IncludePast bool
}

// Options configures a Service.  Zero values select defaults.
type Options struct {
	Policy Policy
	Sink   EventSink
	Logger *slog.Logger
}

// Service is the entry point used by the HTTP layer.  It combines the
// allocator with the lifecycle rules and notifies an EventSink of changes.
type Service struct {
	alloc  *Allocator
	store  ReservationStore
	clock  Clock
	policy Policy
	sink   EventSink
	log    *slog.Logger
}

// NewService builds a Service over the given inventory and store.
func NewService(tables TableInventory, store ReservationStore, clock Clock, opts Options) *Service {
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		alloc:  NewAllocator(tables, store, clock, opts.Policy, opts.Logger),
		store:  store,
		clock:  clock,
		policy: opts.Policy,
		sink:   opts.Sink,
		log:    opts.Logger,
	}
}

// Policy returns the timing rules in effect.
func (s *Service) Policy() Policy { return s.policy }

// CreateReservation allocates a table and persists a confirmed reservation.
func (s *Service) CreateReservation(ctx context.Context, req Request) (model.Reservation, error) {
	alloc, err := s.alloc.Allocate(ctx, req)
	if err != nil {
		return model.Reservation{}, err
	}
	r := alloc.Reservation
	s.log.Info("reservation created",
		"reservation_id", r.ID, "table_id", r.TableID, "party_size", r.PartySize, "starts_at", r.StartsAt)
	if err := s.sink.ReservationCreated(ctx, r); err != nil {
		s.log.Warn("publish reservation created", "reservation_id", r.ID, "error", err)
	}
	return r, nil
}

// UpdateReservationStatus moves a reservation to target if the lifecycle
// allows it from the currently stored status.  A check-in after the late
// tolerance succeeds but is logged as a warning.
func (s *Service) UpdateReservationStatus(ctx context.Context, id string, target model.Status) (model.Reservation, error) {
	if !target.Valid() {
		return model.Reservation{}, invalid("status", fmt.Sprintf("unknown status %q", target))
	}
	for range statusAttempts {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return model.Reservation{}, err
		}
		if err := CheckTransition(current.Status, target); err != nil {
			return model.Reservation{}, err
		}
		updated, err := s.store.UpdateStatus(ctx, id, current.Status, target)
		if errors.Is(err, ErrStaleStatus) {
			continue
		}
		if err != nil {
			return model.Reservation{}, err
		}
		if target == model.StatusCheckedIn {
			s.warnIfLate(current)
		}
		if err := s.sink.ReservationStatusChanged(ctx, updated, current.Status); err != nil {
			s.log.Warn("publish reservation status change", "reservation_id", id, "error", err)
		}
		return updated, nil
	}
	return model.Reservation{}, fmt.Errorf("update reservation %s: %w", id, ErrStaleStatus)
}

func (s *Service) warnIfLate(r model.Reservation) {
	now := s.clock.Now()
	if Derive(r.Status, r.StartsAt, now, s.policy.LateTolerance) != model.AdminOverdueReleasable {
		return
	}
	s.log.Warn("check-in after late tolerance",
		"reservation_id", r.ID,
		"starts_at", r.StartsAt,
		"late_by", now.Sub(r.StartsAt).Round(time.Second).String(),
		"tolerance", s.policy.LateTolerance.String())
}

// GetReservation returns one reservation with its derived admin status.
func (s *Service) GetReservation(ctx context.Context, id string) (model.ReservationView, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return model.ReservationView{}, err
	}
	return View(r, s.clock.Now(), s.policy.LateTolerance), nil
}

// ListReservations returns reservations matching f, ordered by start, each
// with its admin status computed at a single instant.
func (s *Service) ListReservations(ctx context.Context, f Filter) ([]model.ReservationView, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", f.Status))
	}
	now := s.clock.Now()
	q := Query{Status: f.Status}
	switch {
	case !f.Day.IsZero():
		q.StartsFrom = f.Day
		q.StartsUntil = f.Day.AddDate(0, 0, 1)
	case !f.IncludePast:
		q.EndsAfter = now
	}
	rows, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	views := make([]model.ReservationView, 0, len(rows))
	for _, r := range rows {
		views = append(views, View(r, now, s.policy.LateTolerance))
	}
	return views, nil
}
