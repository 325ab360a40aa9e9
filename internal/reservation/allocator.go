package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// Policy holds the timing rules shared by allocation and status handling.
type Policy struct {
	// ServiceDuration is the fixed length of every reservation window.
	ServiceDuration time.Duration
	// LateTolerance is how long after its start a confirmed reservation
	// keeps holding its table without a check-in.
	LateTolerance time.Duration
	// PastGrace absorbs client/server clock skew: a start this far in the
	// past is still accepted.
	PastGrace time.Duration
	// MaxStorageConflicts bounds how many candidate tables are retried
	// after the store rejects an insert with ErrStorageConflict.
	MaxStorageConflicts int
}

// DefaultPolicy returns the restaurant's standard rules: two hour service,
// fifteen minute tolerance, one minute grace.
func DefaultPolicy() Policy {
	return Policy{
		ServiceDuration:     2 * time.Hour,
		LateTolerance:       15 * time.Minute,
		PastGrace:           60 * time.Second,
		MaxStorageConflicts: 3,
	}
}

// Request is a new reservation request as accepted by the core.
type Request struct {
	GuestName string
	PartySize int
	StartsAt  time.Time
}

// Allocation is the result of a successful Allocate call.
type Allocation struct {
	Table       model.Table
	Reservation model.Reservation
}

// errTableBusy aborts a table transaction that found a real conflict.
var errTableBusy = errors.New("table has a blocking reservation")

// Allocator assigns tables to new reservations.
type Allocator struct {
	tables TableInventory
	store  ReservationStore
	clock  Clock
	policy Policy
	log    *slog.Logger
}

// NewAllocator wires an Allocator.  All collaborators must be non-nil; a nil
// logger falls back to slog.Default().
func NewAllocator(tables TableInventory, store ReservationStore, clock Clock, policy Policy, logger *slog.Logger) *Allocator {
	if tables == nil || store == nil || clock == nil {
		panic("nil dependency passed to NewAllocator")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{tables: tables, store: store, clock: clock, policy: policy, log: logger}
}

// Allocate validates req, picks the first table (by ascending id) with
// enough seats and no real conflict in [start, start+ServiceDuration), and
// creates a confirmed reservation on it.  The overlap check and the insert
// run inside one WithTableLock call so concurrent requests for the same
// table are serialized by the store.
func (a *Allocator) Allocate(ctx context.Context, req Request) (Allocation, error) {
	if err := a.validate(req, a.clock.Now()); err != nil {
		return Allocation{}, err
	}
	start := req.StartsAt.UTC()
	end := start.Add(a.policy.ServiceDuration)

	candidates, err := a.tables.ListByMinCapacity(ctx, req.PartySize)
	if err != nil {
		return Allocation{}, fmt.Errorf("list tables for party of %d: %w", req.PartySize, err)
	}
	candidates = slices.DeleteFunc(candidates, func(t model.Table) bool { return !t.Fits(req.PartySize) })
	if len(candidates) == 0 {
		return Allocation{}, ErrNoCapacityAvailable
	}
	slices.SortFunc(candidates, func(x, y model.Table) int {
		switch {
		case x.ID < y.ID:
			return -1
		case x.ID > y.ID:
			return 1
		}
		return 0
	})

	limit := max(a.policy.MaxStorageConflicts, 1)
	conflicts := 0
	for _, table := range candidates {
		if err := ctx.Err(); err != nil {
			return Allocation{}, err
		}
		created, err := a.tryTable(ctx, table, req, start, end)
		switch {
		case err == nil:
			if created.TableNumber == 0 {
				created.TableNumber = table.Number
			}
			return Allocation{Table: table, Reservation: created}, nil
		case errors.Is(err, errTableBusy):
			continue
		case errors.Is(err, ErrStorageConflict):
			conflicts++
			a.log.Info("reservation insert rejected by store, trying next table",
				"table_id", table.ID, "starts_at", start, "conflicts", conflicts)
			if conflicts >= limit {
				return Allocation{}, ErrNoTableAvailable
			}
		default:
			return Allocation{}, err
		}
	}
	return Allocation{}, ErrNoTableAvailable
}

func (a *Allocator) tryTable(ctx context.Context, table model.Table, req Request, start, end time.Time) (model.Reservation, error) {
	var created model.Reservation
	err := a.store.WithTableLock(ctx, table.ID, func(tx TableTx) error {
		existing, err := tx.FindOverlapping(ctx, table.ID, start, end, model.VacatingStatuses())
		if err != nil {
			return fmt.Errorf("find overlapping reservations on table %d: %w", table.ID, err)
		}
		// Lateness is judged once the lock is held.
		now := a.clock.Now()
		for _, r := range existing {
			if r.Overlaps(start, end) && Blocks(r, now, a.policy.LateTolerance) {
				return errTableBusy
			}
		}
		created, err = tx.Create(ctx, NewReservation{
			GuestName: strings.TrimSpace(req.GuestName),
			PartySize: req.PartySize,
			TableID:   table.ID,
			StartsAt:  start,
			EndsAt:    end,
		})
		return err
	})
	return created, err
}

func (a *Allocator) validate(req Request, now time.Time) error {
	if req.PartySize <= 0 {
		return invalid("party_size", "must be a positive integer")
	}
	if req.StartsAt.IsZero() {
		return invalid("starts_at", "is required")
	}
	if req.StartsAt.Before(now.Add(-a.policy.PastGrace)) {
		return invalid("starts_at", "must not be in the past")
	}
	return nil
}
