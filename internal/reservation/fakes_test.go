package reservation

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// memInventory returns tables in the order given, filtered by capacity.
type memInventory []model.Table

func (m memInventory) ListByMinCapacity(_ context.Context, n int) ([]model.Table, error) {
	var out []model.Table
	for _, t := range m {
		if int(t.Seats) >= n {
			out = append(out, t)
		}
	}
	return out, nil
}

// memStore is an in-memory ReservationStore.  WithTableLock holds a
// per-table mutex and only commits rows created by fn when it succeeds.
type memStore struct {
	clock Clock

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
	rows  map[string]model.Reservation
	seq   int

	// createErr, when set, is consulted before every insert.
	createErr func(tableID uint64) error
	// beforeUpdate, when set, runs before every UpdateStatus.
	beforeUpdate func(s *memStore, id string) error
}

func newMemStore(clock Clock) *memStore {
	return &memStore{
		clock: clock,
		locks: make(map[uint64]*sync.Mutex),
		rows:  make(map[string]model.Reservation),
	}
}

func (s *memStore) tableLock(id uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// seed inserts a reservation directly, bypassing allocation.
func (s *memStore) seed(r model.Reservation) model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		s.seq++
		r.ID = fmt.Sprintf("seed-%d", s.seq)
	}
	s.rows[r.ID] = r
	return r
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *memStore) WithTableLock(ctx context.Context, tableID uint64, fn func(tx TableTx) error) error {
	l := s.tableLock(tableID)
	l.Lock()
	defer l.Unlock()
	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range tx.pending {
		s.rows[r.ID] = r
	}
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	return r, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id string, from, to model.Status) (model.Reservation, error) {
	if s.beforeUpdate != nil {
		if err := s.beforeUpdate(s, id); err != nil {
			return model.Reservation{}, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	if r.Status != from {
		return model.Reservation{}, ErrStaleStatus
	}
	r.Status = to
	r.UpdatedAt = s.clock.Now()
	s.rows[id] = r
	return r, nil
}

func (s *memStore) List(_ context.Context, q Query) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.rows {
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		if !q.StartsFrom.IsZero() && r.StartsAt.Before(q.StartsFrom) {
			continue
		}
		if !q.StartsUntil.IsZero() && !r.StartsAt.Before(q.StartsUntil) {
			continue
		}
		if !q.EndsAfter.IsZero() && r.EndsAt.Before(q.EndsAfter) {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b model.Reservation) int { return a.StartsAt.Compare(b.StartsAt) })
	return out, nil
}

type memTx struct {
	store   *memStore
	pending []model.Reservation
}

func (tx *memTx) FindOverlapping(_ context.Context, tableID uint64, start, end time.Time, exclude []model.Status) ([]model.Reservation, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	var out []model.Reservation
	for _, r := range tx.store.rows {
		if r.TableID != tableID || slices.Contains(exclude, r.Status) {
			continue
		}
		if r.StartsAt.Before(end) && r.EndsAt.After(start) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (tx *memTx) Create(_ context.Context, nr NewReservation) (model.Reservation, error) {
	if tx.store.createErr != nil {
		if err := tx.store.createErr(nr.TableID); err != nil {
			return model.Reservation{}, err
		}
	}
	tx.store.mu.Lock()
	// Mirrors the unique (table_id, blocking_start) key of the schema.
	for _, r := range slices.Concat(slices.Collect(maps.Values(tx.store.rows)), tx.pending) {
		if r.TableID == nr.TableID && r.StartsAt.Equal(nr.StartsAt) && !r.Status.Vacating() {
			tx.store.mu.Unlock()
			return model.Reservation{}, ErrStorageConflict
		}
	}
	tx.store.seq++
	id := fmt.Sprintf("res-%d", tx.store.seq)
	tx.store.mu.Unlock()
	now := tx.store.clock.Now()
	r := model.Reservation{
		ID:        id,
		GuestName: nr.GuestName,
		PartySize: nr.PartySize,
		TableID:   nr.TableID,
		StartsAt:  nr.StartsAt,
		EndsAt:    nr.EndsAt,
		Status:    model.StatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tx.pending = append(tx.pending, r)
	return r, nil
}

type recordingSink struct {
	mu      sync.Mutex
	created []model.Reservation
	changed []model.Status
	err     error
}

func (s *recordingSink) ReservationCreated(_ context.Context, r model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, r)
	return s.err
}

func (s *recordingSink) ReservationStatusChanged(_ context.Context, r model.Reservation, prev model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changed = append(s.changed, prev, r.Status)
	return s.err
}
