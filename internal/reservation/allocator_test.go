package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

var seededTables = memInventory{
	{ID: 1, Number: 1, Seats: 2},
	{ID: 2, Number: 2, Seats: 4},
	{ID: 3, Number: 3, Seats: 6},
	{ID: 4, Number: 4, Seats: 8},
}

func newTestAllocator(tables memInventory, now time.Time) (*Allocator, *memStore, *fakeClock) {
	clock := newFakeClock(now)
	store := newMemStore(clock)
	return NewAllocator(tables, store, clock, DefaultPolicy(), nil), store, clock
}

func TestAllocateNoCapacity(t *testing.T) {
	a, store, _ := newTestAllocator(seededTables, dinner.Add(-time.Hour))
	_, err := a.Allocate(context.Background(), Request{GuestName: "Big party", PartySize: 9, StartsAt: dinner})
	assert.ErrorIs(t, err, ErrNoCapacityAvailable)
	assert.Zero(t, store.count())
}

func TestAllocatePicksSmallestIDWithEnoughSeats(t *testing.T) {
	reversed := memInventory{seededTables[3], seededTables[2], seededTables[1], seededTables[0]}
	a, store, _ := newTestAllocator(reversed, dinner.Add(-time.Hour))

	got, err := a.Allocate(context.Background(), Request{GuestName: "Ana", PartySize: 3, StartsAt: dinner})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Table.ID)
	assert.GreaterOrEqual(t, int(got.Table.Seats), 3)
	assert.Equal(t, model.StatusConfirmed, got.Reservation.Status)
	assert.Equal(t, dinner, got.Reservation.StartsAt)
	assert.Equal(t, dinner.Add(2*time.Hour), got.Reservation.EndsAt)
	assert.Equal(t, uint32(2), got.Reservation.TableNumber)
	assert.Equal(t, 1, store.count())
}

func TestAllocateNeverUndersized(t *testing.T) {
	a, _, _ := newTestAllocator(seededTables, dinner.Add(-time.Hour))
	for size := 1; size <= 8; size++ {
		got, err := a.Allocate(context.Background(), Request{GuestName: "g", PartySize: size, StartsAt: dinner.Add(time.Duration(size) * 3 * time.Hour)})
		require.NoError(t, err, "party of %d", size)
		assert.GreaterOrEqual(t, int(got.Table.Seats), size)
	}
}

func TestAllocateRejectsBadPartySize(t *testing.T) {
	a, _, _ := newTestAllocator(seededTables, dinner.Add(-time.Hour))
	for _, size := range []int{0, -3} {
		_, err := a.Allocate(context.Background(), Request{PartySize: size, StartsAt: dinner})
		require.ErrorIs(t, err, ErrInvalidRequest)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "party_size", ve.Field)
	}
}

func TestAllocatePastGrace(t *testing.T) {
	now := dinner
	cases := []struct {
		name    string
		start   time.Time
		wantErr bool
	}{
		{"30s in the past", now.Add(-30 * time.Second), false},
		{"exactly at the grace edge", now.Add(-60 * time.Second), false},
		{"61s in the past", now.Add(-61 * time.Second), true},
		{"an hour in the past", now.Add(-time.Hour), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, _, _ := newTestAllocator(seededTables, now)
			_, err := a.Allocate(context.Background(), Request{GuestName: "g", PartySize: 2, StartsAt: tc.start})
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAllocateHalfOpenWindows(t *testing.T) {
	only := memInventory{{ID: 7, Number: 7, Seats: 4}}
	a, store, _ := newTestAllocator(only, dinner.Add(-6*time.Hour))
	store.seed(model.Reservation{TableID: 7, PartySize: 4, StartsAt: dinner, EndsAt: dinner.Add(2 * time.Hour), Status: model.StatusConfirmed})

	// Ends exactly when the existing one starts.
	_, err := a.Allocate(context.Background(), Request{PartySize: 2, StartsAt: dinner.Add(-2 * time.Hour)})
	assert.NoError(t, err)
	// Starts exactly when the existing one ends.
	_, err = a.Allocate(context.Background(), Request{PartySize: 2, StartsAt: dinner.Add(2 * time.Hour)})
	assert.NoError(t, err)
	// One minute of overlap.
	_, err = a.Allocate(context.Background(), Request{PartySize: 2, StartsAt: dinner.Add(119 * time.Minute)})
	assert.ErrorIs(t, err, ErrNoTableAvailable)
}

func TestAllocateSkipsBusyTable(t *testing.T) {
	a, store, _ := newTestAllocator(seededTables, dinner.Add(-time.Hour))
	store.seed(model.Reservation{TableID: 2, PartySize: 4, StartsAt: dinner, EndsAt: dinner.Add(2 * time.Hour), Status: model.StatusConfirmed})

	got, err := a.Allocate(context.Background(), Request{PartySize: 4, StartsAt: dinner.Add(30 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Table.ID)
}

func TestAllocateIgnoresVacatedReservations(t *testing.T) {
	only := memInventory{{ID: 2, Number: 2, Seats: 4}}
	for _, st := range []model.Status{model.StatusNoShow, model.StatusCancelledByGuest} {
		t.Run(string(st), func(t *testing.T) {
			a, store, _ := newTestAllocator(only, dinner.Add(-time.Hour))
			store.seed(model.Reservation{TableID: 2, PartySize: 4, StartsAt: dinner, EndsAt: dinner.Add(2 * time.Hour), Status: st})
			got, err := a.Allocate(context.Background(), Request{PartySize: 4, StartsAt: dinner})
			require.NoError(t, err)
			assert.Equal(t, uint64(2), got.Table.ID)
		})
	}
}

func TestStoreRejectsSecondBlockingStartOnTable(t *testing.T) {
	_, store, _ := newTestAllocator(seededTables, dinner.Add(-time.Hour))
	store.seed(model.Reservation{TableID: 2, PartySize: 2, StartsAt: dinner, EndsAt: dinner.Add(2 * time.Hour), Status: model.StatusCancelledByGuest})
	store.seed(model.Reservation{TableID: 2, PartySize: 2, StartsAt: dinner, EndsAt: dinner.Add(2 * time.Hour), Status: model.StatusNoShow})

	create := func() error {
		return store.WithTableLock(context.Background(), 2, func(tx TableTx) error {
			_, err := tx.Create(context.Background(), NewReservation{TableID: 2, PartySize: 2, StartsAt: dinner, EndsAt: dinner.Add(2 * time.Hour)})
			return err
		})
	}
	require.NoError(t, create())
	assert.ErrorIs(t, create(), ErrStorageConflict)
	assert.Equal(t, 3, store.count())
}

// The 18:00 confirmed booking holds table T until 18:15; after that a new
// overlapping booking may take T even though nobody marked a no-show.
func TestAllocateLatenessRelease(t *testing.T) {
	tables := memInventory{{ID: 1, Number: 1, Seats: 2}, {ID: 2, Number: 2, Seats: 4}}
	a, store, clock := newTestAllocator(tables, dinner.Add(5*time.Minute))
	store.seed(model.Reservation{TableID: 2, PartySize: 4, StartsAt: dinner, EndsAt: dinner.Add(2 * time.Hour), Status: model.StatusConfirmed})

	_, err := a.Allocate(context.Background(), Request{PartySize: 4, StartsAt: dinner.Add(10 * time.Minute)})
	assert.ErrorIs(t, err, ErrNoTableAvailable)

	clock.Set(dinner.Add(20 * time.Minute))
	got, err := a.Allocate(context.Background(), Request{PartySize: 4, StartsAt: dinner.Add(21 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Table.ID)
}

func TestAllocateCheckedInAlwaysBlocks(t *testing.T) {
	tables := memInventory{{ID: 2, Number: 2, Seats: 4}}
	a, store, clock := newTestAllocator(tables, dinner.Add(5*time.Minute))
	store.seed(model.Reservation{TableID: 2, PartySize: 4, StartsAt: dinner, EndsAt: dinner.Add(2 * time.Hour), Status: model.StatusCheckedIn})

	clock.Set(dinner.Add(20 * time.Minute))
	_, err := a.Allocate(context.Background(), Request{PartySize: 4, StartsAt: dinner.Add(21 * time.Minute)})
	assert.ErrorIs(t, err, ErrNoTableAvailable)
}

func TestAllocateRetriesNextTableOnStorageConflict(t *testing.T) {
	a, store, _ := newTestAllocator(seededTables, dinner.Add(-time.Hour))
	store.createErr = func(tableID uint64) error {
		if tableID == 2 {
			return ErrStorageConflict
		}
		return nil
	}
	got, err := a.Allocate(context.Background(), Request{PartySize: 4, StartsAt: dinner})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Table.ID)
	assert.Equal(t, 1, store.count())
}

func TestAllocateStorageConflictRetriesAreBounded(t *testing.T) {
	clock := newFakeClock(dinner.Add(-time.Hour))
	store := newMemStore(clock)
	attempts := 0
	store.createErr = func(uint64) error {
		attempts++
		return ErrStorageConflict
	}
	policy := DefaultPolicy()
	policy.MaxStorageConflicts = 2
	a := NewAllocator(seededTables, store, clock, policy, nil)

	_, err := a.Allocate(context.Background(), Request{PartySize: 1, StartsAt: dinner})
	assert.ErrorIs(t, err, ErrNoTableAvailable)
	assert.Equal(t, 2, attempts)
	assert.Zero(t, store.count())
}

func TestAllocatePropagatesStoreErrors(t *testing.T) {
	a, store, _ := newTestAllocator(seededTables, dinner.Add(-time.Hour))
	boom := errors.New("connection reset")
	store.createErr = func(uint64) error { return boom }
	_, err := a.Allocate(context.Background(), Request{PartySize: 2, StartsAt: dinner})
	assert.ErrorIs(t, err, boom)
}

func TestAllocateConcurrentRequestsForOneTable(t *testing.T) {
	only := memInventory{{ID: 5, Number: 5, Seats: 4}}
	a, store, _ := newTestAllocator(only, dinner.Add(-time.Hour))

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		busy      int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Allocate(context.Background(), Request{PartySize: 2, StartsAt: dinner.Add(time.Duration(i) * time.Minute)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrNoTableAvailable):
				busy++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, busy)
	assert.Equal(t, 1, store.count())
}

func TestAllocateHonoursCancelledContext(t *testing.T) {
	a, store, _ := newTestAllocator(seededTables, dinner.Add(-time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Allocate(ctx, Request{PartySize: 2, StartsAt: dinner})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.count())
}
