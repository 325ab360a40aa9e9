// Package worker runs background jobs next to the HTTP server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/reservation"
)

// ReservationLister is the slice of reservation.Service the watcher reads.
type ReservationLister interface {
	ListReservations(ctx context.Context, f reservation.Filter) ([]model.ReservationView, error)
}

// OverdueNotifier is told about each reservation that became overdue.
type OverdueNotifier interface {
	ReservationOverdue(ctx context.Context, r model.Reservation) error
}

// OverdueWatcher periodically looks for confirmed reservations past their
// late tolerance and reports each one once, so staff can mark a no-show.
// It only observes; stored statuses are never changed.
type OverdueWatcher struct {
	list     ReservationLister
	notify   OverdueNotifier
	interval time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	reported map[string]struct{}
}

// NewOverdueWatcher returns a watcher scanning every interval.  notifier may
// be nil, in which case overdue reservations are only logged.
func NewOverdueWatcher(list ReservationLister, notifier OverdueNotifier, interval time.Duration, logger *slog.Logger) *OverdueWatcher {
	if list == nil {
		panic("nil ReservationLister passed to NewOverdueWatcher")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OverdueWatcher{
		list:     list,
		notify:   notifier,
		interval: interval,
		log:      logger,
		reported: make(map[string]struct{}),
	}
}

// Scan runs one pass and returns how many reservations were newly reported.
// A reservation whose notification fails is retried on the next pass.
func (w *OverdueWatcher) Scan(ctx context.Context) (int, error) {
	views, err := w.list.ListReservations(ctx, reservation.Filter{Status: model.StatusConfirmed})
	if err != nil {
		return 0, fmt.Errorf("list confirmed reservations: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	overdue := make(map[string]struct{}, len(views))
	reported := 0
	var errs []error
	for _, v := range views {
		if v.AdminStatus != model.AdminOverdueReleasable {
			continue
		}
		overdue[v.ID] = struct{}{}
		if _, done := w.reported[v.ID]; done {
			continue
		}
		w.log.Warn("reservation overdue, table releasable",
			"reservation_id", v.ID, "table_id", v.TableID, "starts_at", v.StartsAt)
		if w.notify != nil {
			if err := w.notify.ReservationOverdue(ctx, v.Reservation); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		w.reported[v.ID] = struct{}{}
		reported++
	}
	// Forget reservations that were resolved or have ended.
	for id := range w.reported {
		if _, still := overdue[id]; !still {
			delete(w.reported, id)
		}
	}
	return reported, errors.Join(errs...)
}

// Start schedules Scan every interval until ctx is cancelled or the
// returned stop function is called.  Overlapping runs are skipped.
func (w *OverdueWatcher) Start(ctx context.Context) (stop func() error, err error) {
	if w.interval <= 0 {
		return nil, errors.New("overdue watcher interval must be positive")
	}
	s, err := gocron.NewScheduler(gocron.WithLogger(slogAdapter{w.log}))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if n, err := w.Scan(ctx); err != nil {
				w.log.Error("overdue scan failed", "error", err)
			} else if n > 0 {
				w.log.Info("overdue scan reported reservations", "count", n)
			}
		}),
		gocron.WithName("overdue-watcher"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule overdue watcher: %w", err)
	}
	s.Start()
	w.log.Info("overdue watcher started", "interval", w.interval.String())
	return s.Shutdown, nil
}

// slogAdapter satisfies gocron.Logger.
type slogAdapter struct{ l *slog.Logger }

func (a slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
