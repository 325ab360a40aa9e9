package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // distroless images ship without zoneinfo

	"github.com/iliyamo/restaurant-reservation/internal/reservation"
)

// ReservationConfig carries the booking rules and the restaurant's local
// time zone, used to interpret the date and time fields of requests.
type ReservationConfig struct {
	Policy   reservation.Policy
	Location *time.Location
	// OverdueInterval is how often the overdue watcher scans.  Zero
	// disables the watcher.
	OverdueInterval time.Duration
}

// LoadReservationConfig reads RESERVATION_* and RESTAURANT_TIMEZONE.
// Unset variables take the defaults of reservation.DefaultPolicy.
func LoadReservationConfig() (ReservationConfig, error) {
	def := reservation.DefaultPolicy()
	var r required
	cfg := ReservationConfig{
		Policy: reservation.Policy{
			ServiceDuration:     r.strictDur("RESERVATION_DURATION", def.ServiceDuration),
			LateTolerance:       r.strictDur("RESERVATION_LATE_TOLERANCE", def.LateTolerance),
			PastGrace:           r.strictDur("RESERVATION_PAST_GRACE", def.PastGrace),
			MaxStorageConflicts: r.strictInt("RESERVATION_MAX_STORAGE_CONFLICTS", def.MaxStorageConflicts),
		},
		OverdueInterval: r.strictDur("OVERDUE_SCAN_INTERVAL", time.Minute),
	}
	if err := r.err(); err != nil {
		return ReservationConfig{}, err
	}
	if cfg.Policy.ServiceDuration <= 0 {
		return ReservationConfig{}, fmt.Errorf("RESERVATION_DURATION must be positive")
	}
	if cfg.Policy.MaxStorageConflicts < 1 {
		cfg.Policy.MaxStorageConflicts = 1
	}

	tz := envStr("RESTAURANT_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return ReservationConfig{}, fmt.Errorf("RESTAURANT_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc
	return cfg, nil
}
