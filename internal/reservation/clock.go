package reservation

import "time"

// Clock supplies the current time.  Production code uses RealClock; tests
// inject a fixed or stepping clock so lateness rules are deterministic.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }
