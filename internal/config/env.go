package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// missingError lists every required variable that was unset or empty.
type missingError []string

func (m missingError) Error() string {
	return "missing required env vars: " + strings.Join(m, ", ")
}

// required collects lookups of mandatory variables so Parse can report all
// of them at once instead of stopping at the first.
type required struct {
	missing missingError
	bad     []string
}

func (r *required) str(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		r.missing = append(r.missing, key)
		return ""
	}
	return v
}

func (r *required) err() error {
	if len(r.bad) > 0 {
		return fmt.Errorf("invalid env vars: %s", strings.Join(r.bad, "; "))
	}
	if len(r.missing) > 0 {
		return r.missing
	}
	return nil
}

func envStr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
		return dur
	}
	return d
}

// strictDur is envDur for values where silently falling back would change
// business rules.  Malformed values are reported through r.
func (r *required) strictDur(k string, d time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	dur, err := time.ParseDuration(v)
	if err != nil || dur < 0 {
		r.bad = append(r.bad, fmt.Sprintf("%s=%q is not a non-negative duration", k, v))
		return d
	}
	return dur
}

func (r *required) strictInt(k string, d int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.bad = append(r.bad, fmt.Sprintf("%s=%q is not an integer", k, v))
		return d
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
