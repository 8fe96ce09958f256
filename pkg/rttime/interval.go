// Package rttime provides a monotonic periodic tick with configurable
// missed-tick behavior, the building block workers use for periodic bodies
// and the thread runtime uses for spawn_periodic.
package rttime

import "time"

// MissedTickBehavior controls how Interval catches up after the caller
// falls behind its deadline.
type MissedTickBehavior int

const (
	// Burst advances the deadline by exactly one period, so a caller that
	// fell behind ticks immediately on the next calls until it catches up.
	Burst MissedTickBehavior = iota
	// Delay phase-shifts the deadline to now + period.
	Delay
	// Skip advances the deadline by whole periods until it is back ahead
	// of now, dropping the intervening ticks entirely.
	Skip
)

// Interval is a periodic tick with a missed-tick policy.
type Interval struct {
	period   time.Duration
	deadline time.Time
	started  bool
	missed   MissedTickBehavior
}

// New returns an Interval with the given period and the default (Burst)
// missed-tick behavior.
func New(period time.Duration) *Interval {
	return &Interval{period: period}
}

// SetMissedTickBehavior configures how the interval catches up when a tick
// is observed late; returns the receiver for chaining.
func (iv *Interval) SetMissedTickBehavior(b MissedTickBehavior) *Interval {
	iv.missed = b
	return iv
}

// Tick blocks until the next deadline (sleeping if necessary) and reports
// whether the tick was honored on time. The first call always returns true
// and establishes the first deadline.
func (iv *Interval) Tick() bool {
	now := time.Now()
	if !iv.started {
		iv.started = true
		iv.deadline = now.Add(iv.period)
		return true
	}

	switch {
	case now.Before(iv.deadline):
		time.Sleep(iv.deadline.Sub(now))
		iv.deadline = iv.deadline.Add(iv.period)
		return true
	case now.Equal(iv.deadline):
		iv.deadline = iv.deadline.Add(iv.period)
		return true
	default:
		iv.applyMissed(now)
		return false
	}
}

func (iv *Interval) applyMissed(now time.Time) {
	switch iv.missed {
	case Delay:
		iv.deadline = now.Add(iv.period)
	case Skip:
		for !iv.deadline.After(now) {
			iv.deadline = iv.deadline.Add(iv.period)
		}
	default: // Burst
		iv.deadline = iv.deadline.Add(iv.period)
	}
}

// Fits reports whether every timestamp in ts falls within window of the
// first one — a small assertion helper test harnesses use to check that a
// burst of events landed close together.
func Fits(window time.Duration, ts ...time.Time) bool {
	if len(ts) == 0 {
		return true
	}
	min, max := ts[0], ts[0]
	for _, t := range ts[1:] {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	return max.Sub(min) <= window
}
