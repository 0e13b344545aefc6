package session

import "time"

// LockState is the input state of a round.
type LockState int

const (
	// Accepting lets keystrokes through to the matcher.
	Accepting LockState = iota
	// Rejecting drops keystrokes until the cooldown after a miss elapses.
	Rejecting
)

func (s LockState) String() string {
	if s == Rejecting {
		return "rejecting"
	}
	return "accepting"
}

// Lockout is the two-state miss penalty. It holds no timer; callers pass the
// current time.
type Lockout struct {
	Cooldown time.Duration
	until    time.Time
}

// Trip enters Rejecting for one cooldown starting at now.
func (l *Lockout) Trip(now time.Time) {
	if l.Cooldown <= 0 {
		return
	}
	l.until = now.Add(l.Cooldown)
}

// State returns the state at now.
func (l *Lockout) State(now time.Time) LockState {
	if now.Before(l.until) {
		return Rejecting
	}
	return Accepting
}

// Remaining returns how long input stays blocked.
func (l *Lockout) Remaining(now time.Time) time.Duration {
	if d := l.until.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Clear returns to Accepting immediately.
func (l *Lockout) Clear() {
	l.until = time.Time{}
}

// TickDown advances the round countdown by one second. It never goes below
// zero.
func TickDown(timeRemaining int) int {
	if timeRemaining <= 0 {
		return 0
	}
	return timeRemaining - 1
}
