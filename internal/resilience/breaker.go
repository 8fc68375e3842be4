// Package resilience guards the link to the tracking agent.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is the state of a Breaker.
type State string

const (
	Closed   State = "CLOSED"    // calls pass
	Open     State = "OPEN"      // calls are rejected until the cooldown ends
	HalfOpen State = "HALF_OPEN" // one probe is let through
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

// Config holds breaker settings.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	// Zero disables the breaker.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

// Breaker counts consecutive link failures and short-circuits calls once
// the agent looks unreachable.
type Breaker struct {
	name   string
	config Config
	now    func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	probing     bool
	openedAt    time.Time
	totalCalls  int64
	totalFailed int64
	rejected    int64
}

// New creates a closed breaker.
func New(name string, config Config) *Breaker {
	return &Breaker{name: name, config: config, now: time.Now, state: Closed}
}

// WithClock replaces the breaker's time source.
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.now = now
	return b
}

// Allow reports whether a call may proceed. Every allowed call must be
// followed by exactly one Success or Failure.
func (b *Breaker) Allow() error {
	if b == nil || b.config.FailureThreshold <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			b.rejected++
			return ErrOpen
		}
		b.state = HalfOpen
		b.probing = true
	case HalfOpen:
		if b.probing {
			b.rejected++
			return ErrOpen
		}
		b.probing = true
	}
	b.totalCalls++
	return nil
}

// Success records a call that reached the agent, whether or not the agent
// accepted the command.
func (b *Breaker) Success() {
	if b == nil || b.config.FailureThreshold <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.probing = false
	b.state = Closed
}

// Failure records a call that never reached the agent.
func (b *Breaker) Failure() {
	if b == nil || b.config.FailureThreshold <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalFailed++
	b.probing = false
	if b.state == HalfOpen {
		b.trip()
		return
	}
	b.failures++
	if b.failures >= b.config.FailureThreshold {
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.failures = 0
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats is a snapshot of breaker counters.
type Stats struct {
	Name     string
	State    State
	Calls    int64
	Failed   int64
	Rejected int64
}

// Stats returns the breaker counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{Name: b.name, State: b.state, Calls: b.totalCalls, Failed: b.totalFailed, Rejected: b.rejected}
}

// FailureRate returns failed calls as a percentage of allowed calls.
func (s Stats) FailureRate() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Failed) / float64(s.Calls) * 100
}
