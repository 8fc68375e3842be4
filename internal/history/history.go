// Package history records the configurations the agent accepted on start.
//
// The ledger is append-only and session scoped. Duplicate keys are kept and
// entries are never looked up by key.
package history

import (
	"sync"
	"time"

	"board-tracker/internal/models"
)

// Entry is an immutable snapshot of an applied configuration.
type Entry struct {
	Key        string            `json:"key"`
	Controller models.Controller `json:"controller"`
	AppliedAt  time.Time         `json:"applied_at"`
}

// Key derives the identity key exchange:symbol:side.
func Key(c models.Controller) string {
	return string(c.Exchange.Name) + ":" + c.Order.Symbol + ":" + string(c.Order.Side)
}

// Ledger is an ordered record of applied configurations.
type Ledger struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append snapshots c and records it.
func (l *Ledger) Append(c models.Controller, at time.Time) Entry {
	e := Entry{
		Key:        Key(c),
		Controller: c,
		AppliedAt:  at,
	}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	return e
}

// List returns the entries oldest first. Each call returns a fresh slice.
func (l *Ledger) List() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// At returns the i-th entry.
func (l *Ledger) At(i int) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i < 0 || i >= len(l.entries) {
		return Entry{}, false
	}
	return l.entries[i], true
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
