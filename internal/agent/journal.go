package agent

import (
	"sync"
	"time"

	"board-tracker/internal/models"
)

// Journal is the agent's log buffer. Reading drains it.
type Journal struct {
	mu      sync.Mutex
	entries []models.LogEntry
	open    bool
	now     func() time.Time
}

// NewJournal creates a closed journal; it opens on the first Reset.
func NewJournal(now func() time.Time) *Journal {
	if now == nil {
		now = time.Now
	}
	return &Journal{now: now}
}

// Reset opens the journal with a single entry.
func (j *Journal) Reset(level, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = []models.LogEntry{models.NewLogEntry(level, message, j.now())}
	j.open = true
}

// Add appends an entry. It is dropped while the journal is closed.
func (j *Journal) Add(level, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.open {
		return
	}
	j.entries = append(j.entries, models.NewLogEntry(level, message, j.now()))
}

// Drain returns the buffered entries and empties the buffer.
// ok is false while the journal is closed.
func (j *Journal) Drain() (entries []models.LogEntry, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.open {
		return nil, false
	}
	entries = j.entries
	j.entries = nil
	if entries == nil {
		entries = []models.LogEntry{}
	}
	return entries, true
}

// Close discards the buffer and closes the journal.
func (j *Journal) Close() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
	j.open = false
}
