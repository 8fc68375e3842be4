package tui

import (
	"context"
	"sync"

	"board-tracker/internal/notify"
)

// StatusLine is the notification channel shown at the bottom of the editor.
// It keeps only the latest notification.
type StatusLine struct {
	mu   sync.Mutex
	last *notify.Notification
}

// NewStatusLine creates an empty status line.
func NewStatusLine() *StatusLine {
	return &StatusLine{}
}

func (s *StatusLine) Name() string {
	return "status_line"
}

func (s *StatusLine) IsEnabled() bool {
	return true
}

// Send replaces the shown notification.
func (s *StatusLine) Send(_ context.Context, n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &n
	return nil
}

// Last returns the shown notification.
func (s *StatusLine) Last() (notify.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return notify.Notification{}, false
	}
	return *s.last, true
}

// Clear hides the shown notification.
func (s *StatusLine) Clear() {
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
}
