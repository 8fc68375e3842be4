package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// ANSI colour codes.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

// TerminalNotifier writes notifications to a terminal stream.
type TerminalNotifier struct {
	mu           sync.Mutex
	out          io.Writer
	enabled      bool
	colorEnabled bool
	bellEnabled  bool
	timeFormat   string
}

// NewTerminalNotifier creates a TerminalNotifier writing to out.
func NewTerminalNotifier(out io.Writer, colorEnabled bool) *TerminalNotifier {
	return &TerminalNotifier{
		out:          out,
		enabled:      true,
		colorEnabled: colorEnabled,
		timeFormat:   "15:04:05",
	}
}

// SetBellEnabled enables or disables the terminal bell on errors.
func (tn *TerminalNotifier) SetBellEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.bellEnabled = enabled
}

// SetEnabled enables or disables the notifier.
func (tn *TerminalNotifier) SetEnabled(enabled bool) {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	tn.enabled = enabled
}

// Name returns the name of the notifier.
func (tn *TerminalNotifier) Name() string {
	return "terminal"
}

// IsEnabled returns whether the notifier is enabled.
func (tn *TerminalNotifier) IsEnabled() bool {
	tn.mu.Lock()
	defer tn.mu.Unlock()
	return tn.enabled
}

// Send writes one line for n.
func (tn *TerminalNotifier) Send(_ context.Context, n Notification) error {
	tn.mu.Lock()
	defer tn.mu.Unlock()

	if !tn.enabled {
		return nil
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	if tn.bellEnabled && n.Level == LevelError {
		fmt.Fprint(tn.out, "\a")
	}

	line := fmt.Sprintf("[%s] %s", n.Timestamp.Format(tn.timeFormat), n.Title)
	if n.Message != "" {
		line += ": " + n.Message
	}
	if tn.colorEnabled {
		line = levelColor(n.Level) + line + colorReset
	}

	_, err := fmt.Fprintln(tn.out, line)
	return err
}

func levelColor(level Level) string {
	switch level {
	case LevelSuccess:
		return colorGreen
	case LevelError:
		return colorRed
	default:
		return colorCyan
	}
}
