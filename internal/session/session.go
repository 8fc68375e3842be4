// Package session owns one operator editing session: the draft Controller,
// the instrument catalog, the history ledger and the agent log view.
//
// Every call that crosses to the agent is gated by a per-action busy flag.
// The session lock is never held across an agent call, and results that
// arrive after Close are discarded.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"board-tracker/internal/agent"
	"board-tracker/internal/editor"
	"board-tracker/internal/errors"
	"board-tracker/internal/history"
	"board-tracker/internal/market"
	"board-tracker/internal/models"
	"board-tracker/internal/notify"
	"board-tracker/internal/security"
)

// Action names a busy gate.
type Action int

const (
	// ActionLifecycle is shared by start, stop, save, load, update and reset.
	ActionLifecycle Action = iota
	ActionInstruments
	ActionTicker
	ActionLogs
)

func (a Action) String() string {
	switch a {
	case ActionLifecycle:
		return "lifecycle"
	case ActionInstruments:
		return "instruments"
	case ActionTicker:
		return "ticker"
	case ActionLogs:
		return "logs"
	default:
		return "unknown"
	}
}

// Options configures a Session.
type Options struct {
	Logger   zerolog.Logger
	Notifier notify.Notifier
	Access   *security.AccessController
	Clock    func() time.Time
}

// Session is the explicit editing context passed to every operator action.
type Session struct {
	agent    agent.Agent
	logger   zerolog.Logger
	notifier notify.Notifier
	access   *security.AccessController
	now      func() time.Time

	mu       sync.Mutex
	draft    models.Controller
	catalog  *market.Catalog
	listed   models.ExchangeName // exchange the catalog was fetched for
	selected *models.Instrument
	ledger   *history.Ledger
	logs     []models.LogEntry
	busy     map[Action]bool
	closed   bool
}

// New creates a session with a default draft, an empty catalog and an empty
// ledger.
func New(a agent.Agent, opts Options) *Session {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Session{
		agent:    a,
		logger:   opts.Logger.With().Str("component", "session").Logger(),
		notifier: notifier,
		access:   opts.Access,
		now:      now,
		draft:    models.DefaultController(),
		catalog:  market.NewCatalog(),
		ledger:   history.NewLedger(),
		busy:     make(map[Action]bool),
	}
}

// Close tears the session down. Results of calls still in flight are
// discarded and later actions fail with errors.ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Busy reports whether a call of action a is outstanding.
func (s *Session) Busy(a Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[a]
}

func (s *Session) acquire(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrSessionClosed
	}
	if s.busy[a] {
		return errors.Wrapf(errors.ErrBusy, "%s", a)
	}
	s.busy[a] = true
	return nil
}

func (s *Session) release(a Action) {
	s.mu.Lock()
	delete(s.busy, a)
	s.mu.Unlock()
}

// Draft returns a copy of the draft Controller.
func (s *Session) Draft() models.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Edit applies one field edit to the draft.
func (s *Session) Edit(e editor.Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrSessionClosed
	}
	next, err := editor.Apply(s.draft, e)
	if err != nil {
		return err
	}
	s.draft = next
	return nil
}

// Visible reports whether f is shown for the draft's exchange.
func (s *Session) Visible(f editor.Field) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return editor.Visible(s.draft, f)
}

// Fields lists the fields shown for the draft's exchange.
func (s *Session) Fields() []editor.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return editor.Fields(s.draft)
}

// History returns the ledger entries, oldest first.
func (s *Session) History() []history.Entry {
	return s.ledger.List()
}

// Recall replaces the whole draft configuration, hidden fields included,
// with history entry i and settles side mirroring. The run flag stays as the
// agent last reported it.
func (s *Session) Recall(i int) error {
	entry, ok := s.ledger.At(i)
	if !ok {
		return errors.NewValidationError("history", i, "no such entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrSessionClosed
	}
	c := entry.Controller
	c.IsRunning = s.draft.IsRunning
	s.replaceDraft(c)
	s.logger.Info().Str("key", entry.Key).Msg("Recalled history entry")
	return nil
}

// replaceDraft swaps in c wholesale and re-resolves the selected
// instrument. Callers hold s.mu.
func (s *Session) replaceDraft(c models.Controller) {
	s.draft = editor.Settle(c)
	s.selected = nil
	if s.listed == s.draft.Exchange.Name {
		if inst, ok := s.catalog.Find(s.draft.Order.Symbol); ok {
			s.selected = &inst
		}
	}
}

func (s *Session) notifySuccess(ctx context.Context, title, message string) {
	if err := s.notifier.Send(ctx, notify.Success(title, message)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to send notification")
	}
}

func (s *Session) notifyFailure(ctx context.Context, title string, err error) {
	if nerr := s.notifier.Send(ctx, notify.Failure(title, err)); nerr != nil {
		s.logger.Warn().Err(nerr).Msg("Failed to send notification")
	}
}

// checkShape rejects a Controller no agent should have returned.
func checkShape(command string, c *models.Controller) error {
	if c == nil {
		return errors.NewAgentCallError(command, "malformed response", "empty controller", errors.ErrMalformed)
	}
	if err := c.CheckShape(); err != nil {
		return errors.NewAgentCallError(command, "malformed response", err.Error(), errors.ErrMalformed)
	}
	return nil
}
