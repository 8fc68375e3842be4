package session

import (
	"context"

	"board-tracker/internal/agent"
	"board-tracker/internal/errors"
	"board-tracker/internal/models"
)

// FetchLogs drains the agent journal into the session log view and returns
// the new entries.
func (s *Session) FetchLogs(ctx context.Context) ([]models.LogEntry, error) {
	if err := s.acquire(ActionLogs); err != nil {
		return nil, err
	}
	defer s.release(ActionLogs)

	entries, err := s.agent.GetLogger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.ErrSessionClosed
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("Log retrieval failed")
		return nil, err
	}

	s.logs = append(s.logs, entries...)
	out := make([]models.LogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// Logs returns every entry fetched in this session, oldest first.
func (s *Session) Logs() []models.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// ClearLogs empties the agent journal and the session log view.
func (s *Session) ClearLogs(ctx context.Context) error {
	if err := s.acquire(ActionLogs); err != nil {
		return err
	}
	defer s.release(ActionLogs)

	if err := s.agent.ClearLogger(ctx); err != nil {
		s.notifyFailure(ctx, agent.CmdClearLogger, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrSessionClosed
	}
	s.logs = nil
	return nil
}
