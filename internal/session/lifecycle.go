package session

import (
	"context"
	"fmt"

	"board-tracker/internal/agent"
	"board-tracker/internal/errors"
	"board-tracker/internal/logging"
	"board-tracker/internal/market"
	"board-tracker/internal/models"
	"board-tracker/internal/security"
)

// Start asks the agent to run and adopts the Controller it confirms. The
// confirmed Controller is appended to the history ledger.
func (s *Session) Start(ctx context.Context) error {
	c, err := s.transition(ctx, security.OpStart, agent.CmdStartController, s.agent.StartController)
	if err != nil {
		return err
	}

	entry := s.ledger.Append(*c, s.now())
	s.logger.Debug().Str("key", entry.Key).Int("entries", s.ledger.Len()).Msg("History entry appended")
	s.notifySuccess(ctx, "Controller started", entry.Key)
	return nil
}

// Stop asks the agent to stop and adopts the Controller it confirms.
func (s *Session) Stop(ctx context.Context) error {
	c, err := s.transition(ctx, security.OpStop, agent.CmdStopController, s.agent.StopController)
	if err != nil {
		return err
	}
	s.notifySuccess(ctx, "Controller stopped", fmt.Sprintf("%s %s", c.Exchange.Name, c.Order.Symbol))
	return nil
}

// Load replaces the draft with the agent's current Controller.
func (s *Session) Load(ctx context.Context) error {
	if _, err := s.transition(ctx, security.OpRead, agent.CmdGetController, s.agent.GetController); err != nil {
		return err
	}
	s.notifySuccess(ctx, "Controller loaded", "")
	return nil
}

// Reset asks the agent to forget its Controller and adopts the default it
// returns.
func (s *Session) Reset(ctx context.Context) error {
	if _, err := s.transition(ctx, security.OpReset, agent.CmdDeleteController, s.agent.DeleteController); err != nil {
		return err
	}
	s.notifySuccess(ctx, "Controller reset", "")
	return nil
}

// transition runs one lifecycle command whose result replaces the draft.
// On any failure the draft is left exactly as it was.
func (s *Session) transition(ctx context.Context, op security.OperationType, command string,
	call func(context.Context) (*models.Controller, error)) (*models.Controller, error) {
	logger := logging.WithOperation(s.logger, command)

	if err := s.access.CheckPermission(op); err != nil {
		s.notifyFailure(ctx, command, err)
		return nil, err
	}
	if err := s.acquire(ActionLifecycle); err != nil {
		return nil, err
	}
	defer s.release(ActionLifecycle)

	c, err := call(ctx)
	if err == nil {
		err = checkShape(command, c)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		logger.Debug().Msg("Discarded result of closed session")
		return nil, errors.ErrSessionClosed
	}
	if err != nil {
		s.mu.Unlock()
		logger.Warn().Err(err).Msg("Agent refused command")
		s.notifyFailure(ctx, command, err)
		return nil, err
	}
	s.replaceDraft(*c)
	s.mu.Unlock()

	logging.LogTransition(logger, command, c.IsRunning, string(c.Exchange.Name), c.Order.Symbol)
	return c, nil
}

// Save validates the draft and submits it with post_controller. The run flag
// is never changed by a save.
func (s *Session) Save(ctx context.Context) error {
	return s.submit(ctx, security.OpSave, agent.CmdPostController, "Controller saved", s.agent.PostController)
}

// Update validates the draft and submits it with put_controller.
func (s *Session) Update(ctx context.Context) error {
	return s.submit(ctx, security.OpUpdate, agent.CmdPutController, "Controller updated", s.agent.PutController)
}

func (s *Session) submit(ctx context.Context, op security.OperationType, command, title string,
	call func(context.Context, models.Controller) (*models.Controller, error)) error {
	logger := logging.WithOperation(s.logger, command)

	if err := s.access.CheckPermission(op); err != nil {
		s.notifyFailure(ctx, command, err)
		return err
	}
	if err := s.acquire(ActionLifecycle); err != nil {
		return err
	}
	defer s.release(ActionLifecycle)

	s.mu.Lock()
	submitted := s.draft
	submitted.Order.TickSize = market.TickSize(s.selected)
	s.mu.Unlock()

	if err := submitted.Validate(); err != nil {
		logger.Debug().Err(err).Msg("Draft rejected before submission")
		s.notifyFailure(ctx, command, err)
		return err
	}

	logger.Debug().Interface("controller", security.RedactController(submitted)).Msg("Submitting controller")
	_, err := call(ctx, submitted)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.ErrSessionClosed
	}
	if err != nil {
		s.mu.Unlock()
		logger.Warn().Err(err).Msg("Agent refused controller")
		s.notifyFailure(ctx, command, err)
		return err
	}
	s.draft.Order.TickSize = submitted.Order.TickSize
	s.mu.Unlock()

	s.notifySuccess(ctx, title, fmt.Sprintf("%s %s", submitted.Exchange.Name, submitted.Order.Symbol))
	return nil
}
