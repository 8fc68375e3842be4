package session

import (
	"context"

	"board-tracker/internal/editor"
	"board-tracker/internal/errors"
	"board-tracker/internal/logging"
	"board-tracker/internal/market"
	"board-tracker/internal/models"
)

const (
	kindInstruments = "instruments"
	kindTicker      = "ticker"
)

// SelectExchange sets the draft exchange and refreshes the instrument
// catalog. Enrichment failures are logged, never returned.
func (s *Session) SelectExchange(ctx context.Context, name string) error {
	if err := s.Edit(editor.Edit{Field: editor.ExchangeName, Value: name}); err != nil {
		return err
	}

	exchange := s.Draft().Exchange.Name
	if exchange == "" {
		return nil
	}
	_, err := s.FetchInstruments(ctx, exchange)
	logger := logging.WithExchange(s.logger, string(exchange))
	switch {
	case err == nil, errors.Is(err, errors.ErrSessionClosed):
	case errors.Is(err, errors.ErrBusy):
		logger.Debug().Msg("Instrument refresh already in progress")
	default:
		logger.Warn().Err(err).Msg("Instrument refresh failed")
	}
	return nil
}

// FetchInstruments replaces the catalog with the agent's instruments of
// exchange. On failure the previous catalog is kept.
func (s *Session) FetchInstruments(ctx context.Context, exchange models.ExchangeName) ([]models.Instrument, error) {
	if exchange == "" {
		return nil, errors.NewValidationError("exchange.name", "", "required")
	}
	if err := s.acquire(ActionInstruments); err != nil {
		return nil, err
	}
	defer s.release(ActionInstruments)

	requestedFor := s.Draft().Exchange.Name

	instruments, err := s.agent.GetInstruments(ctx, exchange)
	if err == nil {
		for _, inst := range instruments {
			if err = inst.CheckShape(); err != nil {
				err = errors.Wrap(errors.ErrMalformed, err.Error())
				break
			}
		}
	}
	if err != nil {
		return nil, errors.NewEnrichmentError(kindInstruments, string(exchange), "", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.ErrSessionClosed
	}
	if s.draft.Exchange.Name != requestedFor {
		return nil, errors.NewEnrichmentError(kindInstruments, string(exchange), "", errors.ErrStaleResponse)
	}

	s.catalog.Replace(instruments)
	s.listed = exchange
	s.selected = nil
	if inst, ok := s.catalog.Find(s.draft.Order.Symbol); ok && exchange == s.draft.Exchange.Name {
		s.selected = &inst
	}

	s.logger.Debug().Str("exchange", string(exchange)).Int("count", len(instruments)).Msg("Instrument catalog replaced")
	return s.catalog.List(), nil
}

// SelectSymbol sets the draft symbol, records the matching instrument and
// refreshes the board from the live ticker. Validation errors are returned;
// enrichment failures are only logged.
func (s *Session) SelectSymbol(ctx context.Context, symbol string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.ErrSessionClosed
	}
	next, err := editor.Apply(s.draft, editor.Edit{Field: editor.OrderSymbol, Value: symbol})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.draft = next
	s.selected = nil
	if s.listed == s.draft.Exchange.Name {
		if inst, ok := s.catalog.Find(next.Order.Symbol); ok {
			s.selected = &inst
		}
	}
	s.mu.Unlock()

	_, err = s.FetchTicker(ctx, next.Order.Symbol)
	switch {
	case err == nil:
		return nil
	case errors.IsValidation(err):
		return err
	case errors.Is(err, errors.ErrSessionClosed):
		return nil
	default:
		logger := logging.WithSymbol(logging.WithExchange(s.logger, string(next.Exchange.Name)), next.Order.Symbol)
		if errors.Is(err, errors.ErrBusy) {
			logger.Debug().Msg("Ticker refresh already in progress")
		} else {
			logger.Warn().Err(err).Msg("Ticker refresh failed")
		}
		return nil
	}
}

// FetchTicker derives the draft board from the live quote of symbol on the
// draft exchange. Both must be set; otherwise the agent is not called.
func (s *Session) FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error) {
	draft := s.Draft()

	errs := &errors.ValidationErrors{}
	if draft.Exchange.Name == "" {
		errs.Add("exchange.name", "", "required")
	}
	if symbol == "" {
		errs.Add("order.symbol", "", "required")
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	if err := s.acquire(ActionTicker); err != nil {
		return nil, err
	}
	defer s.release(ActionTicker)

	exchange := draft.Exchange.Name
	ticker, err := s.agent.GetTicker(ctx, exchange, symbol)
	if err == nil {
		if ticker == nil {
			err = errors.Wrap(errors.ErrMalformed, "empty ticker")
		} else if shapeErr := ticker.CheckShape(); shapeErr != nil {
			err = errors.Wrap(errors.ErrMalformed, shapeErr.Error())
		}
	}
	if err != nil {
		return nil, errors.NewEnrichmentError(kindTicker, string(exchange), symbol, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.ErrSessionClosed
	}
	if s.draft.Exchange.Name != exchange || s.draft.Order.Symbol != draft.Order.Symbol {
		return nil, errors.NewEnrichmentError(kindTicker, string(exchange), symbol, errors.ErrStaleResponse)
	}

	s.draft.Board = market.DeriveBoard(s.draft.Board, *ticker)
	s.logger.Debug().
		Str("exchange", string(exchange)).
		Str("symbol", symbol).
		Float64("hight", s.draft.Board.Hight).
		Float64("low", s.draft.Board.Low).
		Float64("size", s.draft.Board.Size).
		Msg("Board derived from ticker")

	out := *ticker
	return &out, nil
}

// Instruments returns the current catalog.
func (s *Session) Instruments() []models.Instrument {
	return s.catalog.List()
}

// SelectedInstrument returns the instrument matching the draft symbol, if any.
func (s *Session) SelectedInstrument() *models.Instrument {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	inst := *s.selected
	return &inst
}
