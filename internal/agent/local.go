package agent

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"board-tracker/internal/errors"
	"board-tracker/internal/market"
	"board-tracker/internal/models"
	"board-tracker/internal/security"
	"board-tracker/internal/store"
)

// Refusal messages of the reference agent.
const (
	msgNotOK              = "controller is not ok, please check value"
	msgInvalid            = "controller is invalid"
	msgNotSaved           = "controller is not saved"
	msgWorkersNotFound    = "workers is not found"
	msgInstrumentsMissing = "instruments is not found"
	msgTickerMissing      = "ticker is not found"
	msgLoggerMissing      = "logger is not found"

	causeAlreadyRunning = "already running"
	causeNotRunning     = "runner is not running, please start runner"
	causeNotStarted     = "runner has not been started"
)

// LocalOptions configures a Local agent.
type LocalOptions struct {
	Feed   *market.Feed
	Store  store.ControllerStore // optional
	Logger zerolog.Logger
	Clock  func() time.Time
}

// Local is an in-process tracking agent. It keeps one Controller and a run
// flag; no order placement happens.
type Local struct {
	mu         sync.Mutex
	controller models.Controller
	feed       *market.Feed
	journal    *Journal
	store      store.ControllerStore
	logger     zerolog.Logger
}

// NewLocal creates a Local agent, restoring the stored Controller if any.
func NewLocal(ctx context.Context, opts LocalOptions) (*Local, error) {
	feed := opts.Feed
	if feed == nil {
		feed = market.NewFeed(nil)
	}

	l := &Local{
		controller: models.DefaultController(),
		feed:       feed,
		journal:    NewJournal(opts.Clock),
		store:      opts.Store,
		logger:     opts.Logger.With().Str("component", "local_agent").Logger(),
	}

	if l.store != nil {
		stored, err := l.store.LoadController(ctx)
		switch {
		case err == nil:
			l.controller = stored.Controller
			l.controller.IsRunning = false
			l.logger.Info().Time("updated_at", stored.UpdatedAt).Msg("Restored stored controller")
		case errors.Is(err, errors.ErrDataNotFound):
		default:
			return nil, fmt.Errorf("restoring controller: %w", err)
		}
	}

	return l, nil
}

var _ Agent = (*Local)(nil)

// Validation detail travels in cause only, so an in-process refusal
// classifies the same way as one decoded from HTTP.
func refuse(command string, status int, msg, cause string, err error) *errors.AgentCallError {
	if errors.IsValidation(err) {
		err = nil
	}
	e := errors.NewAgentCallError(command, msg, cause, err)
	e.Status = status
	return e
}

// readinessCause reports why c cannot run, using the section of the first
// failing field.
func readinessCause(c models.Controller) (string, error) {
	if c.IsRunning {
		return causeAlreadyRunning, nil
	}
	err := c.Validate()
	if err == nil {
		return "", nil
	}
	var verrs *errors.ValidationErrors
	if errors.As(err, &verrs) && len(verrs.Errors) > 0 {
		section, _, _ := strings.Cut(verrs.Errors[0].Field, ".")
		return section + " setting is empty", err
	}
	return err.Error(), err
}

// StartController sets the run flag and reopens the journal.
func (l *Local) StartController(ctx context.Context) (*models.Controller, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cause, err := readinessCause(l.controller); cause != "" {
		l.logger.Warn().Str("cause", cause).AnErr("validation", err).Msg("Start refused")
		return nil, refuse(CmdStartController, http.StatusConflict, msgNotOK, cause, err)
	}

	l.controller.IsRunning = true
	l.journal.Reset(models.LogLevelInfo, CmdStartController)
	l.journal.Add(models.LogLevelSuccess, fmt.Sprintf("tracking %s %s on %s",
		l.controller.Order.Side, l.controller.Order.Symbol, l.controller.Exchange.Name))

	l.logger.Info().Interface("controller", security.RedactController(l.controller)).Msg("Controller started")
	c := l.controller
	return &c, nil
}

// StopController clears the run flag.
func (l *Local) StopController(ctx context.Context) (*models.Controller, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.controller.IsRunning {
		return nil, refuse(CmdStopController, http.StatusConflict, msgWorkersNotFound, causeNotRunning, nil)
	}

	l.controller.IsRunning = false
	l.journal.Add(models.LogLevelInfo, CmdStopController)

	l.logger.Info().Msg("Controller stopped")
	c := l.controller
	return &c, nil
}

// GetController returns the current Controller.
func (l *Local) GetController(ctx context.Context) (*models.Controller, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.controller
	return &c, nil
}

// PostController replaces the Controller with a validated value.
func (l *Local) PostController(ctx context.Context, c models.Controller) (*models.Controller, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.controller.IsRunning {
		return nil, refuse(CmdPostController, http.StatusConflict, msgNotOK, causeAlreadyRunning, nil)
	}
	if err := c.CheckShape(); err != nil {
		return nil, refuse(CmdPostController, http.StatusBadRequest, msgInvalid, err.Error(), err)
	}
	c.IsRunning = false
	if cause, err := readinessCause(c); cause != "" {
		return nil, refuse(CmdPostController, http.StatusUnprocessableEntity, msgNotOK, cause, err)
	}

	return l.replace(ctx, CmdPostController, c)
}

// PutController replaces the Controller without the readiness check.
func (l *Local) PutController(ctx context.Context, c models.Controller) (*models.Controller, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.controller.IsRunning {
		return nil, refuse(CmdPutController, http.StatusConflict, msgNotOK, causeAlreadyRunning, nil)
	}
	if err := c.CheckShape(); err != nil {
		return nil, refuse(CmdPutController, http.StatusBadRequest, msgInvalid, err.Error(), err)
	}
	c.IsRunning = false

	return l.replace(ctx, CmdPutController, c)
}

// replace stores c. Callers hold l.mu.
func (l *Local) replace(ctx context.Context, command string, c models.Controller) (*models.Controller, error) {
	if l.store != nil {
		if err := l.store.SaveController(ctx, c); err != nil {
			return nil, refuse(command, http.StatusInternalServerError, msgNotSaved, err.Error(), err)
		}
	}
	l.controller = c

	l.logger.Info().Str("command", command).Interface("controller", security.RedactController(c)).Msg("Controller stored")
	out := c
	return &out, nil
}

// DeleteController resets the Controller to its default.
func (l *Local) DeleteController(ctx context.Context) (*models.Controller, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.controller.IsRunning {
		return nil, refuse(CmdDeleteController, http.StatusConflict, msgNotOK, causeAlreadyRunning, nil)
	}
	if l.store != nil {
		if err := l.store.DeleteController(ctx); err != nil {
			return nil, refuse(CmdDeleteController, http.StatusInternalServerError, msgNotSaved, err.Error(), err)
		}
	}

	l.controller = models.DefaultController()
	l.logger.Info().Msg("Controller reset")
	c := l.controller
	return &c, nil
}

// GetInstruments lists the feed's instruments of an exchange.
func (l *Local) GetInstruments(ctx context.Context, exchange models.ExchangeName) ([]models.Instrument, error) {
	instruments, err := l.feed.Instruments(exchange)
	if err != nil {
		return nil, refuse(CmdGetInstruments, http.StatusNotFound, msgInstrumentsMissing, err.Error(), err)
	}
	return instruments, nil
}

// GetTicker returns the feed's quote of a symbol.
func (l *Local) GetTicker(ctx context.Context, exchange models.ExchangeName, symbol string) (*models.Ticker, error) {
	if symbol == "" {
		return nil, refuse(CmdGetTicker, http.StatusNotFound, msgTickerMissing, "symbol is empty", nil)
	}
	ticker, err := l.feed.Ticker(exchange, symbol)
	if err != nil {
		return nil, refuse(CmdGetTicker, http.StatusNotFound, msgTickerMissing, err.Error(), err)
	}
	return ticker, nil
}

// GetLogger drains the journal.
func (l *Local) GetLogger(ctx context.Context) ([]models.LogEntry, error) {
	entries, ok := l.journal.Drain()
	if !ok {
		return nil, refuse(CmdGetLogger, http.StatusNotFound, msgLoggerMissing, causeNotStarted, errors.ErrDataNotFound)
	}
	return entries, nil
}

// ClearLogger closes the journal until the next start.
func (l *Local) ClearLogger(ctx context.Context) error {
	l.journal.Close()
	return nil
}
