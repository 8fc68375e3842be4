// Package agent defines the command boundary to the tracking agent and its
// implementations: an HTTP client and an in-process reference agent.
package agent

import (
	"context"

	"board-tracker/internal/models"
)

// Command names as the agent knows them.
const (
	CmdStartController  = "start_controller"
	CmdStopController   = "stop_controller"
	CmdGetController    = "get_controller"
	CmdPostController   = "post_controller"
	CmdPutController    = "put_controller"
	CmdDeleteController = "delete_controller"
	CmdGetInstruments   = "get_instruments"
	CmdGetTicker        = "get_ticker"
	CmdGetLogger        = "get_logger"
	CmdClearLogger      = "clear_logger"
)

// Agent is the tracking agent as seen by the operator.
// Failures are reported as *errors.AgentCallError.
type Agent interface {
	StartController(ctx context.Context) (*models.Controller, error)
	StopController(ctx context.Context) (*models.Controller, error)
	GetController(ctx context.Context) (*models.Controller, error)
	// PostController submits a validated Controller; the ack echoes the stored value.
	PostController(ctx context.Context, c models.Controller) (*models.Controller, error)
	PutController(ctx context.Context, c models.Controller) (*models.Controller, error)
	// DeleteController resets the agent to the default Controller.
	DeleteController(ctx context.Context) (*models.Controller, error)

	GetInstruments(ctx context.Context, exchange models.ExchangeName) ([]models.Instrument, error)
	GetTicker(ctx context.Context, exchange models.ExchangeName, symbol string) (*models.Ticker, error)

	// GetLogger drains the agent's journal.
	GetLogger(ctx context.Context) ([]models.LogEntry, error)
	ClearLogger(ctx context.Context) error
}

// ErrorBody is the error payload exchanged with the agent.
type ErrorBody struct {
	Msg   string `json:"msg"`
	Cause string `json:"cause"`
}
