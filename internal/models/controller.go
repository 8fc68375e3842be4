package models

import (
	"math"

	"board-tracker/internal/errors"
)

// Exchange holds the target exchange and its API credentials.
type Exchange struct {
	Name       ExchangeName `json:"name"`
	Key        string       `json:"key"`
	Secret     string       `json:"secret"`
	Passphrase string       `json:"passphrase,omitempty"`
	Category   string       `json:"category,omitempty"`
}

// Board is the order book window the agent watches.
// Hight keeps the agent's wire spelling.
type Board struct {
	Side  BookSide `json:"side"`
	Hight float64  `json:"hight"`
	Low   float64  `json:"low"`
	Size  float64  `json:"size"`
}

// Order holds the parameters of the tracking order.
type Order struct {
	Symbol      string    `json:"symbol"`
	Side        OrderSide `json:"side"`
	Size        float64   `json:"size"`
	IsPostOnly  bool      `json:"is_post_only"`
	TickSize    float64   `json:"tick_size"`
	IntervalSec int64     `json:"interval_sec"`
}

// Controller is the complete tracking configuration plus the run flag.
// It holds no references, so plain assignment copies it.
type Controller struct {
	IsRunning bool     `json:"is_running"`
	Exchange  Exchange `json:"exchange"`
	Board     Board    `json:"board"`
	Order     Order    `json:"order"`
}

// Default editor values.
const (
	DefaultBoardHight  = 15_000_000
	DefaultBoardLow    = DefaultBoardHight * 0.9
	DefaultBoardSize   = 100
	DefaultOrderSize   = 100
	DefaultIntervalSec = 5
)

// DefaultController returns the configuration a fresh editor starts from.
func DefaultController() Controller {
	return Controller{
		IsRunning: false,
		Exchange:  Exchange{},
		Board: Board{
			Side:  BookSideAsk,
			Hight: DefaultBoardHight,
			Low:   DefaultBoardLow,
			Size:  DefaultBoardSize,
		},
		Order: Order{
			Symbol:      "",
			Side:        OrderSideSell,
			Size:        DefaultOrderSize,
			IsPostOnly:  true,
			TickSize:    0,
			IntervalSec: DefaultIntervalSec,
		},
	}
}

// Validate checks the configuration before it is submitted to the agent.
// Every failing field is reported.
func (c Controller) Validate() error {
	errs := &errors.ValidationErrors{}

	switch {
	case c.Exchange.Name == "":
		errs.Add("exchange.name", c.Exchange.Name, "required")
	case !c.Exchange.Name.IsValid():
		errs.Add("exchange.name", c.Exchange.Name, "unsupported exchange")
	}
	if c.Exchange.Key == "" {
		errs.Add("exchange.key", "", "required")
	}
	if c.Exchange.Secret == "" {
		errs.Add("exchange.secret", "", "required")
	}

	if !c.Board.Side.IsValid() {
		errs.Add("board.side", c.Board.Side, "must be bid or ask")
	}
	if !(c.Board.Hight > 0) {
		errs.Add("board.hight", c.Board.Hight, "must be greater than 0")
	}
	if !(c.Board.Low >= 0) {
		errs.Add("board.low", c.Board.Low, "must not be negative")
	} else if c.Board.Hight < c.Board.Low {
		errs.Add("board.low", c.Board.Low, "must not exceed board.hight")
	}
	if !(c.Board.Size > 0) {
		errs.Add("board.size", c.Board.Size, "must be greater than 0")
	}

	if c.Order.Symbol == "" {
		errs.Add("order.symbol", "", "required")
	}
	if !c.Order.Side.IsValid() {
		errs.Add("order.side", c.Order.Side, "must be buy or sell")
	} else if c.Board.Side.IsValid() && c.Board.Side.Mirror() != c.Order.Side {
		errs.Add("order.side", c.Order.Side, "must mirror board.side")
	}
	if !(c.Order.Size > 0) {
		errs.Add("order.size", c.Order.Size, "must be greater than 0")
	}
	if c.Order.IntervalSec <= 0 {
		errs.Add("order.interval_sec", c.Order.IntervalSec, "must be greater than 0")
	}

	return errs.ErrOrNil()
}

// CheckShape checks a Controller received across the agent boundary.
// It only rejects values no editor could have produced.
func (c Controller) CheckShape() error {
	errs := &errors.ValidationErrors{}

	if c.Exchange.Name != "" && !c.Exchange.Name.IsValid() {
		errs.Add("exchange.name", c.Exchange.Name, "unsupported exchange")
	}
	if c.Board.Side != "" && !c.Board.Side.IsValid() {
		errs.Add("board.side", c.Board.Side, "must be bid or ask")
	}
	if c.Order.Side != "" && !c.Order.Side.IsValid() {
		errs.Add("order.side", c.Order.Side, "must be buy or sell")
	}
	numbers := []struct {
		field string
		value float64
	}{
		{"board.hight", c.Board.Hight},
		{"board.low", c.Board.Low},
		{"board.size", c.Board.Size},
		{"order.size", c.Order.Size},
		{"order.tick_size", c.Order.TickSize},
	}
	for _, n := range numbers {
		if !isFinite(n.value) {
			errs.Add(n.field, n.value, "must be a finite number")
		}
	}

	return errs.ErrOrNil()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
