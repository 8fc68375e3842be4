package models

import (
	"time"

	"board-tracker/internal/errors"
)

// Instrument describes a tradable symbol on an exchange.
type Instrument struct {
	Symbol    string  `json:"symbol"`
	LTP       float64 `json:"ltp"`
	Volume24h float64 `json:"volume24h"`
	PriceTick float64 `json:"price_tick"`
	SizeTick  float64 `json:"size_tick"`
	SizeMin   float64 `json:"size_min"`
}

// CheckShape checks an instrument received across the agent boundary.
func (i Instrument) CheckShape() error {
	errs := &errors.ValidationErrors{}
	if i.Symbol == "" {
		errs.Add("instrument.symbol", "", "required")
	}
	checkNonNegative(errs, "instrument.ltp", i.LTP)
	checkNonNegative(errs, "instrument.volume24h", i.Volume24h)
	checkNonNegative(errs, "instrument.price_tick", i.PriceTick)
	checkNonNegative(errs, "instrument.size_tick", i.SizeTick)
	checkNonNegative(errs, "instrument.size_min", i.SizeMin)
	return errs.ErrOrNil()
}

// Ticker is a live quote for a symbol.
type Ticker struct {
	Symbol    string  `json:"symbol"`
	LTP       float64 `json:"ltp"`
	Volume24h float64 `json:"volume24h"`
	BestAsk   float64 `json:"best_ask"`
	BestBid   float64 `json:"best_bid"`
}

// CheckShape checks a ticker received across the agent boundary.
func (t Ticker) CheckShape() error {
	errs := &errors.ValidationErrors{}
	checkNonNegative(errs, "ticker.ltp", t.LTP)
	checkNonNegative(errs, "ticker.volume24h", t.Volume24h)
	checkNonNegative(errs, "ticker.best_ask", t.BestAsk)
	checkNonNegative(errs, "ticker.best_bid", t.BestBid)
	return errs.ErrOrNil()
}

func checkNonNegative(errs *errors.ValidationErrors, field string, v float64) {
	if !isFinite(v) || v < 0 {
		errs.Add(field, v, "must be a finite, non-negative number")
	}
}

// Log levels written by the agent.
const (
	LogLevelInfo    = "info"
	LogLevelError   = "error"
	LogLevelSuccess = "success"
)

// LogEntry is one line of the agent's journal.
type LogEntry struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"` // RFC 3339
}

// NewLogEntry creates a log entry stamped with t.
func NewLogEntry(level, message string, t time.Time) LogEntry {
	return LogEntry{
		Level:     level,
		Message:   message,
		Timestamp: t.Format(time.RFC3339),
	}
}

// Time parses the entry timestamp.
func (e LogEntry) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, e.Timestamp)
}
