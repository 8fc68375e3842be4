// Package editor implements the field rules of the controller editor.
//
// Apply is a single-pass reducer: one operator edit in, the complete next
// Controller out. A governing field and its mirror are written together, so
// the derived write never triggers a second pass.
package editor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"board-tracker/internal/errors"
	"board-tracker/internal/models"
)

// Field names an editable leaf of the Controller.
type Field string

const (
	ExchangeName       Field = "exchange.name"
	ExchangeKey        Field = "exchange.key"
	ExchangeSecret     Field = "exchange.secret"
	ExchangePassphrase Field = "exchange.passphrase"
	ExchangeCategory   Field = "exchange.category"
	BoardSide          Field = "board.side"
	BoardHight         Field = "board.hight"
	BoardLow           Field = "board.low"
	BoardSize          Field = "board.size"
	OrderSymbol        Field = "order.symbol"
	OrderSide          Field = "order.side"
	OrderSize          Field = "order.size"
	OrderPostOnly      Field = "order.is_post_only"
	OrderIntervalSec   Field = "order.interval_sec"
)

// allFields is the presentation order.
var allFields = []Field{
	ExchangeName,
	ExchangeKey,
	ExchangeSecret,
	ExchangePassphrase,
	ExchangeCategory,
	BoardSide,
	BoardHight,
	BoardLow,
	BoardSize,
	OrderSymbol,
	OrderSide,
	OrderSize,
	OrderPostOnly,
	OrderIntervalSec,
}

// AllFields returns every editable field in presentation order.
func AllFields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// ParseField resolves a field name. is_running and order.tick_size are not
// operator fields and are rejected.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allFields {
		if f == known {
			return f, nil
		}
	}
	return "", errors.NewValidationError(s, s, "not an editable field")
}

// Edit is one operator change to one field.
type Edit struct {
	Field Field
	Value string
}

func (e Edit) String() string {
	return fmt.Sprintf("%s=%s", e.Field, e.Value)
}

// Apply returns the Controller that results from applying e to c.
// On error c is returned unchanged.
func Apply(c models.Controller, e Edit) (models.Controller, error) {
	next := c
	v := strings.TrimSpace(e.Value)

	switch e.Field {
	case ExchangeName:
		if v == "" {
			next.Exchange.Name = ""
			break
		}
		name, err := models.ParseExchangeName(v)
		if err != nil {
			return c, err
		}
		next.Exchange.Name = name
	case ExchangeKey:
		next.Exchange.Key = e.Value
	case ExchangeSecret:
		next.Exchange.Secret = e.Value
	case ExchangePassphrase:
		next.Exchange.Passphrase = e.Value
	case ExchangeCategory:
		next.Exchange.Category = v

	case BoardSide:
		side, err := models.ParseBookSide(v)
		if err != nil {
			return c, err
		}
		next.Board.Side = side
		next.Order.Side = side.Mirror()
	case BoardHight:
		f, err := parseFloat(e.Field, v)
		if err != nil {
			return c, err
		}
		next.Board.Hight = f
	case BoardLow:
		f, err := parseFloat(e.Field, v)
		if err != nil {
			return c, err
		}
		next.Board.Low = f
	case BoardSize:
		f, err := parseFloat(e.Field, v)
		if err != nil {
			return c, err
		}
		next.Board.Size = f

	case OrderSymbol:
		next.Order.Symbol = v
	case OrderSide:
		side, err := models.ParseOrderSide(v)
		if err != nil {
			return c, err
		}
		next.Order.Side = side
		next.Board.Side = side.Mirror()
	case OrderSize:
		f, err := parseFloat(e.Field, v)
		if err != nil {
			return c, err
		}
		next.Order.Size = f
	case OrderPostOnly:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, errors.NewValidationError(string(e.Field), e.Value, "must be true or false")
		}
		next.Order.IsPostOnly = b
	case OrderIntervalSec:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, errors.NewValidationError(string(e.Field), e.Value, "must be a whole number of seconds")
		}
		next.Order.IntervalSec = n

	default:
		return c, errors.NewValidationError(string(e.Field), e.Value, "not an editable field")
	}

	return next, nil
}

// Settle restores side mirroring after a wholesale replacement of the
// Controller. The board side wins when it is valid; otherwise the order side.
func Settle(c models.Controller) models.Controller {
	switch {
	case c.Board.Side.IsValid():
		c.Order.Side = c.Board.Side.Mirror()
	case c.Order.Side.IsValid():
		c.Board.Side = c.Order.Side.Mirror()
	}
	return c
}

// Visible reports whether f is shown for the Controller's exchange.
// Hidden fields keep their values.
func Visible(c models.Controller, f Field) bool {
	switch f {
	case ExchangePassphrase:
		return c.Exchange.Name.RequiresPassphrase()
	case ExchangeCategory:
		return c.Exchange.Name.HasCategory()
	default:
		return true
	}
}

// Fields returns the visible fields in presentation order.
func Fields(c models.Controller) []Field {
	out := make([]Field, 0, len(allFields))
	for _, f := range allFields {
		if Visible(c, f) {
			out = append(out, f)
		}
	}
	return out
}

// Options returns the allowed values of an enumerated field, or nil.
func Options(f Field) []string {
	switch f {
	case ExchangeName:
		names := models.SupportedExchanges()
		out := make([]string, len(names))
		for i, n := range names {
			out[i] = string(n)
		}
		return out
	case BoardSide:
		sides := models.SupportedBookSides()
		out := make([]string, len(sides))
		for i, s := range sides {
			out[i] = string(s)
		}
		return out
	case OrderSide:
		sides := models.SupportedOrderSides()
		out := make([]string, len(sides))
		for i, s := range sides {
			out[i] = string(s)
		}
		return out
	case OrderPostOnly:
		return []string{"true", "false"}
	default:
		return nil
	}
}

// Value renders the current value of f.
func Value(c models.Controller, f Field) string {
	switch f {
	case ExchangeName:
		return string(c.Exchange.Name)
	case ExchangeKey:
		return c.Exchange.Key
	case ExchangeSecret:
		return c.Exchange.Secret
	case ExchangePassphrase:
		return c.Exchange.Passphrase
	case ExchangeCategory:
		return c.Exchange.Category
	case BoardSide:
		return string(c.Board.Side)
	case BoardHight:
		return formatFloat(c.Board.Hight)
	case BoardLow:
		return formatFloat(c.Board.Low)
	case BoardSize:
		return formatFloat(c.Board.Size)
	case OrderSymbol:
		return c.Order.Symbol
	case OrderSide:
		return string(c.Order.Side)
	case OrderSize:
		return formatFloat(c.Order.Size)
	case OrderPostOnly:
		return strconv.FormatBool(c.Order.IsPostOnly)
	case OrderIntervalSec:
		return strconv.FormatInt(c.Order.IntervalSec, 10)
	default:
		return ""
	}
}

// Secret reports whether f holds a credential.
func Secret(f Field) bool {
	return f == ExchangeKey || f == ExchangeSecret || f == ExchangePassphrase
}

func parseFloat(f Field, v string) (float64, error) {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errors.NewValidationError(string(f), v, "must be a number")
	}
	return n, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
