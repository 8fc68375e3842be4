package editor

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"board-tracker/internal/models"
)

func controllerGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Controller{}), map[string]gopter.Gen{
		"Exchange": gen.Struct(reflect.TypeOf(models.Exchange{}), map[string]gopter.Gen{
			"Name":       gen.OneConstOf(models.Bybit, models.Bitbank, models.Bitflyer, models.ExchangeName("")),
			"Key":        gen.AlphaString(),
			"Secret":     gen.AlphaString(),
			"Passphrase": gen.AlphaString(),
		}),
		"Board": gen.Struct(reflect.TypeOf(models.Board{}), map[string]gopter.Gen{
			"Side":  gen.OneConstOf(models.BookSideBid, models.BookSideAsk),
			"Hight": gen.Float64Range(0, 1e7),
			"Low":   gen.Float64Range(0, 1e7),
			"Size":  gen.Float64Range(0, 1e4),
		}),
		"Order": gen.Struct(reflect.TypeOf(models.Order{}), map[string]gopter.Gen{
			"Symbol":      gen.OneConstOf("BTCUSDT", "ETHUSDT", ""),
			"Side":        gen.OneConstOf(models.OrderSideBuy, models.OrderSideSell),
			"Size":        gen.Float64Range(0, 1e4),
			"IntervalSec": gen.Int64Range(1, 600),
		}),
	})
}

// Property: a side edit leaves the two sides mirrored, and a further settle
// pass changes nothing.
func TestProperty_SideEditsSettleInOnePass(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("board.side edits mirror order.side", prop.ForAll(
		func(c models.Controller, side string) bool {
			next, err := Apply(c, Edit{BoardSide, side})
			if err != nil {
				return false
			}
			return next.Order.Side == next.Board.Side.Mirror() && Settle(next) == next
		},
		controllerGen(),
		gen.OneConstOf("bid", "ask"),
	))

	properties.Property("order.side edits mirror board.side", prop.ForAll(
		func(c models.Controller, side string) bool {
			next, err := Apply(c, Edit{OrderSide, side})
			if err != nil {
				return false
			}
			return next.Board.Side == next.Order.Side.Mirror() && Settle(next) == next
		},
		controllerGen(),
		gen.OneConstOf("buy", "sell"),
	))

	properties.Property("Settle is idempotent", prop.ForAll(
		func(c models.Controller) bool {
			once := Settle(c)
			return Settle(once) == once
		},
		controllerGen(),
	))

	properties.TestingRun(t)
}

// Property: switching exchanges never alters the stored passphrase.
func TestProperty_ExchangeSwitchPreservesPassphrase(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("passphrase survives any exchange edit", prop.ForAll(
		func(c models.Controller, name models.ExchangeName) bool {
			next, err := Apply(c, Edit{ExchangeName, string(name)})
			if err != nil {
				return false
			}
			visible := Visible(next, ExchangePassphrase)
			return next.Exchange.Passphrase == c.Exchange.Passphrase &&
				visible == (name == models.Bitbank)
		},
		controllerGen(),
		gen.OneConstOf(models.Bybit, models.Bitbank, models.Bitflyer),
	))

	properties.TestingRun(t)
}
