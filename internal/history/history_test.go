package history

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"board-tracker/internal/models"
)

func sample(symbol string, side models.OrderSide) models.Controller {
	c := models.DefaultController()
	c.IsRunning = true
	c.Exchange = models.Exchange{Name: models.Bybit, Key: "k", Secret: "s", Passphrase: "p"}
	c.Order.Symbol = symbol
	c.Order.Side = side
	c.Board.Side = side.Mirror()
	return c
}

func TestKey(t *testing.T) {
	if got := Key(sample("BTCUSDT", models.OrderSideBuy)); got != "bybit:BTCUSDT:buy" {
		t.Errorf("Key() = %q, want bybit:BTCUSDT:buy", got)
	}
}

func TestAppendSnapshotsController(t *testing.T) {
	l := NewLedger()
	live := sample("BTCUSDT", models.OrderSideBuy)

	l.Append(live, time.Now())

	live.Order.Symbol = "ETHUSDT"
	live.Exchange.Passphrase = "changed"

	e, ok := l.At(0)
	if !ok {
		t.Fatal("At(0) missing")
	}
	if e.Key != "bybit:BTCUSDT:buy" {
		t.Errorf("key = %q", e.Key)
	}
	if e.Controller.Order.Symbol != "BTCUSDT" || e.Controller.Exchange.Passphrase != "p" {
		t.Errorf("stored entry changed with the live draft: %+v", e.Controller)
	}
}

func TestDuplicatesAreKept(t *testing.T) {
	l := NewLedger()
	first := sample("BTCUSDT", models.OrderSideBuy)
	second := first
	second.Board.Hight = 42

	l.Append(first, time.Unix(1, 0))
	l.Append(sample("ETHUSDT", models.OrderSideSell), time.Unix(2, 0))
	l.Append(second, time.Unix(3, 0))

	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}

	list := l.List()
	if list[0].Key != list[2].Key {
		t.Errorf("duplicate keys should both be present")
	}
	if list[0].Controller.Board.Hight == 42 {
		t.Errorf("older entry was overwritten")
	}
}

func TestListIsRestartable(t *testing.T) {
	l := NewLedger()
	l.Append(sample("BTCUSDT", models.OrderSideBuy), time.Now())

	a := l.List()
	a[0].Key = "mutated"
	b := l.List()
	if b[0].Key != "bybit:BTCUSDT:buy" {
		t.Errorf("List() exposed internal storage")
	}
	if _, ok := l.At(5); ok {
		t.Errorf("At(5) should be out of range")
	}
}

// Property: the ledger returns entries in append order and each entry equals
// the controller value at the time of its append.
func TestProperty_AppendOrderAndCopies(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("entries keep append order and values", prop.ForAll(
		func(symbols []string) bool {
			l := NewLedger()
			live := sample("", models.OrderSideBuy)
			want := make([]models.Controller, 0, len(symbols))
			for _, s := range symbols {
				live.Order.Symbol = s
				l.Append(live, time.Now())
				want = append(want, live)
			}
			live.Order.Symbol = "after"

			got := l.List()
			if len(got) != len(want) {
				return false
			}
			for i := range got {
				if !reflect.DeepEqual(got[i].Controller, want[i]) || got[i].Key != Key(want[i]) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf("BTCUSDT", "ETHUSDT", "SOLUSDT")),
	))

	properties.TestingRun(t)
}
