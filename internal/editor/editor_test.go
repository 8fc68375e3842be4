package editor

import (
	"testing"

	"board-tracker/internal/errors"
	"board-tracker/internal/models"
)

func TestApplySideMirroring(t *testing.T) {
	tests := []struct {
		name      string
		edit      Edit
		wantBoard models.BookSide
		wantOrder models.OrderSide
	}{
		{"board bid forces buy", Edit{BoardSide, "bid"}, models.BookSideBid, models.OrderSideBuy},
		{"board ask forces sell", Edit{BoardSide, "ask"}, models.BookSideAsk, models.OrderSideSell},
		{"order buy forces bid", Edit{OrderSide, "buy"}, models.BookSideBid, models.OrderSideBuy},
		{"order sell forces ask", Edit{OrderSide, "SELL"}, models.BookSideAsk, models.OrderSideSell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(models.DefaultController(), tt.edit)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got.Board.Side != tt.wantBoard {
				t.Errorf("board side = %s, want %s", got.Board.Side, tt.wantBoard)
			}
			if got.Order.Side != tt.wantOrder {
				t.Errorf("order side = %s, want %s", got.Order.Side, tt.wantOrder)
			}
			if Settle(got) != got {
				t.Errorf("Settle changed an already mirrored controller")
			}
		})
	}
}

func TestApplyVerbatimFields(t *testing.T) {
	base := models.DefaultController()

	tests := []struct {
		edit  Edit
		check func(models.Controller) bool
	}{
		{Edit{ExchangeName, "Bitbank"}, func(c models.Controller) bool { return c.Exchange.Name == models.Bitbank }},
		{Edit{ExchangeKey, "k"}, func(c models.Controller) bool { return c.Exchange.Key == "k" }},
		{Edit{ExchangeSecret, "s"}, func(c models.Controller) bool { return c.Exchange.Secret == "s" }},
		{Edit{ExchangePassphrase, "p"}, func(c models.Controller) bool { return c.Exchange.Passphrase == "p" }},
		{Edit{BoardHight, "120.5"}, func(c models.Controller) bool { return c.Board.Hight == 120.5 }},
		{Edit{BoardLow, "99"}, func(c models.Controller) bool { return c.Board.Low == 99 }},
		{Edit{BoardSize, "3"}, func(c models.Controller) bool { return c.Board.Size == 3 }},
		{Edit{OrderSymbol, " BTCUSDT "}, func(c models.Controller) bool { return c.Order.Symbol == "BTCUSDT" }},
		{Edit{OrderSize, "0.5"}, func(c models.Controller) bool { return c.Order.Size == 0.5 }},
		{Edit{OrderPostOnly, "false"}, func(c models.Controller) bool { return !c.Order.IsPostOnly }},
		{Edit{OrderIntervalSec, "30"}, func(c models.Controller) bool { return c.Order.IntervalSec == 30 }},
	}

	for _, tt := range tests {
		t.Run(string(tt.edit.Field), func(t *testing.T) {
			got, err := Apply(base, tt.edit)
			if err != nil {
				t.Fatalf("Apply(%s) error = %v", tt.edit, err)
			}
			if !tt.check(got) {
				t.Errorf("Apply(%s) did not set the field: %+v", tt.edit, got)
			}
			if got.Board.Side != base.Board.Side || got.Order.Side != base.Order.Side {
				t.Errorf("Apply(%s) touched the sides", tt.edit)
			}
		})
	}
}

func TestApplyRejectsInvalidInput(t *testing.T) {
	base := models.DefaultController()

	edits := []Edit{
		{ExchangeName, "binance"},
		{BoardSide, "middle"},
		{OrderSide, "hold"},
		{BoardHight, "abc"},
		{BoardLow, "NaN"},
		{OrderPostOnly, "maybe"},
		{OrderIntervalSec, "1.5"},
		{Field("is_running"), "true"},
		{Field("order.tick_size"), "0.1"},
	}

	for _, e := range edits {
		got, err := Apply(base, e)
		if err == nil {
			t.Errorf("Apply(%s) expected error", e)
			continue
		}
		if !errors.IsValidation(err) {
			t.Errorf("Apply(%s) error = %v, want validation error", e, err)
		}
		if got != base {
			t.Errorf("Apply(%s) modified the controller on error", e)
		}
	}
}

func TestParseField(t *testing.T) {
	if f, err := ParseField(" Board.Side "); err != nil || f != BoardSide {
		t.Errorf("ParseField() = %q, %v", f, err)
	}
	for _, s := range []string{"is_running", "order.tick_size", "board"} {
		if _, err := ParseField(s); err == nil {
			t.Errorf("ParseField(%q) expected error", s)
		}
	}
}

func TestPassphraseVisibility(t *testing.T) {
	c := models.DefaultController()
	c.Exchange.Passphrase = "keep-me"

	for _, name := range models.SupportedExchanges() {
		next, err := Apply(c, Edit{ExchangeName, string(name)})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		want := name == models.Bitbank
		if got := Visible(next, ExchangePassphrase); got != want {
			t.Errorf("%s: passphrase visible = %v, want %v", name, got, want)
		}
		if hasField(Fields(next), ExchangePassphrase) != want {
			t.Errorf("%s: Fields() passphrase presence mismatch", name)
		}
		if next.Exchange.Passphrase != "keep-me" {
			t.Errorf("%s: passphrase = %q, want it preserved", name, next.Exchange.Passphrase)
		}
		c = next
	}
}

func TestCategoryVisibility(t *testing.T) {
	c := models.DefaultController()
	c.Exchange.Name = models.Bybit
	if !Visible(c, ExchangeCategory) {
		t.Error("category should be visible for bybit")
	}
	c.Exchange.Name = models.Bitflyer
	if Visible(c, ExchangeCategory) {
		t.Error("category should be hidden for bitflyer")
	}
}

func TestSettle(t *testing.T) {
	c := models.DefaultController()
	c.Board.Side = models.BookSideBid
	c.Order.Side = models.OrderSideSell

	got := Settle(c)
	if got.Order.Side != models.OrderSideBuy {
		t.Errorf("order side = %s, want buy", got.Order.Side)
	}

	c.Board.Side = ""
	c.Order.Side = models.OrderSideSell
	got = Settle(c)
	if got.Board.Side != models.BookSideAsk {
		t.Errorf("board side = %s, want ask", got.Board.Side)
	}

	c.Board.Side = ""
	c.Order.Side = ""
	if Settle(c) != c {
		t.Error("Settle should leave an unsided controller alone")
	}
}

func TestValueRoundTrip(t *testing.T) {
	c := models.DefaultController()
	c.Exchange.Name = models.Bitbank
	c.Order.Symbol = "XRP_JPY"
	c.Board.Low = 97.02

	for _, f := range AllFields() {
		next, err := Apply(c, Edit{f, Value(c, f)})
		if err != nil {
			t.Fatalf("Apply(%s) error = %v", f, err)
		}
		if next != c {
			t.Errorf("re-applying %s changed the controller", f)
		}
	}
}

func TestOptions(t *testing.T) {
	if got := Options(ExchangeName); len(got) != 3 || got[0] != "bybit" {
		t.Errorf("Options(exchange.name) = %v", got)
	}
	if got := Options(BoardSide); len(got) != 2 {
		t.Errorf("Options(board.side) = %v", got)
	}
	if got := Options(BoardHight); got != nil {
		t.Errorf("Options(board.hight) = %v, want nil", got)
	}
}

func hasField(fields []Field, f Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}
