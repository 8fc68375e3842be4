package market

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"board-tracker/internal/errors"
	"board-tracker/internal/models"
)

func TestDeriveBoard(t *testing.T) {
	board := models.Board{Side: models.BookSideBid, Hight: 1, Low: 1, Size: 1}
	ticker := models.Ticker{Symbol: "BTCUSDT", BestAsk: 100, BestBid: 98, Volume24h: 240}

	got := DeriveBoard(board, ticker)

	if got.Hight != 100 {
		t.Errorf("hight = %v, want 100", got.Hight)
	}
	if got.Low != 97.02 {
		t.Errorf("low = %v, want 97.02", got.Low)
	}
	if got.Size != 10 {
		t.Errorf("size = %v, want 10", got.Size)
	}
	if got.Side != models.BookSideBid {
		t.Errorf("side = %s, want bid kept", got.Side)
	}
}

// Property: the derived window matches the float formulas to within rounding.
func TestProperty_DeriveBoardFormulas(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("hight=ask, low=bid*0.99, size=vol/24", prop.ForAll(
		func(ask, bid, vol float64) bool {
			got := DeriveBoard(models.Board{}, models.Ticker{BestAsk: ask, BestBid: bid, Volume24h: vol})
			return got.Hight == ask &&
				approx(got.Low, bid*0.99) &&
				approx(got.Size, vol/24) &&
				got.Low <= bid
		},
		gen.Float64Range(0, 1e8),
		gen.Float64Range(0, 1e8),
		gen.Float64Range(0, 1e10),
	))

	properties.TestingRun(t)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestTickSize(t *testing.T) {
	if got := TickSize(nil); got != 0 {
		t.Errorf("TickSize(nil) = %v, want 0", got)
	}
	inst := &models.Instrument{Symbol: "BTCUSDT", PriceTick: 0.1}
	if got := TickSize(inst); got != 0.1 {
		t.Errorf("TickSize() = %v, want 0.1", got)
	}
}

func TestCatalogReplaceAndFind(t *testing.T) {
	c := NewCatalog()
	if c.Len() != 0 {
		t.Fatalf("new catalog should be empty")
	}

	first := []models.Instrument{{Symbol: "BTCUSDT", PriceTick: 0.1}, {Symbol: "ETHUSDT", PriceTick: 0.01}}
	c.Replace(first)
	first[0].PriceTick = 99 // caller's slice is not shared

	inst, ok := c.Find("BTCUSDT")
	if !ok || inst.PriceTick != 0.1 {
		t.Errorf("Find(BTCUSDT) = %+v, %v", inst, ok)
	}

	c.Replace([]models.Instrument{{Symbol: "SOLUSDT"}})
	if _, ok := c.Find("BTCUSDT"); ok {
		t.Error("Replace should drop the previous set")
	}
	if got := c.Symbols(); len(got) != 1 || got[0] != "SOLUSDT" {
		t.Errorf("Symbols() = %v", got)
	}

	list := c.List()
	list[0].Symbol = "changed"
	if _, ok := c.Find("SOLUSDT"); !ok {
		t.Error("List() must return a copy")
	}
}

func TestByVolume(t *testing.T) {
	got := ByVolume([]models.Instrument{
		{Symbol: "A", Volume24h: 1},
		{Symbol: "B", Volume24h: 3},
		{Symbol: "C", Volume24h: 2},
	})
	if got[0].Symbol != "B" || got[1].Symbol != "C" || got[2].Symbol != "A" {
		t.Errorf("ByVolume() order = %v", got)
	}
}

func TestFeed(t *testing.T) {
	feed := NewFeed([]Quote{
		{Exchange: models.Bybit, Symbol: "BTCUSDT", LTP: 99, Volume24h: 240, PriceTick: 0.1, BestAsk: 100, BestBid: 98},
		{Exchange: models.Bybit, Symbol: "ETHUSDT", LTP: 10, PriceTick: 0.01, BestAsk: 11, BestBid: 9},
	})

	instruments, err := feed.Instruments(models.Bybit)
	if err != nil {
		t.Fatalf("Instruments() error = %v", err)
	}
	if len(instruments) != 2 || instruments[0].Symbol != "BTCUSDT" {
		t.Errorf("Instruments() = %+v", instruments)
	}

	ticker, err := feed.Ticker(models.Bybit, "BTCUSDT")
	if err != nil {
		t.Fatalf("Ticker() error = %v", err)
	}
	if ticker.BestAsk != 100 || ticker.BestBid != 98 {
		t.Errorf("Ticker() = %+v", ticker)
	}

	if _, err := feed.Ticker(models.Bybit, "DOGEUSDT"); !errors.Is(err, errors.ErrDataNotFound) {
		t.Errorf("unknown symbol error = %v, want ErrDataNotFound", err)
	}

	empty, err := feed.Instruments(models.Bitbank)
	if err != nil || len(empty) != 0 {
		t.Errorf("bitbank instruments = %v, %v; want empty", empty, err)
	}
	zero, err := feed.Ticker(models.Bitflyer, "BTC_JPY")
	if err != nil || *zero != (models.Ticker{}) {
		t.Errorf("bitflyer ticker = %+v, %v; want zero", zero, err)
	}

	if _, err := feed.Instruments(models.ExchangeName("binance")); !errors.IsValidation(err) {
		t.Errorf("unsupported exchange error = %v", err)
	}

	feed.UpdateQuote(Quote{Exchange: models.Bybit, Symbol: "BTCUSDT", PriceTick: 0.1, BestAsk: 101, BestBid: 97})
	ticker, _ = feed.Ticker(models.Bybit, "BTCUSDT")
	if ticker.BestAsk != 101 {
		t.Errorf("UpdateQuote not applied: %+v", ticker)
	}
	if instruments, _ := feed.Instruments(models.Bybit); len(instruments) != 2 {
		t.Errorf("UpdateQuote duplicated a listing: %d instruments", len(instruments))
	}
}
