package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"board-tracker/internal/errors"
	"board-tracker/internal/market"
	"board-tracker/internal/models"
	"board-tracker/internal/store"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func testFeed() *market.Feed {
	return market.NewFeed([]market.Quote{
		{Exchange: models.Bybit, Symbol: "BTCUSDT", LTP: 100, Volume24h: 240, PriceTick: 0.1, SizeTick: 0.001, SizeMin: 0.001, BestAsk: 100, BestBid: 98},
	})
}

func newTestLocal(t *testing.T, s store.ControllerStore) *Local {
	t.Helper()
	l, err := NewLocal(context.Background(), LocalOptions{
		Feed:   testFeed(),
		Store:  s,
		Logger: zerolog.Nop(),
		Clock:  func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	return l
}

func readyController() models.Controller {
	c := models.DefaultController()
	c.Exchange = models.Exchange{Name: models.Bybit, Key: "key", Secret: "secret"}
	c.Order.Symbol = "BTCUSDT"
	return c
}

func assertRefusal(t *testing.T, err error, command, msg, cause string) {
	t.Helper()
	var callErr *errors.AgentCallError
	if !errors.As(err, &callErr) {
		t.Fatalf("error = %v (%T), want AgentCallError", err, err)
	}
	if callErr.Command != command || callErr.Msg != msg || (cause != "" && callErr.Cause != cause) {
		t.Errorf("refusal = %+v, want %s %q %q", callErr, command, msg, cause)
	}
}

func TestLocalStartRequiresValidController(t *testing.T) {
	l := newTestLocal(t, nil)
	ctx := context.Background()

	_, err := l.StartController(ctx)
	assertRefusal(t, err, CmdStartController, msgNotOK, "exchange setting is empty")
	if errors.IsValidation(err) {
		t.Errorf("start refusal classified as a local validation error: %v", err)
	}

	if _, err := l.PostController(ctx, readyController()); err != nil {
		t.Fatalf("PostController() error = %v", err)
	}
	c, err := l.StartController(ctx)
	if err != nil {
		t.Fatalf("StartController() error = %v", err)
	}
	if !c.IsRunning {
		t.Errorf("started controller should be running")
	}

	_, err = l.StartController(ctx)
	assertRefusal(t, err, CmdStartController, msgNotOK, causeAlreadyRunning)
}

func TestLocalStopWhenStopped(t *testing.T) {
	l := newTestLocal(t, nil)
	_, err := l.StopController(context.Background())
	assertRefusal(t, err, CmdStopController, msgWorkersNotFound, causeNotRunning)
}

func TestLocalRefusesChangesWhileRunning(t *testing.T) {
	l := newTestLocal(t, nil)
	ctx := context.Background()
	if _, err := l.PostController(ctx, readyController()); err != nil {
		t.Fatal(err)
	}
	if _, err := l.StartController(ctx); err != nil {
		t.Fatal(err)
	}

	_, err := l.PostController(ctx, readyController())
	assertRefusal(t, err, CmdPostController, msgNotOK, causeAlreadyRunning)
	_, err = l.PutController(ctx, readyController())
	assertRefusal(t, err, CmdPutController, msgNotOK, causeAlreadyRunning)
	_, err = l.DeleteController(ctx)
	assertRefusal(t, err, CmdDeleteController, msgNotOK, causeAlreadyRunning)

	c, err := l.StopController(ctx)
	if err != nil || c.IsRunning {
		t.Fatalf("StopController() = %+v, %v", c, err)
	}
	if c.Order.Symbol != "BTCUSDT" {
		t.Errorf("stop should keep the configuration, got %+v", c)
	}
}

func TestLocalPostValidates(t *testing.T) {
	l := newTestLocal(t, nil)
	c := readyController()
	c.Board.Size = 0

	_, err := l.PostController(context.Background(), c)
	assertRefusal(t, err, CmdPostController, msgNotOK, "board setting is empty")
	if errors.IsValidation(err) {
		t.Errorf("agent refusal classified as a local validation error: %v", err)
	}

	got, _ := l.GetController(context.Background())
	if *got != models.DefaultController() {
		t.Errorf("refused post changed the controller: %+v", got)
	}
}

func TestLocalPostIgnoresRunFlag(t *testing.T) {
	l := newTestLocal(t, nil)
	c := readyController()
	c.IsRunning = true

	out, err := l.PostController(context.Background(), c)
	if err != nil {
		t.Fatalf("PostController() error = %v", err)
	}
	if out.IsRunning {
		t.Errorf("posted run flag must be ignored")
	}
}

func TestLocalPutSkipsReadiness(t *testing.T) {
	l := newTestLocal(t, nil)
	c := models.DefaultController()
	c.Order.Symbol = "half-filled"

	out, err := l.PutController(context.Background(), c)
	if err != nil {
		t.Fatalf("PutController() error = %v", err)
	}
	if out.Order.Symbol != "half-filled" {
		t.Errorf("PutController() = %+v", out)
	}

	c.Board.Side = "sideways"
	_, err = l.PutController(context.Background(), c)
	assertRefusal(t, err, CmdPutController, msgInvalid, "")
}

func TestLocalDeleteResets(t *testing.T) {
	l := newTestLocal(t, nil)
	ctx := context.Background()
	if _, err := l.PostController(ctx, readyController()); err != nil {
		t.Fatal(err)
	}
	c, err := l.DeleteController(ctx)
	if err != nil {
		t.Fatalf("DeleteController() error = %v", err)
	}
	if *c != models.DefaultController() {
		t.Errorf("DeleteController() = %+v, want default", c)
	}
}

func TestLocalMarketData(t *testing.T) {
	l := newTestLocal(t, nil)
	ctx := context.Background()

	instruments, err := l.GetInstruments(ctx, models.Bybit)
	if err != nil || len(instruments) != 1 || instruments[0].PriceTick != 0.1 {
		t.Errorf("GetInstruments(bybit) = %+v, %v", instruments, err)
	}
	instruments, err = l.GetInstruments(ctx, models.Bitflyer)
	if err != nil || len(instruments) != 0 {
		t.Errorf("GetInstruments(bitflyer) = %+v, %v", instruments, err)
	}
	_, err = l.GetInstruments(ctx, "kraken")
	assertRefusal(t, err, CmdGetInstruments, msgInstrumentsMissing, "")

	ticker, err := l.GetTicker(ctx, models.Bybit, "BTCUSDT")
	if err != nil || ticker.BestBid != 98 {
		t.Errorf("GetTicker() = %+v, %v", ticker, err)
	}
	ticker, err = l.GetTicker(ctx, models.Bitbank, "btc_jpy")
	if err != nil || *ticker != (models.Ticker{}) {
		t.Errorf("GetTicker(bitbank) = %+v, %v", ticker, err)
	}
	_, err = l.GetTicker(ctx, models.Bybit, "ETHUSDT")
	assertRefusal(t, err, CmdGetTicker, msgTickerMissing, "")
	_, err = l.GetTicker(ctx, models.Bybit, "")
	assertRefusal(t, err, CmdGetTicker, msgTickerMissing, "symbol is empty")
}

func TestLocalLogger(t *testing.T) {
	l := newTestLocal(t, nil)
	ctx := context.Background()

	_, err := l.GetLogger(ctx)
	assertRefusal(t, err, CmdGetLogger, msgLoggerMissing, causeNotStarted)

	if _, err := l.PostController(ctx, readyController()); err != nil {
		t.Fatal(err)
	}
	if _, err := l.StartController(ctx); err != nil {
		t.Fatal(err)
	}

	entries, err := l.GetLogger(ctx)
	if err != nil {
		t.Fatalf("GetLogger() error = %v", err)
	}
	if len(entries) == 0 || entries[0].Message != CmdStartController || entries[0].Level != models.LogLevelInfo {
		t.Fatalf("first entry = %+v", entries)
	}
	if entries[0].Timestamp != fixedNow.Format(time.RFC3339) {
		t.Errorf("timestamp = %q", entries[0].Timestamp)
	}

	entries, err = l.GetLogger(ctx)
	if err != nil || len(entries) != 0 {
		t.Errorf("second read should be drained: %+v, %v", entries, err)
	}

	if err := l.ClearLogger(ctx); err != nil {
		t.Fatal(err)
	}
	_, err = l.GetLogger(ctx)
	assertRefusal(t, err, CmdGetLogger, msgLoggerMissing, "")
}

func TestLocalPersistsController(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "agent.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	l := newTestLocal(t, s)
	if _, err := l.PostController(ctx, readyController()); err != nil {
		t.Fatal(err)
	}

	restarted := newTestLocal(t, s)
	got, _ := restarted.GetController(ctx)
	if *got != readyController() {
		t.Errorf("restored controller = %+v", got)
	}

	if _, err := restarted.DeleteController(ctx); err != nil {
		t.Fatal(err)
	}
	again := newTestLocal(t, s)
	got, _ = again.GetController(ctx)
	if *got != models.DefaultController() {
		t.Errorf("controller after delete = %+v", got)
	}
}
