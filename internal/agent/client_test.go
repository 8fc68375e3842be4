package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"board-tracker/internal/errors"
	"board-tracker/internal/models"
	"board-tracker/internal/resilience"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL, ClientOptions{Timeout: time.Second, Retries: 2, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	c.retry.InitialDelay = time.Millisecond
	c.retry.MaxDelay = time.Millisecond
	return c
}

func TestNewHTTPClientRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8765", "ftp://agent"} {
		if _, err := NewHTTPClient(u, ClientOptions{}); !errors.Is(err, errors.ErrConfigInvalid) {
			t.Errorf("NewHTTPClient(%q) = %v", u, err)
		}
	}
}

func TestClientRefusal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != PathControllerStart {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Errorf("missing request id")
		}
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(ErrorBody{Msg: "controller is not ok, please check value", Cause: "already running"})
	})

	_, err := c.StartController(context.Background())
	var callErr *errors.AgentCallError
	if !errors.As(err, &callErr) {
		t.Fatalf("StartController() = %v", err)
	}
	if callErr.Status != http.StatusConflict || callErr.Command != CmdStartController {
		t.Errorf("refusal = %+v", callErr)
	}
	if err.Error() != "controller is not ok, please check value, cause: already running" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestClientRefusalWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := c.PostController(context.Background(), models.DefaultController())
	var callErr *errors.AgentCallError
	if !errors.As(err, &callErr) || callErr.Msg != "Bad Gateway" || callErr.Cause != "upstream down" {
		t.Errorf("PostController() = %+v", err)
	}
}

func TestClientRetriesReads(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(models.DefaultController())
	})

	got, err := c.GetController(context.Background())
	if err != nil {
		t.Fatalf("GetController() error = %v", err)
	}
	if *got != models.DefaultController() || atomic.LoadInt32(&calls) != 3 {
		t.Errorf("GetController() = %+v after %d calls", got, calls)
	}
}

func TestClientDoesNotRetryWrites(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := c.StopController(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("write was sent %d times", n)
	}
}

func TestClientDoesNotRetryRefusals(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorBody{Msg: "ticker is not found", Cause: "unknown"})
	})

	if _, err := c.GetTicker(context.Background(), models.Bybit, "NOPE"); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("refused read was sent %d times", n)
	}
}

func TestClientMalformedController(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"board":{"side":"sideways"}}`))
	})

	_, err := c.GetController(context.Background())
	if !errors.Is(err, errors.ErrMalformed) {
		t.Errorf("GetController() = %v, want malformed", err)
	}
}

func TestClientMarketPaths(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathInstruments + "/bybit":
			json.NewEncoder(w).Encode([]models.Instrument{{Symbol: "BTCUSDT", PriceTick: 0.1}})
		case PathTicker + "/bybit/BTCUSDT":
			json.NewEncoder(w).Encode(models.Ticker{Symbol: "BTCUSDT", BestAsk: 100, BestBid: 98, Volume24h: 240})
		case PathInstruments + "/bitflyer":
			w.Write([]byte("null"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	instruments, err := c.GetInstruments(ctx, models.Bybit)
	if err != nil || len(instruments) != 1 {
		t.Errorf("GetInstruments() = %+v, %v", instruments, err)
	}
	instruments, err = c.GetInstruments(ctx, models.Bitflyer)
	if err != nil || instruments == nil || len(instruments) != 0 {
		t.Errorf("GetInstruments(bitflyer) = %+v, %v", instruments, err)
	}
	ticker, err := c.GetTicker(ctx, models.Bybit, "BTCUSDT")
	if err != nil || ticker.BestBid != 98 {
		t.Errorf("GetTicker() = %+v, %v", ticker, err)
	}
}

func TestClientUnreachable(t *testing.T) {
	c, err := NewHTTPClient("http://127.0.0.1:1", ClientOptions{Timeout: 200 * time.Millisecond, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	err = c.ClearLogger(context.Background())
	if !errors.Is(err, errors.ErrConnectionFailed) {
		t.Errorf("ClearLogger() = %v, want connection failure", err)
	}
	var callErr *errors.AgentCallError
	if !errors.As(err, &callErr) || callErr.Msg != msgUnreachable {
		t.Errorf("unreachable agent error = %+v", err)
	}
}

func TestClientBreakerShortCircuits(t *testing.T) {
	c, err := NewHTTPClient("http://127.0.0.1:1", ClientOptions{
		Timeout: 200 * time.Millisecond,
		Retries: 3,
		Breaker: resilience.Config{FailureThreshold: 2, Cooldown: time.Minute},
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatal(err)
	}
	c.retry.InitialDelay = time.Millisecond
	c.retry.MaxDelay = time.Millisecond

	_, err = c.GetController(context.Background())
	if !errors.Is(err, resilience.ErrOpen) {
		t.Fatalf("retries should trip the breaker, got %v", err)
	}
	if c.LinkState() != resilience.Open {
		t.Errorf("link state = %s, want OPEN", c.LinkState())
	}

	err = c.ClearLogger(context.Background())
	var callErr *errors.AgentCallError
	if !errors.As(err, &callErr) || callErr.Msg != msgUnreachable || !errors.Is(err, errors.ErrConnectionFailed) {
		t.Errorf("short-circuited call = %v", err)
	}
}
