package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMultiNotifierFilter(t *testing.T) {
	rec := &Recorder{}
	mn := NewMultiNotifier(FilterErrorsOnly, NewTerminalNotifier(&bytes.Buffer{}, false))
	mn.AddChannel(recordingChannel{rec})

	ctx := context.Background()
	if err := mn.Send(ctx, Success("saved", "controller stored")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := mn.Send(ctx, Failure("start failed", fmt.Errorf("already running"))); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	sent := rec.Sent()
	if len(sent) != 1 || sent[0].Level != LevelError {
		t.Fatalf("errors_only delivered %+v", sent)
	}
	if sent[0].Timestamp.IsZero() {
		t.Errorf("timestamp should be stamped")
	}
}

type recordingChannel struct{ r *Recorder }

func (c recordingChannel) Name() string    { return "recorder" }
func (c recordingChannel) IsEnabled() bool { return true }
func (c recordingChannel) Send(ctx context.Context, n Notification) error {
	return c.r.Send(ctx, n)
}

func TestTerminalNotifier(t *testing.T) {
	var buf bytes.Buffer
	tn := NewTerminalNotifier(&buf, false)
	at := time.Date(2024, 1, 2, 9, 4, 5, 0, time.Local)

	if err := tn.Send(context.Background(), Notification{Level: LevelSuccess, Title: "started", Message: "bybit BTCUSDT", Timestamp: at}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := buf.String(); got != "[09:04:05] started: bybit BTCUSDT\n" {
		t.Errorf("output = %q", got)
	}

	buf.Reset()
	tn.SetEnabled(false)
	_ = tn.Send(context.Background(), Success("x", "y"))
	if buf.Len() != 0 {
		t.Errorf("disabled notifier wrote %q", buf.String())
	}
}

func TestTerminalNotifierColor(t *testing.T) {
	var buf bytes.Buffer
	tn := NewTerminalNotifier(&buf, true)
	_ = tn.Send(context.Background(), Failure("stop failed", fmt.Errorf("boom")))
	if !strings.HasPrefix(buf.String(), colorRed) {
		t.Errorf("error line should be red: %q", buf.String())
	}
}

func TestWebhookNotifier(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhookNotifier(srv.URL, time.Second)
	if !w.IsEnabled() {
		t.Fatal("webhook with url should be enabled")
	}
	if err := w.Send(context.Background(), Success("saved", "ok")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got["level"] != "success" || got["title"] != "saved" {
		t.Errorf("payload = %v", got)
	}

	if NewWebhookNotifier("", 0).IsEnabled() {
		t.Errorf("webhook without url should be disabled")
	}
}

func TestWebhookNotifierStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewWebhookNotifier(srv.URL, time.Second).Send(context.Background(), Success("a", "b")); err == nil {
		t.Errorf("expected error for 502")
	}
}
