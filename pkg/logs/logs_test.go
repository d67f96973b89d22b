package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Alijeyrad/clinic_ledger/pkg/reqctx"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var debugBuf, errorBuf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	log := slog.New(h)

	log.Info("visit recorded")
	log.Error("commit failed")

	if !strings.Contains(debugBuf.String(), "visit recorded") || !strings.Contains(debugBuf.String(), "commit failed") {
		t.Errorf("debug handler output = %q", debugBuf.String())
	}
	if strings.Contains(errorBuf.String(), "visit recorded") {
		t.Errorf("error handler received info record: %q", errorBuf.String())
	}
	if !strings.Contains(errorBuf.String(), "commit failed") {
		t.Errorf("error handler output = %q", errorBuf.String())
	}
}

func TestContextHandlerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(&contextHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{RequestID: "abc-123"})
	log.InfoContext(ctx, "payment added")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["request_id"] != "abc-123" {
		t.Errorf("request_id = %v", rec["request_id"])
	}
}

func TestLokiPayload(t *testing.T) {
	lw := &lokiWriter{
		labels: map[string]string{"service": "clinic_ledger", "env": "test"},
		now:    func() time.Time { return time.Unix(0, 42) },
	}
	body, err := lw.payload([]byte(`{"msg":"say \"hi\""}` + "\n"))
	if err != nil {
		t.Fatalf("payload() error = %v", err)
	}

	var got lokiPush
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(got.Streams) != 1 || got.Streams[0].Stream["service"] != "clinic_ledger" {
		t.Fatalf("streams = %+v", got.Streams)
	}
	v := got.Streams[0].Values[0]
	if v[0] != "42" || v[1] != `{"msg":"say \"hi\""}` {
		t.Errorf("values = %v", v)
	}
}
