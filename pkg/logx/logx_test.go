package logx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Abraxas-365/flavormind/pkg/logx"
)

func newBufferedLogger(format logx.Format, level logx.Level) (*logx.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := logx.DefaultConfig()
	cfg.Format = format
	cfg.Level = level
	cfg.EnableColors = false
	cfg.Output = &buf
	return logx.NewLogger(cfg), &buf
}

func TestJSONFormatterWritesFieldsAndError(t *testing.T) {
	logger, buf := newBufferedLogger(logx.FormatJSON, logx.LevelInfo)

	logger.WithFields(logx.Fields{"phone": "+94771234567", "op": "otp.issue"}).
		WithError(errors.New("redis down")).
		Error("challenge save failed")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if line["level"] != "ERROR" || line["message"] != "challenge save failed" {
		t.Fatalf("unexpected entry: %v", line)
	}
	if line["phone"] != "+94771234567" || line["error"] != "redis down" {
		t.Fatalf("fields lost: %v", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferedLogger(logx.FormatConsole, logx.LevelWarn)

	logger.WithField("k", "v").Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	logger.WithField("k", "v").Warn("shown")
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "k=v") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestWithContextCarriesRequestID(t *testing.T) {
	logger, buf := newBufferedLogger(logx.FormatJSON, logx.LevelDebug)

	ctx := logx.ContextWithRequestID(context.Background(), "req-42")
	logger.WithField("op", "login").WithContext(ctx).Debug("handled")

	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Fatalf("request id missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logx.Level{
		"debug":   logx.LevelDebug,
		"WARNING": logx.LevelWarn,
		"error":   logx.LevelError,
		"bogus":   logx.LevelInfo,
	}
	for in, want := range cases {
		if got := logx.ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
