package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"ERROR": slog.LevelError,
		"":      slog.LevelInfo,
		"weird": slog.LevelInfo,
	}
	for env, want := range tests {
		t.Setenv("LOG_LEVEL", env)
		if got := LogLevel(); got != want {
			t.Errorf("LOG_LEVEL=%q: expected %v, got %v", env, want, got)
		}
	}
}

func TestSetupLoggerTo_Text(t *testing.T) {
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_LEVEL", "INFO")

	var buf bytes.Buffer
	logger := SetupLoggerTo(&buf)
	WithStep(WithChain(logger, "demo"), "s1").Info("hello")

	out := buf.String()
	if !strings.Contains(out, "chain=demo") || !strings.Contains(out, "step_id=s1") {
		t.Errorf("unexpected log line: %s", out)
	}
}

func TestSetupCLILogger(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_LEVEL", "")

	var buf bytes.Buffer
	logger := SetupCLILogger(&buf, false)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") {
		t.Errorf("expected text warn-level output, got %q", out)
	}

	buf.Reset()
	SetupCLILogger(&buf, true).Debug("debug line")
	if !strings.Contains(buf.String(), "debug line") {
		t.Errorf("verbose logger must log debug, got %q", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) == nil {
		t.Error("expected default logger")
	}
}

// counterValue возвращает сумму счётчика с указанным label из default registry.
func counterValue(t *testing.T, name, label, value string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					total += m.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}

func TestObserveChain(t *testing.T) {
	before := counterValue(t, "atento_chain_runs_total", "status", "ok")
	ObserveChain("ok", 10*time.Millisecond)
	after := counterValue(t, "atento_chain_runs_total", "status", "ok")
	if after != before+1 {
		t.Errorf("expected counter to grow by 1, got %v -> %v", before, after)
	}

	StepFailed("")
	if counterValue(t, "atento_step_failures_total", "kind", "unknown") < 1 {
		t.Error("expected unknown kind to be counted")
	}
}

func TestObserveHTTP(t *testing.T) {
	before := counterValue(t, "atento_http_requests_total", "route", "unmatched")
	ObserveHTTP("", 404)
	if after := counterValue(t, "atento_http_requests_total", "route", "unmatched"); after != before+1 {
		t.Errorf("expected unmatched route counted, got %v -> %v", before, after)
	}
}
