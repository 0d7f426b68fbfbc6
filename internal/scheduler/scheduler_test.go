package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/interpreter"
	"github.com/shaiso/Atento/internal/mq"
	"github.com/shaiso/Atento/internal/recorder"
	"github.com/shaiso/Atento/internal/runner"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseSchedules(t *testing.T) {
	schedules, err := ParseSchedules([]byte(`
schedules:
  - name: nightly
    cron: "0 3 * * *"
    chain: nightly.yaml
  - name: paused
    cron: "*/5 * * * *"
    chain: paused.yaml
    enabled: false
    timezone: Europe/Moscow
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(schedules))
	}
	if !schedules[0].Enabled {
		t.Error("enabled must default to true")
	}
	if schedules[1].Enabled {
		t.Error("expected second schedule disabled")
	}
	if got := schedules[1].Spec(); got != "CRON_TZ=Europe/Moscow */5 * * * *" {
		t.Errorf("unexpected spec %q", got)
	}
}

func TestParseSchedules_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		wantMsg string
	}{
		{
			name:    "duplicate",
			doc:     "schedules:\n  - {name: a, cron: '* * * * *', chain: a.yaml}\n  - {name: a, cron: '* * * * *', chain: b.yaml}\n",
			wantErr: ErrDuplicateSchedule,
		},
		{
			name:    "empty name",
			doc:     "schedules:\n  - {cron: '* * * * *', chain: a.yaml}\n",
			wantErr: ErrEmptyScheduleName,
		},
		{
			name:    "empty chain",
			doc:     "schedules:\n  - {name: a, cron: '* * * * *'}\n",
			wantErr: ErrEmptyChainPath,
		},
		{
			name:    "bad cron",
			doc:     "schedules:\n  - {name: a, cron: 'every day', chain: a.yaml}\n",
			wantMsg: "invalid cron expression",
		},
		{
			name:    "six fields",
			doc:     "schedules:\n  - {name: a, cron: '0 * * * * *', chain: a.yaml}\n",
			wantMsg: "invalid cron expression",
		},
		{
			name:    "bad timezone",
			doc:     "schedules:\n  - {name: a, cron: '* * * * *', chain: a.yaml, timezone: Mars/Olympus}\n",
			wantMsg: "invalid timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedules([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected %q in %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestLoadSchedules_RelativeChainPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "schedules.yaml", `
schedules:
  - name: rel
    cron: "* * * * *"
    chain: chains/a.yaml
  - name: abs
    cron: "* * * * *"
    chain: /etc/atento/b.yaml
`)

	schedules, err := LoadSchedules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "chains", "a.yaml"); schedules[0].Chain != want {
		t.Errorf("expected %s, got %s", want, schedules[0].Chain)
	}
	if schedules[1].Chain != "/etc/atento/b.yaml" {
		t.Errorf("absolute path must be kept, got %s", schedules[1].Chain)
	}

	if _, err := LoadSchedules(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNextRuns(t *testing.T) {
	sched := &Schedule{Name: "hourly", Cron: "30 * * * *", Timezone: "UTC"}
	from := time.Date(2026, 3, 1, 10, 45, 0, 0, time.UTC)

	runs, err := NextRuns(sched, from, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{
		time.Date(2026, 3, 1, 11, 30, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 13, 30, 0, 0, time.UTC),
	}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d", len(want), len(runs))
	}
	for i := range want {
		if !runs[i].Equal(want[i]) {
			t.Errorf("run %d: expected %v, got %v", i, want[i], runs[i])
		}
	}

	if _, err := NextRuns(&Schedule{Cron: "bad"}, from, 1); err == nil {
		t.Error("expected error for invalid cron")
	}
}

type capturePublisher struct {
	payloads []mq.ChainCompletedPayload
}

func (c *capturePublisher) PublishChainCompleted(_ context.Context, p mq.ChainCompletedPayload) error {
	c.payloads = append(c.payloads, p)
	return nil
}

func TestRunOnce(t *testing.T) {
	dir := t.TempDir()
	chainPath := writeFile(t, dir, "chain.yaml", `
name: greet
steps:
  s1:
    type: bash
    script: echo hi
    outputs:
      word:
        pattern: (\w+)
results:
  word:
    ref: steps.s1.outputs.word
`)

	var scripts []string
	r := runner.Func(func(_ context.Context, script string, _ interpreter.Spec, _ uint64) (*runner.Result, error) {
		scripts = append(scripts, script)
		return &runner.Result{Stdout: "hi"}, nil
	})

	pub := &capturePublisher{}
	s := New(Config{
		Runner:   r,
		Recorder: recorder.New(recorder.Config{Publisher: pub, Logger: quietLogger()}),
		Logger:   quietLogger(),
	})

	result, err := s.RunOnce(context.Background(), &Schedule{Name: "greeter", Chain: chainPath})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK() || result.Results["word"] != "hi" {
		t.Errorf("unexpected result %+v", result)
	}
	if len(scripts) != 1 || scripts[0] != "echo hi" {
		t.Errorf("unexpected scripts %v", scripts)
	}
	if len(pub.payloads) != 1 || pub.payloads[0].Source != "schedule:greeter" {
		t.Errorf("expected recorded event with schedule source, got %+v", pub.payloads)
	}
}

func TestRunOnce_InvalidChain(t *testing.T) {
	dir := t.TempDir()
	chainPath := writeFile(t, dir, "chain.yaml", "steps:\n  s1:\n    type: bash\n    script: echo {{ inputs.x }}\n")

	called := false
	r := runner.Func(func(context.Context, string, interpreter.Spec, uint64) (*runner.Result, error) {
		called = true
		return &runner.Result{}, nil
	})

	s := New(Config{Runner: r, Logger: quietLogger()})
	_, err := s.RunOnce(context.Background(), &Schedule{Name: "bad", Chain: chainPath})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Error("invalid chain must not run")
	}
}

func TestStartStop(t *testing.T) {
	s := New(Config{
		Schedules: []Schedule{
			{Name: "a", Cron: "0 0 1 1 *", Chain: "a.yaml", Enabled: true},
			{Name: "b", Cron: "0 0 1 1 *", Chain: "b.yaml", Enabled: false},
		},
		Runner: runner.Func(func(context.Context, string, interpreter.Spec, uint64) (*runner.Result, error) {
			return &runner.Result{}, nil
		}),
		Logger: quietLogger(),
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("expected 1 registered entry, got %d", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
