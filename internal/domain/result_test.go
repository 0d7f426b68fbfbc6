package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestChainResult_MarshalJSON_OmitsEmpty(t *testing.T) {
	result := &ChainResult{DurationMs: 5, Status: ChainStatusOK}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got := string(data)
	if got != `{"duration_ms":5,"status":"ok"}` {
		t.Errorf("unexpected json: %s", got)
	}
}

func TestChainResult_MarshalJSON_StepOrder(t *testing.T) {
	result := &ChainResult{
		Name: "demo",
		Steps: StepResults{
			{ID: "zeta", ExitCode: 0, Outputs: map[string]string{"v": "1"}},
			{ID: "alpha", ExitCode: 1, Stdout: "out"},
		},
		Status: ChainStatusNOK,
		Errors: Errors{&StepExecutionError{Step: "alpha", Reason: "boom"}},
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got := string(data)
	zeta := strings.Index(got, `"zeta"`)
	alpha := strings.Index(got, `"alpha":{`)
	if zeta < 0 || alpha < 0 || zeta > alpha {
		t.Errorf("expected zeta before alpha: %s", got)
	}
	if !strings.Contains(got, `"type":"StepExecution"`) {
		t.Errorf("expected tagged error: %s", got)
	}
}

func TestStepResult_MarshalJSON_Error(t *testing.T) {
	r := &StepResult{
		ID:       "s1",
		ExitCode: -1,
		Err:      NewRunnerError("script cannot be empty"),
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["stdout"]; ok {
		t.Error("stdout must be omitted")
	}
	if _, ok := decoded["name"]; ok {
		t.Error("name must be omitted")
	}
	if string(decoded["exit_code"]) != "-1" {
		t.Errorf("expected exit_code -1, got %s", decoded["exit_code"])
	}
	if !strings.Contains(string(decoded["error"]), `"type":"Runner"`) {
		t.Errorf("unexpected error field: %s", decoded["error"])
	}
}

func TestNewChainRun(t *testing.T) {
	started := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	result := &ChainResult{
		Name:       "nightly",
		DurationMs: 1500,
		Errors:     Errors{NewExecutionError("x")},
		Status:     ChainStatusNOK,
	}

	run, err := NewChainRun(ScheduleSource("nightly"), result, started)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Source != "schedule:nightly" {
		t.Errorf("unexpected source %q", run.Source)
	}
	if run.ErrorCount != 1 || run.Status != ChainStatusNOK {
		t.Errorf("unexpected run: %+v", run)
	}
	if !run.FinishedAt.Equal(started.Add(1500 * time.Millisecond)) {
		t.Errorf("unexpected finished_at %v", run.FinishedAt)
	}
	if !json.Valid(run.Result) {
		t.Error("result must be valid json")
	}
}

func TestStatusFor(t *testing.T) {
	if StatusFor(0) != ChainStatusOK {
		t.Error("expected ok")
	}
	if StatusFor(2) != ChainStatusNOK {
		t.Error("expected nok")
	}
	if ParseChainStatus("weird") != ChainStatusNOK {
		t.Error("expected nok for unknown")
	}
}

func TestStepResult_Failed(t *testing.T) {
	ok := &StepResult{ID: "s1", ExitCode: 3}
	if ok.Failed() {
		t.Error("non-zero exit code alone must not fail the step")
	}

	failed := &StepResult{ID: "s1", ExitCode: -1, Err: NewRunnerError("boom")}
	if !failed.Failed() {
		t.Error("step with error must be failed")
	}
}
