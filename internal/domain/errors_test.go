package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestErrors_Messages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewValidationError("bad %s", "thing"), "chain validation failed: bad thing"},
		{NewExecutionError("oops"), "chain execution failed: oops"},
		{&StepExecutionError{Step: "s1", Reason: "boom"}, "step 's1' failed: boom"},
		{&TypeConversionError{Expected: "int", Got: `"x"`}, `expected int value, got: "x"`},
		{&UnresolvedReferenceError{Reference: "parameters.x", Context: "step 's1'"}, "unresolved reference 'parameters.x' in step 's1'"},
		{&TimeoutError{Context: "step execution", TimeoutSecs: 5}, "step execution timeout after 5s"},
		{NewRunnerError("script cannot be empty"), "runner error: script cannot be empty"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestErrors_IsAndKind(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		kind     ErrorKind
	}{
		{&IOError{Path: "x", Err: os.ErrNotExist}, ErrIO, KindIO},
		{&ParseError{Context: "x", Err: errors.New("bad")}, ErrParse, KindParse},
		{NewValidationError("v"), ErrValidation, KindValidation},
		{NewExecutionError("e"), ErrExecution, KindExecution},
		{&StepExecutionError{Step: "s"}, ErrStepExecution, KindStepExecution},
		{&TypeConversionError{}, ErrTypeConversion, KindTypeConversion},
		{&UnresolvedReferenceError{}, ErrUnresolvedReference, KindUnresolvedReference},
		{&TimeoutError{}, ErrTimeout, KindTimeout},
		{NewRunnerError("r"), ErrRunner, KindRunner},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			wrapped := fmt.Errorf("context: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("expected errors.Is to match %v", tt.sentinel)
			}
			if got := KindOf(wrapped); got != tt.kind {
				t.Errorf("expected kind %q, got %q", tt.kind, got)
			}
		})
	}
}

func TestIOError_KeepsCause(t *testing.T) {
	err := &IOError{Path: "chain.yaml", Err: os.ErrNotExist}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("expected cause to be reachable")
	}
}

func TestKindOf_Foreign(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("expected empty kind, got %q", got)
	}
}

func TestErrors_MarshalJSON(t *testing.T) {
	errs := Errors{
		NewValidationError("bad"),
		&TimeoutError{Context: "step execution", TimeoutSecs: 3},
		errors.New("plain"),
	}

	data, err := json.Marshal(errs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded []struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(decoded))
	}

	if decoded[0].Type != "Validation" || string(decoded[0].Data) != `"bad"` {
		t.Errorf("unexpected validation entry: %s %s", decoded[0].Type, decoded[0].Data)
	}

	if decoded[1].Type != "Timeout" {
		t.Errorf("expected Timeout, got %s", decoded[1].Type)
	}
	var timeout struct {
		Context     string `json:"context"`
		TimeoutSecs uint64 `json:"timeout_secs"`
	}
	if err := json.Unmarshal(decoded[1].Data, &timeout); err != nil {
		t.Fatalf("unmarshal timeout: %v", err)
	}
	if timeout.TimeoutSecs != 3 || timeout.Context != "step execution" {
		t.Errorf("unexpected timeout data: %+v", timeout)
	}

	if decoded[2].Type != "Execution" || string(decoded[2].Data) != `"plain"` {
		t.Errorf("unexpected foreign entry: %s %s", decoded[2].Type, decoded[2].Data)
	}
}
