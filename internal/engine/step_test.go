package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/interpreter"
	"github.com/shaiso/Atento/internal/runner"
)

var bashSpec = interpreter.Spec{Command: "bash", Extension: ".sh"}

// stubRunner возвращает заданный результат и запоминает вызов.
type stubRunner struct {
	result *runner.Result
	err    error

	calls   int
	script  string
	timeout uint64
}

func (s *stubRunner) Execute(_ context.Context, script string, _ interpreter.Spec, timeoutSecs uint64) (*runner.Result, error) {
	s.calls++
	s.script = script
	s.timeout = timeoutSecs
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestStep_Validate(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		wantErr string
	}{
		{
			name: "valid",
			step: Step{
				Script:  "echo {{ inputs.a }} {{inputs.b}}",
				Inputs:  map[string]domain.Input{"a": domain.RefInput("parameters.a"), "b": domain.InlineInput(domain.TypeInt, 1)},
				Outputs: domain.Outputs{{Name: "x", Pattern: `x=(\d+)`}},
			},
		},
		{
			name:    "undeclared placeholder",
			step:    Step{Script: "echo {{ inputs.x }}"},
			wantErr: "references input 'x' that is not declared",
		},
		{
			name: "unused input",
			step: Step{
				Script: "echo hi",
				Inputs: map[string]domain.Input{"a": domain.InlineInput(domain.TypeString, "v")},
			},
			wantErr: "has input 'a' that is declared but never used",
		},
		{
			name:    "blank pattern",
			step:    Step{Script: "echo", Outputs: domain.Outputs{{Name: "x", Pattern: "   "}}},
			wantErr: "output 'x' in step 's1' has empty capture pattern",
		},
		{
			name:    "invalid regex",
			step:    Step{Script: "echo", Outputs: domain.Outputs{{Name: "x", Pattern: "(unclosed"}}},
			wantErr: "has invalid regex pattern '(unclosed'",
		},
		{
			name:    "name used in messages",
			step:    Step{Name: "Pretty", Script: "echo {{ inputs.y }}"},
			wantErr: "step 'Pretty' script references input 'y'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate("s1")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q in %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestStep_CalculateTimeout(t *testing.T) {
	tests := []struct {
		step, left, want uint64
	}{
		{0, 0, 0},
		{0, 30, 30},
		{30, 0, 30},
		{10, 30, 10},
		{30, 10, 10},
		{5, 5, 5},
	}

	for _, tt := range tests {
		s := Step{Timeout: tt.step}
		if got := s.CalculateTimeout(tt.left); got != tt.want {
			t.Errorf("CalculateTimeout(step=%d, left=%d) = %d, want %d", tt.step, tt.left, got, tt.want)
		}
	}
}

func TestStep_BuildScript(t *testing.T) {
	s := Step{Script: "echo {{ inputs.a }}-{{inputs.b}}-{{  inputs.missing  }}"}

	got := s.BuildScript(map[string]string{"a": "1", "b": "two"})
	want := "echo 1-two-{{  inputs.missing  }}"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := s.BuildScript(nil); got != s.Script {
		t.Errorf("expected script unchanged without inputs, got %q", got)
	}
}

func TestStep_ExtractOutputs_RoundTrip(t *testing.T) {
	s := Step{Outputs: domain.Outputs{{Name: "value", Pattern: `value: (\d+)`}}}

	stdout := "value: 42\n"
	outputs, err := s.ExtractOutputs(&stdout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outputs) != 1 || outputs["value"] != "42" {
		t.Errorf("unexpected outputs %v", outputs)
	}
	if stdout != "\n" {
		t.Errorf("expected residual newline, got %q", stdout)
	}
}

func TestStep_ExtractOutputs_ConsumesBuffer(t *testing.T) {
	// Оба outputs совпадают с одинаковым паттерном: второй ищется в остатке.
	s := Step{Outputs: domain.Outputs{
		{Name: "first", Pattern: `n=(\d+)`},
		{Name: "second", Pattern: `n=(\d+)`},
	}}

	stdout := "n=1\nn=2\n"
	outputs, err := s.ExtractOutputs(&stdout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["first"] != "1" || outputs["second"] != "2" {
		t.Errorf("unexpected outputs %v", outputs)
	}
}

func TestStep_ExtractOutputs_RemovesAllOccurrences(t *testing.T) {
	s := Step{Outputs: domain.Outputs{
		{Name: "first", Pattern: `n=(\d+)`},
		{Name: "second", Pattern: `n=(\d+)`},
	}}

	stdout := "n=1 n=1"
	outputs, err := s.ExtractOutputs(&stdout)
	if err == nil {
		t.Fatal("expected second output to miss after first consumed every occurrence")
	}
	if outputs["first"] != "1" {
		t.Errorf("expected partial output first=1, got %v", outputs)
	}
	if !strings.Contains(err.Error(), "output 'second' pattern 'n=(\\d+)' did not match stdout") {
		t.Errorf("unexpected error %q", err.Error())
	}
}

func TestStep_ExtractOutputs_NoGroup(t *testing.T) {
	s := Step{Outputs: domain.Outputs{{Name: "x", Pattern: `done`}}}

	stdout := "done"
	_, err := s.ExtractOutputs(&stdout)
	if !errors.Is(err, domain.ErrExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
	if !strings.Contains(err.Error(), "did not capture a group") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestStep_Run_Success(t *testing.T) {
	s := &Step{
		ID:      "s1",
		Name:    "First",
		Timeout: 20,
		Script:  "echo {{ inputs.who }}",
		Inputs:  map[string]domain.Input{"who": domain.InlineInput(domain.TypeString, "world")},
		Outputs: domain.Outputs{{Name: "greeting", Pattern: `greeting=(\w+)`}},
	}
	r := &stubRunner{result: &runner.Result{Stdout: "  greeting=hello\nrest  ", Stderr: " warn ", ExitCode: 0}}

	res := s.Run(context.Background(), r, bashSpec, map[string]string{"who": "world"}, 100)

	if r.script != "echo world" {
		t.Errorf("unexpected script %q", r.script)
	}
	if r.timeout != 20 {
		t.Errorf("expected timeout 20, got %d", r.timeout)
	}
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Outputs["greeting"] != "hello" {
		t.Errorf("unexpected outputs %v", res.Outputs)
	}
	if res.Stdout != "rest" {
		t.Errorf("expected residual stdout, got %q", res.Stdout)
	}
	if res.Stderr != "warn" {
		t.Errorf("expected trimmed stderr, got %q", res.Stderr)
	}
	if res.Name != "First" || res.ID != "s1" {
		t.Errorf("unexpected identity %q/%q", res.ID, res.Name)
	}
	if res.Inputs["who"] != "world" {
		t.Errorf("expected inputs recorded, got %v", res.Inputs)
	}
}

func TestStep_Run_RunnerError(t *testing.T) {
	s := &Step{ID: "s1", Script: "sleep 10"}
	r := &stubRunner{err: &domain.TimeoutError{Context: "step execution", TimeoutSecs: 1}}

	res := s.Run(context.Background(), r, bashSpec, nil, 1)

	if res.ExitCode != -1 {
		t.Errorf("expected exit code -1, got %d", res.ExitCode)
	}
	if res.Stdout != "" || res.Stderr != "" {
		t.Error("expected no stdout/stderr")
	}
	if !errors.Is(res.Err, domain.ErrTimeout) {
		t.Errorf("expected timeout error, got %v", res.Err)
	}
}

func TestStep_Run_NonZeroExitWithoutOutputs(t *testing.T) {
	s := &Step{ID: "s1", Script: "exit 2"}
	r := &stubRunner{result: &runner.Result{ExitCode: 2}}

	res := s.Run(context.Background(), r, bashSpec, nil, 0)
	if res.Err != nil {
		t.Errorf("non-zero exit must not be an error, got %v", res.Err)
	}
	if res.ExitCode != 2 {
		t.Errorf("expected exit code 2, got %d", res.ExitCode)
	}
}
