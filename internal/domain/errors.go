package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind — вид ошибки из закрытой таксономии Atento.
type ErrorKind string

// Виды ошибок.
const (
	KindIO                  ErrorKind = "Io"
	KindParse               ErrorKind = "ParseError"
	KindValidation          ErrorKind = "Validation"
	KindExecution           ErrorKind = "Execution"
	KindStepExecution       ErrorKind = "StepExecution"
	KindTypeConversion      ErrorKind = "TypeConversion"
	KindUnresolvedReference ErrorKind = "UnresolvedReference"
	KindTimeout             ErrorKind = "Timeout"
	KindRunner              ErrorKind = "Runner"
)

// Базовые ошибки для errors.Is.
var (
	// ErrIO — файл не удалось прочитать.
	ErrIO = errors.New("io error")

	// ErrParse — документ chain не удалось разобрать.
	ErrParse = errors.New("parse error")

	// ErrValidation — chain не прошёл валидацию.
	ErrValidation = errors.New("validation error")

	// ErrExecution — ошибка выполнения (разбор stdout, конвертация входов).
	ErrExecution = errors.New("execution error")

	// ErrStepExecution — шаг завершился с ошибкой.
	ErrStepExecution = errors.New("step execution error")

	// ErrTypeConversion — значение не соответствует объявленному типу.
	ErrTypeConversion = errors.New("type conversion error")

	// ErrUnresolvedReference — ссылка не разрешается.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrTimeout — превышен таймаут.
	ErrTimeout = errors.New("timeout")

	// ErrRunner — ошибка запуска процесса.
	ErrRunner = errors.New("runner error")
)

// KindError — ошибка, знающая свой вид.
type KindError interface {
	error
	Kind() ErrorKind
}

// KindOf возвращает вид ошибки или пустую строку для посторонних ошибок.
func KindOf(err error) ErrorKind {
	var ke KindError
	if errors.As(err, &ke) {
		return ke.Kind()
	}
	return ""
}

// taggedError — JSON-представление ошибки: {"type": ..., "data": ...}.
type taggedError struct {
	Type ErrorKind `json:"type"`
	Data any       `json:"data"`
}

func marshalTagged(kind ErrorKind, data any) ([]byte, error) {
	return json.Marshal(taggedError{Type: kind, Data: data})
}

// IOError — ошибка чтения файла.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to read file '%s': %v", e.Path, e.Err)
}

func (e *IOError) Kind() ErrorKind { return KindIO }

func (e *IOError) Is(target error) bool { return target == ErrIO }

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) MarshalJSON() ([]byte, error) {
	return marshalTagged(KindIO, map[string]string{
		"path":   e.Path,
		"source": fmt.Sprint(e.Err),
	})
}

// ParseError — ошибка разбора YAML/JSON документа.
type ParseError struct {
	Context string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse YAML in '%s': %v", e.Context, e.Err)
}

func (e *ParseError) Kind() ErrorKind { return KindParse }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) MarshalJSON() ([]byte, error) {
	return marshalTagged(KindParse, map[string]string{
		"context": e.Context,
		"source":  fmt.Sprint(e.Err),
	})
}

// ValidationError — chain или шаг невалиден.
type ValidationError struct {
	Message string
}

// NewValidationError создаёт ValidationError с форматированным сообщением.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return "chain validation failed: " + e.Message
}

func (e *ValidationError) Kind() ErrorKind { return KindValidation }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) MarshalJSON() ([]byte, error) {
	return marshalTagged(KindValidation, e.Message)
}

// ExecutionError — ошибка во время выполнения шага или chain.
type ExecutionError struct {
	Message string
}

// NewExecutionError создаёт ExecutionError с форматированным сообщением.
func NewExecutionError(format string, args ...any) *ExecutionError {
	return &ExecutionError{Message: fmt.Sprintf(format, args...)}
}

func (e *ExecutionError) Error() string {
	return "chain execution failed: " + e.Message
}

func (e *ExecutionError) Kind() ErrorKind { return KindExecution }

func (e *ExecutionError) Unwrap() error { return ErrExecution }

func (e *ExecutionError) MarshalJSON() ([]byte, error) {
	return marshalTagged(KindExecution, e.Message)
}

// StepExecutionError — обёртка над ошибкой конкретного шага.
type StepExecutionError struct {
	Step   string
	Reason string
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step '%s' failed: %s", e.Step, e.Reason)
}

func (e *StepExecutionError) Kind() ErrorKind { return KindStepExecution }

func (e *StepExecutionError) Unwrap() error { return ErrStepExecution }

func (e *StepExecutionError) MarshalJSON() ([]byte, error) {
	return marshalTagged(KindStepExecution, map[string]string{
		"step":   e.Step,
		"reason": e.Reason,
	})
}

// TypeConversionError — значение не подходит под DataType.
type TypeConversionError struct {
	Expected string
	Got      string
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("expected %s value, got: %s", e.Expected, e.Got)
}

func (e *TypeConversionError) Kind() ErrorKind { return KindTypeConversion }

func (e *TypeConversionError) Unwrap() error { return ErrTypeConversion }

func (e *TypeConversionError) MarshalJSON() ([]byte, error) {
	return marshalTagged(KindTypeConversion, map[string]string{
		"expected": e.Expected,
		"got":      e.Got,
	})
}

// UnresolvedReferenceError — ссылка на параметр или output не найдена.
type UnresolvedReferenceError struct {
	Reference string
	Context   string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference '%s' in %s", e.Reference, e.Context)
}

func (e *UnresolvedReferenceError) Kind() ErrorKind { return KindUnresolvedReference }

func (e *UnresolvedReferenceError) Unwrap() error { return ErrUnresolvedReference }

func (e *UnresolvedReferenceError) MarshalJSON() ([]byte, error) {
	return marshalTagged(KindUnresolvedReference, map[string]string{
		"reference": e.Reference,
		"context":   e.Context,
	})
}

// TimeoutError — превышен таймаут шага или chain.
type TimeoutError struct {
	Context     string
	TimeoutSecs uint64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timeout after %ds", e.Context, e.TimeoutSecs)
}

func (e *TimeoutError) Kind() ErrorKind { return KindTimeout }

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

func (e *TimeoutError) MarshalJSON() ([]byte, error) {
	return marshalTagged(KindTimeout, map[string]any{
		"context":      e.Context,
		"timeout_secs": e.TimeoutSecs,
	})
}

// RunnerError — процесс не удалось запустить или дождаться.
type RunnerError struct {
	Message string
}

// NewRunnerError создаёт RunnerError с форматированным сообщением.
func NewRunnerError(format string, args ...any) *RunnerError {
	return &RunnerError{Message: fmt.Sprintf(format, args...)}
}

func (e *RunnerError) Error() string {
	return "runner error: " + e.Message
}

func (e *RunnerError) Kind() ErrorKind { return KindRunner }

func (e *RunnerError) Unwrap() error { return ErrRunner }

func (e *RunnerError) MarshalJSON() ([]byte, error) {
	return marshalTagged(KindRunner, e.Message)
}

// Errors — упорядоченный список ошибок выполнения.
type Errors []error

// MarshalJSON реализует json.Marshaler.
func (errs Errors) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(errs))
	for _, err := range errs {
		b, mErr := MarshalError(err)
		if mErr != nil {
			return nil, mErr
		}
		out = append(out, b)
	}
	return json.Marshal(out)
}

// MarshalError сериализует ошибку в форме {"type": ..., "data": ...}.
// Ошибки вне таксономии сериализуются как Execution.
func MarshalError(err error) ([]byte, error) {
	if m, ok := err.(json.Marshaler); ok {
		return m.MarshalJSON()
	}
	return marshalTagged(KindExecution, err.Error())
}

// Strings возвращает сообщения всех ошибок.
func (errs Errors) Strings() []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
