package engine

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/interpreter"
	"github.com/shaiso/Atento/internal/runner"
	"github.com/shaiso/Atento/internal/telemetry"
)

// DefaultStepTimeout — таймаут шага в секундах, если ключ timeout не задан.
const DefaultStepTimeout uint64 = 60

// placeholderRe — плейсхолдер входа в скрипте: {{ inputs.<name> }}.
var placeholderRe = regexp.MustCompile(`\{\{\s*inputs\.(\w+)\s*\}\}`)

// Step — один шаг chain.
type Step struct {
	// ID — ключ шага в секции steps.
	ID string `yaml:"-"`

	// Name — человекочитаемое имя (необязательно).
	Name string `yaml:"name"`

	// Timeout — таймаут в секундах. 0 — использовать остаток бюджета chain.
	Timeout uint64 `yaml:"timeout"`

	// Inputs — входы шага по имени плейсхолдера.
	Inputs map[string]domain.Input `yaml:"inputs"`

	// Interpreter — ключ интерпретатора (поле type в документе).
	Interpreter string `yaml:"type"`

	// Script — текст скрипта с плейсхолдерами {{ inputs.<name> }}.
	Script string `yaml:"script"`

	// Outputs — извлекаемые значения в порядке объявления.
	Outputs domain.Outputs `yaml:"outputs"`
}

// displayName возвращает имя шага для сообщений: Name или id.
func (s *Step) displayName(id string) string {
	if s.Name != "" {
		return s.Name
	}
	return id
}

// Validate проверяет шаг.
//
// Проверяет:
// - Каждый плейсхолдер ссылается на объявленный вход
// - Каждый объявленный вход используется в скрипте
// - Паттерны outputs непустые и компилируются
func (s *Step) Validate(id string) error {
	name := s.displayName(id)

	used := make(map[string]bool, len(s.Inputs))
	for _, m := range placeholderRe.FindAllStringSubmatch(s.Script, -1) {
		key := m[1]
		if _, ok := s.Inputs[key]; !ok {
			return domain.NewValidationError(
				"step '%s' script references input '%s' that is not declared", name, key)
		}
		used[key] = true
	}

	for _, key := range sortedKeys(s.Inputs) {
		if !used[key] {
			return domain.NewValidationError(
				"step '%s' has input '%s' that is declared but never used in the script", name, key)
		}
	}

	for _, out := range s.Outputs {
		if strings.TrimSpace(out.Pattern) == "" {
			return domain.NewValidationError(
				"output '%s' in step '%s' has empty capture pattern", out.Name, name)
		}
		if _, err := regexp.Compile(out.Pattern); err != nil {
			return domain.NewValidationError(
				"output '%s' in step '%s' has invalid regex pattern '%s': %v", out.Name, name, out.Pattern, err)
		}
	}

	return nil
}

// CalculateTimeout возвращает эффективный таймаут шага.
//
// Если оба значения положительны — минимум, иначе максимум
// (0 означает "без ограничения" только когда оба равны 0).
func (s *Step) CalculateTimeout(timeLeft uint64) uint64 {
	if s.Timeout > 0 && timeLeft > 0 {
		return min(s.Timeout, timeLeft)
	}
	return max(s.Timeout, timeLeft)
}

// BuildScript подставляет значения входов в скрипт.
// Плейсхолдеры неизвестных входов остаются как есть.
func (s *Step) BuildScript(inputs map[string]string) string {
	if s.Script == "" || len(inputs) == 0 {
		return s.Script
	}

	return placeholderRe.ReplaceAllStringFunc(s.Script, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		if v, ok := inputs[key]; ok {
			return v
		}
		return match
	})
}

// ExtractOutputs извлекает outputs из stdout в порядке объявления.
//
// Для каждого output берётся первое совпадение в текущем буфере,
// значение — первая группа захвата. Совпавший текст удаляется из буфера
// (все его вхождения), поэтому следующий output ищется в остатке.
//
// При ошибке возвращаются outputs, извлечённые до неё.
func (s *Step) ExtractOutputs(stdout *string) (map[string]string, error) {
	outputs := make(map[string]string, len(s.Outputs))

	for _, out := range s.Outputs {
		re, err := regexp.Compile(out.Pattern)
		if err != nil {
			return outputs, domain.NewExecutionError("invalid regex for output '%s': %v", out.Name, err)
		}

		m := re.FindStringSubmatch(*stdout)
		if m == nil {
			return outputs, domain.NewExecutionError(
				"output '%s' pattern '%s' did not match stdout", out.Name, out.Pattern)
		}
		if len(m) < 2 {
			return outputs, domain.NewExecutionError(
				"output '%s' regex '%s' did not capture a group", out.Name, out.Pattern)
		}

		outputs[out.Name] = m[1]
		if m[0] != "" {
			*stdout = strings.ReplaceAll(*stdout, m[0], "")
		}
	}

	return outputs, nil
}

// Run выполняет шаг через runner.
//
// Ошибки не возвращаются, а записываются в StepResult.Err:
// ошибка runner даёт ExitCode = -1 без stdout/stderr,
// ошибка извлечения сохраняет вывод и уже извлечённые outputs.
func (s *Step) Run(ctx context.Context, r runner.Runner, spec interpreter.Spec, inputs map[string]string, timeLeft uint64) *domain.StepResult {
	logger := telemetry.WithStep(telemetry.FromContext(ctx), s.ID)

	script := s.BuildScript(inputs)
	timeout := s.CalculateTimeout(timeLeft)

	result := &domain.StepResult{
		ID:     s.ID,
		Name:   s.Name,
		Inputs: copyMap(inputs),
	}

	logger.Debug("step started", "interpreter", s.Interpreter, "timeout_secs", timeout)

	start := time.Now()
	res, err := r.Execute(ctx, script, spec, timeout)
	elapsed := time.Since(start)
	result.DurationMs = elapsed.Milliseconds()
	telemetry.ObserveStep(s.Interpreter, elapsed)

	if err != nil {
		result.ExitCode = -1
		result.Err = err
		logger.Warn("step failed", "error", err, "duration_ms", result.DurationMs)
		return result
	}

	result.ExitCode = res.ExitCode
	result.Stderr = strings.TrimSpace(res.Stderr)

	stdout := strings.TrimSpace(res.Stdout)
	outputs, err := s.ExtractOutputs(&stdout)
	result.Stdout = strings.TrimSpace(stdout)
	if len(outputs) > 0 {
		result.Outputs = outputs
	}
	if err != nil {
		result.Err = err
		logger.Warn("step output extraction failed", "error", err, "exit_code", res.ExitCode)
		return result
	}

	logger.Debug("step finished", "exit_code", res.ExitCode, "duration_ms", result.DurationMs)
	return result
}

func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
