package engine

import (
	"context"
	"strings"
	"time"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/interpreter"
	"github.com/shaiso/Atento/internal/runner"
	"github.com/shaiso/Atento/internal/telemetry"
)

// DefaultChainTimeout — таймаут chain в секундах, если ключ timeout не задан.
const DefaultChainTimeout uint64 = 300

// now — источник времени для бюджета chain, подменяется в тестах.
var now = time.Now

// Chain — последовательность шагов с параметрами и именованными результатами.
//
// Шаги выполняются строго в порядке объявления. Шаг может ссылаться
// только на параметры и outputs предшествующих шагов.
type Chain struct {
	// Name — имя chain (необязательно).
	Name string

	// Timeout — общий бюджет в секундах. 0 — без ограничения.
	Timeout uint64

	// Interpreters — встроенные интерпретаторы, перекрытые пользовательскими.
	Interpreters *interpreter.Registry

	// Parameters — параметры, доступные как parameters.<name>.
	Parameters map[string]domain.Parameter

	// Steps — шаги в порядке объявления.
	Steps []*Step

	// Results — именованные результаты chain.
	Results map[string]domain.ResultRef
}

// NewChain создаёт пустой chain с таймаутом по умолчанию и встроенными интерпретаторами.
func NewChain() *Chain {
	return &Chain{
		Timeout:      DefaultChainTimeout,
		Interpreters: interpreter.DefaultRegistry(),
		Parameters:   make(map[string]domain.Parameter),
		Results:      make(map[string]domain.ResultRef),
	}
}

// Validate проверяет структуру chain без выполнения.
//
// Проверяет:
// - Ref-входы ссылаются на параметр или output более раннего шага
// - Ссылка на output более позднего шага — forward reference
// - Каждый шаг валиден (Step.Validate)
// - Результаты ссылаются на существующие outputs
//
// Входы, параметры и результаты обходятся в отсортированном порядке,
// поэтому первая найденная ошибка всегда одна и та же.
func (c *Chain) Validate() error {
	known := make(map[string]bool, len(c.Parameters))
	for name := range c.Parameters {
		known[domain.ParameterKey(name)] = true
	}

	for i, step := range c.Steps {
		for _, inputName := range sortedKeys(step.Inputs) {
			in := step.Inputs[inputName]
			if !in.IsRef() || known[in.Ref] {
				continue
			}

			if c.declaredAfter(i, in.Ref) {
				return domain.NewValidationError(
					"input '%s' in step '%s' references '%s', which is a future step output",
					inputName, step.ID, in.Ref)
			}
			return &domain.UnresolvedReferenceError{
				Reference: in.Ref,
				Context:   "step '" + step.ID + "'",
			}
		}

		if err := step.Validate(step.ID); err != nil {
			return err
		}

		for _, out := range step.Outputs {
			if out.Pattern == "" {
				return domain.NewValidationError(
					"output '%s' in step '%s' has empty capture pattern", out.Name, step.ID)
			}
			known[domain.OutputKey(step.ID, out.Name)] = true
		}
	}

	for _, name := range sortedKeys(c.Results) {
		ref := c.Results[name].Ref
		if !known[ref] || !isOutputKey(ref) {
			return &domain.UnresolvedReferenceError{
				Reference: ref,
				Context:   "chain result '" + name + "'",
			}
		}
	}

	return nil
}

// declaredAfter проверяет, объявлен ли ref как output шага после позиции i.
func (c *Chain) declaredAfter(i int, ref string) bool {
	for _, later := range c.Steps[i+1:] {
		for _, out := range later.Outputs {
			if domain.OutputKey(later.ID, out.Name) == ref {
				return true
			}
		}
	}
	return false
}

func isOutputKey(ref string) bool {
	return strings.HasPrefix(ref, domain.StepsPrefix)
}

// runState — изменяемое состояние одного выполнения chain.
type runState struct {
	start    time.Time
	resolved map[string]string
	steps    domain.StepResults
	errors   domain.Errors
}

// Run выполняет chain.
//
// Цикл по шагам в порядке объявления:
//  1. Проверка бюджета chain (остаток времени передаётся шагу)
//  2. Разрешение входов: параметр (без префикса parameters.), затем output
//  3. Поиск интерпретатора
//  4. Выполнение шага, запись его outputs (даже у упавшего шага)
//  5. Ошибка шага останавливает цикл
//
// Затем разрешаются результаты и сериализуются параметры.
// Ошибки не возвращаются, а накапливаются в ChainResult.Errors.
func (c *Chain) Run(ctx context.Context, r runner.Runner) *domain.ChainResult {
	logger := telemetry.FromContext(ctx)
	if c.Name != "" {
		logger = telemetry.WithChain(logger, c.Name)
	}
	ctx = telemetry.WithLogger(ctx, logger)

	st := &runState{
		start:    now(),
		resolved: make(map[string]string),
	}

	for _, step := range c.Steps {
		if !c.runStep(ctx, r, st, step) {
			break
		}
	}

	results, resultErrs := c.collectResults(st.resolved)
	st.errors = append(st.errors, resultErrs...)

	params, paramErr := c.serializeParameters()
	if paramErr != nil {
		st.errors = append(st.errors, paramErr)
	}

	elapsed := now().Sub(st.start)
	result := &domain.ChainResult{
		Name:       c.Name,
		DurationMs: elapsed.Milliseconds(),
		Parameters: params,
		Steps:      st.steps,
		Results:    results,
		Errors:     st.errors,
		Status:     domain.StatusFor(len(st.errors)),
	}

	telemetry.ObserveChain(result.Status.String(), elapsed)
	if result.OK() {
		logger.Info("chain completed", "status", result.Status, "duration_ms", result.DurationMs, "steps", len(st.steps))
	} else {
		logger.Warn("chain completed with errors", "status", result.Status, "duration_ms", result.DurationMs,
			"steps", len(st.steps), "errors", len(st.errors))
	}

	return result
}

// runStep выполняет один шаг. Возвращает false, если цикл нужно остановить.
func (c *Chain) runStep(ctx context.Context, r runner.Runner, st *runState, step *Step) bool {
	timeLeft, err := c.timeLeft(st.start, step.ID)
	if err != nil {
		st.errors = append(st.errors, err)
		return false
	}

	inputs, err := c.resolveInputs(step, st.resolved)
	if err != nil {
		st.errors = append(st.errors, err)
		return false
	}

	spec, err := c.lookupInterpreter(step)
	if err != nil {
		st.errors = append(st.errors, err)
		return false
	}

	res := step.Run(ctx, r, spec, inputs, timeLeft)
	for name, value := range res.Outputs {
		st.resolved[domain.OutputKey(step.ID, name)] = value
	}
	st.steps = append(st.steps, res)

	if res.Failed() {
		telemetry.StepFailed(string(domain.KindOf(res.Err)))
		st.errors = append(st.errors, &domain.StepExecutionError{
			Step:   step.ID,
			Reason: res.Err.Error(),
		})
		return false
	}
	return true
}

// timeLeft возвращает остаток бюджета в секундах (0 — без ограничения).
func (c *Chain) timeLeft(start time.Time, stepID string) (uint64, error) {
	if c.Timeout == 0 {
		return 0, nil
	}

	elapsed := uint64(now().Sub(start) / time.Second)
	if elapsed >= c.Timeout {
		return 0, &domain.TimeoutError{
			Context:     "chain timed out before step '" + stepID + "'",
			TimeoutSecs: c.Timeout,
		}
	}
	return c.Timeout - elapsed, nil
}

// resolveInputs превращает входы шага в строки.
func (c *Chain) resolveInputs(step *Step, resolved map[string]string) (map[string]string, error) {
	inputs := make(map[string]string, len(step.Inputs))

	for _, name := range sortedKeys(step.Inputs) {
		in := step.Inputs[name]

		if !in.IsRef() {
			v, err := domain.ToStringValue(in.Type, in.Value)
			if err != nil {
				return nil, domain.NewExecutionError("input '%s' in step '%s': %v", name, step.ID, err)
			}
			inputs[name] = v
			continue
		}

		paramName, _ := domain.TrimParametersPrefix(in.Ref)
		if param, ok := c.Parameters[paramName]; ok {
			v, err := param.ToString()
			if err != nil {
				return nil, domain.NewExecutionError("parameter '%s' in step '%s': %v", name, step.ID, err)
			}
			inputs[name] = v
			continue
		}

		if v, ok := resolved[in.Ref]; ok {
			inputs[name] = v
			continue
		}

		return nil, &domain.UnresolvedReferenceError{
			Reference: in.Ref,
			Context:   "step '" + step.ID + "'",
		}
	}

	return inputs, nil
}

func (c *Chain) lookupInterpreter(step *Step) (interpreter.Spec, error) {
	registry := c.Interpreters
	if registry == nil {
		registry = interpreter.DefaultRegistry()
	}

	spec, err := registry.Get(step.Interpreter)
	if err != nil {
		return interpreter.Spec{}, domain.NewValidationError(
			"unknown interpreter '%s' in step '%s'", step.Interpreter, step.ID)
	}
	return spec, nil
}

// collectResults разрешает именованные результаты по outputs шагов.
func (c *Chain) collectResults(resolved map[string]string) (map[string]string, []error) {
	var (
		results map[string]string
		errs    []error
	)

	for _, name := range sortedKeys(c.Results) {
		ref := c.Results[name].Ref
		v, ok := resolved[ref]
		if !ok {
			errs = append(errs, &domain.UnresolvedReferenceError{
				Reference: ref,
				Context:   "chain result '" + name + "'",
			})
			continue
		}
		if results == nil {
			results = make(map[string]string)
		}
		results[name] = v
	}

	return results, errs
}

// serializeParameters конвертирует параметры в строки.
// Первая ошибка отменяет весь блок.
func (c *Chain) serializeParameters() (map[string]string, error) {
	if len(c.Parameters) == 0 {
		return nil, nil
	}

	params := make(map[string]string, len(c.Parameters))
	for _, name := range sortedKeys(c.Parameters) {
		v, err := c.Parameters[name].ToString()
		if err != nil {
			return nil, err
		}
		params[name] = v
	}
	return params, nil
}

// StepIDs возвращает ID шагов в порядке выполнения.
func (c *Chain) StepIDs() []string {
	ids := make([]string, len(c.Steps))
	for i, s := range c.Steps {
		ids[i] = s.ID
	}
	return ids
}
