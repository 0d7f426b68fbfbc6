package runner

import (
	"context"
	"time"

	"github.com/shaiso/Atento/internal/interpreter"
)

// Runner — граница между движком и операционной системой.
//
// Реализации: SystemRunner (реальные процессы), fake-реализации в тестах.
//
// Ненулевой код выхода не является ошибкой: он возвращается в Result.
// Ошибка означает, что процесс не удалось запустить, дождаться
// или он превысил таймаут.
type Runner interface {
	Execute(ctx context.Context, script string, spec interpreter.Spec, timeoutSecs uint64) (*Result, error)
}

// Result — результат выполнения скрипта.
type Result struct {
	// Stdout — стандартный вывод без пробелов по краям.
	Stdout string

	// Stderr — поток ошибок без пробелов по краям и без служебного шума.
	Stderr string

	// ExitCode — код выхода процесса (-1, если процесс убит сигналом).
	ExitCode int

	// Duration — время выполнения процесса.
	Duration time.Duration
}

// Func — адаптер, позволяющий использовать функцию как Runner.
type Func func(ctx context.Context, script string, spec interpreter.Spec, timeoutSecs uint64) (*Result, error)

// Execute вызывает f.
func (f Func) Execute(ctx context.Context, script string, spec interpreter.Spec, timeoutSecs uint64) (*Result, error) {
	return f(ctx, script, spec, timeoutSecs)
}
