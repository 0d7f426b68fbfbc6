package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/interpreter"
)

const (
	// DefaultTimeout — верхняя граница для шага без таймаута.
	DefaultTimeout = 24 * time.Hour

	tempFilePrefix = "atento_"

	// maxTimeoutSecs — наибольший таймаут, представимый в time.Duration.
	maxTimeoutSecs = uint64(math.MaxInt64 / int64(time.Second))

	// waitDelay — сколько ждать закрытия pipe после завершения процесса.
	waitDelay = 5 * time.Second
)

// stderrNoise — строки stderr, содержащие эти подстроки, отбрасываются.
var stderrNoise = []string{"[Perftrack", "NamedPipeIPC"}

// Config — конфигурация SystemRunner.
type Config struct {
	// TempDir — каталог для временных файлов скриптов.
	// Если пусто, используется ATENTO_TEMP_DIR или os.TempDir().
	TempDir string

	// DefaultTimeout — таймаут для timeoutSecs = 0. По умолчанию 24 часа.
	DefaultTimeout time.Duration

	Logger *slog.Logger
}

// SystemRunner — Runner, запускающий скрипты в реальных процессах.
//
// Скрипт записывается во временный файл с расширением интерпретатора,
// затем запускается как Command Args... <файл>. Файл удаляется всегда.
type SystemRunner struct {
	tempDir        string
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// NewSystemRunner создаёт SystemRunner.
func NewSystemRunner(cfg Config) *SystemRunner {
	if cfg.TempDir == "" {
		cfg.TempDir = os.Getenv("ATENTO_TEMP_DIR")
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &SystemRunner{
		tempDir:        cfg.TempDir,
		defaultTimeout: cfg.DefaultTimeout,
		logger:         cfg.Logger,
	}
}

// Execute выполняет скрипт с жёстким таймаутом.
//
// По таймауту процесс (вместе с группой процессов на Unix) убивается
// и возвращается *domain.TimeoutError. Отмена ctx тоже убивает процесс
// и возвращается *domain.RunnerError.
func (r *SystemRunner) Execute(ctx context.Context, script string, spec interpreter.Spec, timeoutSecs uint64) (*Result, error) {
	if script == "" {
		return nil, domain.NewRunnerError("script cannot be empty")
	}
	if !spec.IsValid() {
		return nil, domain.NewRunnerError("interpreter has invalid configuration")
	}

	path, err := r.writeScript(script, spec.Extension)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			r.logger.Warn("failed to remove temp script", "path", path, "error", rmErr)
		}
	}()

	argv := spec.Argv(path)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = os.Environ()
	if spec.Extension == ".ps1" {
		cmd.Env = append(cmd.Env, "POWERSHELL_TELEMETRY_OPTOUT=1")
	}
	setProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	timeout := r.timeout(timeoutSecs)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, domain.NewRunnerError("failed to start command: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-timer.C:
		killProcess(cmd)
		<-done
		return nil, &domain.TimeoutError{
			Context:     "step execution",
			TimeoutSecs: uint64(timeout / time.Second),
		}
	case <-ctx.Done():
		killProcess(cmd)
		<-done
		return nil, domain.NewRunnerError("execution cancelled: %v", ctx.Err())
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, domain.NewRunnerError("failed to wait for process: %v", waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(filterStderr(stderr.String())),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}

// timeout переводит секунды в Duration: 0 — defaultTimeout,
// значения сверх maxTimeoutSecs ограничиваются им.
func (r *SystemRunner) timeout(timeoutSecs uint64) time.Duration {
	switch {
	case timeoutSecs == 0:
		return r.defaultTimeout
	case timeoutSecs > maxTimeoutSecs:
		return time.Duration(maxTimeoutSecs) * time.Second
	default:
		return time.Duration(timeoutSecs) * time.Second
	}
}

// writeScript записывает скрипт во временный файл с правами 0700.
func (r *SystemRunner) writeScript(script, ext string) (string, error) {
	path := filepath.Join(r.tempDir, tempFilePrefix+uuid.NewString()+ext)

	if err := os.WriteFile(path, []byte(script+"\n"), 0o700); err != nil {
		return "", domain.NewRunnerError("failed to write temp script file: %v", err)
	}
	// WriteFile применяет umask, права выставляем явно.
	if err := os.Chmod(path, 0o700); err != nil {
		_ = os.Remove(path)
		return "", domain.NewRunnerError("failed to set permissions: %v", err)
	}
	return path, nil
}

// filterStderr отбрасывает строки со служебным шумом интерпретаторов.
func filterStderr(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isNoise(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isNoise(line string) bool {
	for _, p := range stderrNoise {
		if strings.Contains(line, p) {
			return true
		}
	}
	return false
}
