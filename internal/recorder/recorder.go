// Package recorder архивирует завершённые запуски chain и публикует
// событие chain.completed.
//
// Хранилище и публикатор необязательны: без них Record только
// строит запись и пишет лог.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/mq"
	"github.com/shaiso/Atento/internal/telemetry"
)

// Store сохраняет архивные записи (repo.ChainRunRepo).
type Store interface {
	Create(ctx context.Context, run *domain.ChainRun) error
}

// Publisher публикует события о завершении (mq.Publisher).
type Publisher interface {
	PublishChainCompleted(ctx context.Context, payload mq.ChainCompletedPayload) error
}

// Config — конфигурация Recorder.
type Config struct {
	Store     Store     // опционально
	Publisher Publisher // опционально
	Logger    *slog.Logger
}

// Recorder — архив и события для завершённых chain.
type Recorder struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

// New создаёт новый Recorder.
func New(cfg Config) *Recorder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Recorder{
		store:     cfg.Store,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}

// HasStore сообщает, настроено ли хранилище.
func (r *Recorder) HasStore() bool {
	return r.store != nil
}

// Record сохраняет результат и публикует событие.
//
// Ошибка хранилища не мешает публикации. Обе ошибки логируются,
// учитываются в метриках и возвращаются вместе; result не меняется.
func (r *Recorder) Record(ctx context.Context, source string, result *domain.ChainResult, startedAt time.Time) (*domain.ChainRun, error) {
	run, err := domain.NewChainRun(source, result, startedAt)
	if err != nil {
		telemetry.RecordFailed("encode")
		return nil, err
	}

	logger := telemetry.WithRunID(r.logger, run.ID.String()).With("source", source)
	if run.ChainName != "" {
		logger = telemetry.WithChain(logger, run.ChainName)
	}

	var errs []error

	if r.store != nil {
		if err := r.store.Create(ctx, run); err != nil {
			telemetry.RecordFailed("store")
			logger.Error("failed to archive chain run", "error", err)
			errs = append(errs, fmt.Errorf("archive run: %w", err))
		}
	}

	if r.publisher != nil {
		payload := mq.ChainCompletedPayload{
			RunID:      run.ID,
			ChainName:  run.ChainName,
			Source:     source,
			Status:     run.Status.String(),
			DurationMs: run.DurationMs,
			Errors:     result.Errors.Strings(),
		}
		if err := r.publisher.PublishChainCompleted(ctx, payload); err != nil {
			telemetry.RecordFailed("publish")
			logger.Warn("failed to publish chain.completed", "error", err)
			errs = append(errs, fmt.Errorf("publish event: %w", err))
		}
	}

	logger.Info("chain run recorded", "status", run.Status, "duration_ms", run.DurationMs)
	return run, errors.Join(errs...)
}
