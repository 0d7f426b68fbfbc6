package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/engine"
	"github.com/shaiso/Atento/internal/recorder"
	"github.com/shaiso/Atento/internal/runner"
	"github.com/shaiso/Atento/internal/telemetry"
)

// Scheduler запускает chain по расписаниям.
type Scheduler struct {
	schedules []Schedule
	runner    runner.Runner
	recorder  *recorder.Recorder
	logger    *slog.Logger

	cron *cron.Cron
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules []Schedule
	Runner    runner.Runner
	Recorder  *recorder.Recorder // опционально
	Logger    *slog.Logger
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		schedules: cfg.Schedules,
		runner:    cfg.Runner,
		recorder:  cfg.Recorder,
		logger:    logger,
	}
}

// Start регистрирует включённые расписания и запускает cron.
//
// Запуски одного расписания не перекрываются: если предыдущий ещё
// выполняется, тик пропускается. ctx передаётся в каждый запуск,
// его отмена останавливает выполняющиеся скрипты.
func (s *Scheduler) Start(ctx context.Context) error {
	clog := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	var registered int
	for _, sched := range s.schedules {
		if !sched.Enabled {
			s.logger.Info("schedule disabled, skipping", "schedule", sched.Name)
			continue
		}

		sched := sched
		_, err := c.AddFunc(sched.Spec(), func() {
			s.RunOnce(ctx, &sched)
		})
		if err != nil {
			return fmt.Errorf("register schedule '%s': %w", sched.Name, err)
		}
		registered++
	}

	s.cron = c
	c.Start()

	s.logger.Info("scheduler started", "schedules", len(s.schedules), "enabled", registered)
	return nil
}

// Stop останавливает cron и ждёт завершения выполняющихся запусков
// не дольше, чем живёт ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out, runs still in flight")
	}
}

// RunOnce выполняет один запуск расписания: загрузка, валидация,
// выполнение и запись результата.
//
// Невалидный chain не выполняется: ошибка логируется и возвращается.
// Ошибка записи только логируется.
func (s *Scheduler) RunOnce(ctx context.Context, sched *Schedule) (*domain.ChainResult, error) {
	logger := s.logger.With("schedule", sched.Name, "chain_file", sched.Chain)

	chain, err := engine.LoadAndValidate(sched.Chain)
	if err != nil {
		logger.Error("scheduled chain is invalid, skipping", "error", err)
		return nil, err
	}

	logger.Info("running scheduled chain")

	started := time.Now()
	result := chain.Run(telemetry.WithLogger(ctx, logger), s.runner)

	if s.recorder != nil {
		// Ошибка уже залогирована в recorder.
		_, _ = s.recorder.Record(ctx, domain.ScheduleSource(sched.Name), result, started)
	}

	return result, nil
}
