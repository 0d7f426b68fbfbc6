package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Atento/internal/mq"
	"github.com/shaiso/Atento/internal/recorder"
	"github.com/shaiso/Atento/internal/repo"
	"github.com/shaiso/Atento/internal/runner"
	"github.com/shaiso/Atento/internal/scheduler"
	"github.com/shaiso/Atento/internal/telemetry"
)

const (
	schedLockKey      int64 = 424242
	leaderPollInterval      = 5 * time.Second
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting atento-scheduler")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := os.Getenv("SCHEDULES_FILE")
	if path == "" {
		path = "schedules.yaml"
	}
	schedules, err := scheduler.LoadSchedules(path)
	if err != nil {
		logger.Error("failed to load schedules", "error", err)
		os.Exit(1)
	}
	logger.Info("schedules loaded", "file", path, "count", len(schedules))

	recCfg := recorder.Config{Logger: logger}

	// Без DB_URL — один экземпляр без архива и без выбора лидера.
	var lock *repo.AdvisoryLock
	if os.Getenv("DB_URL") != "" {
		pool, err := repo.NewPool(ctx)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		runs := repo.NewChainRunRepo(pool)
		if err := runs.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		recCfg.Store = runs
		lock = repo.NewAdvisoryLock(pool, schedLockKey)
		logger.Info("connected to database")
	} else {
		logger.Warn("DB_URL not set, running without archive and leader election")
	}

	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		conn, err := mq.Dial(url, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		if err := mq.SetupTopology(ctx, conn); err != nil {
			logger.Error("failed to setup rabbitmq topology", "error", err)
			os.Exit(1)
		}
		recCfg.Publisher = mq.NewPublisher(conn, logger)
	}

	sched := scheduler.New(scheduler.Config{
		Schedules: schedules,
		Runner:    runner.NewSystemRunner(runner.Config{Logger: logger}),
		Recorder:  recorder.New(recCfg),
		Logger:    logger,
	})

	// HTTP: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}
	server := &http.Server{Addr: port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("listening", "addr", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http error", "error", err)
			cancel()
		}
	}()

	if err := waitLeadership(ctx, lock, logger); err == nil {
		if err := sched.Start(ctx); err != nil {
			logger.Error("failed to start scheduler", "error", err)
			cancel()
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	sched.Stop(shutdownCtx)
	if lock != nil {
		if err := lock.Release(shutdownCtx); err != nil {
			logger.Warn("failed to release leader lock", "error", err)
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// waitLeadership блокируется, пока экземпляр не станет лидером
// (pg_try_advisory_lock). Без блокировки возвращается сразу.
func waitLeadership(ctx context.Context, lock *repo.AdvisoryLock, logger *slog.Logger) error {
	if lock == nil {
		return nil
	}

	tk := time.NewTicker(leaderPollInterval)
	defer tk.Stop()

	for {
		ok, err := lock.TryAcquire(ctx)
		switch {
		case err != nil:
			logger.Warn("leader lock error", "error", err)
		case ok:
			logger.Info("acquired leadership")
			return nil
		default:
			logger.Debug("not a leader, waiting")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait leadership: %w", ctx.Err())
		case <-tk.C:
		}
	}
}
