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

	"github.com/shaiso/Atento/internal/api"
	"github.com/shaiso/Atento/internal/mq"
	"github.com/shaiso/Atento/internal/recorder"
	"github.com/shaiso/Atento/internal/repo"
	"github.com/shaiso/Atento/internal/runner"
	"github.com/shaiso/Atento/internal/telemetry"
)

var startTime = time.Now()

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting atento-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := api.Config{
		Runner: runner.NewSystemRunner(runner.Config{Logger: logger}),
		Logger: logger,
	}
	recCfg := recorder.Config{Logger: logger}

	// Запуск chain через API: только файлы из CHAINS_DIR.
	if dir := os.Getenv("CHAINS_DIR"); dir != "" {
		cfg.ChainsDir = dir
		logger.Info("chain execution enabled", "chains_dir", dir)
	} else {
		logger.Warn("CHAINS_DIR not set, chain execution disabled")
	}

	// Архив запусков: только если задан DB_URL.
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
		logger.Info("connected to database")

		cfg.Runs = runs
		recCfg.Store = runs
	} else {
		logger.Warn("DB_URL not set, run archive disabled")
	}

	// События: только если задан RABBITMQ_URL.
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		publisher, closeMQ, err := connectMQ(ctx, url, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer closeMQ()
		recCfg.Publisher = publisher
	}

	cfg.Recorder = recorder.New(recCfg)
	handler := api.NewHandler(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

func connectMQ(ctx context.Context, url string, logger *slog.Logger) (*mq.Publisher, func(), error) {
	conn, err := mq.Dial(url, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := mq.SetupTopology(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("setup topology: %w", err)
	}
	logger.Debug("rabbitmq topology", "info", mq.TopologyInfo())

	return mq.NewPublisher(conn, logger), func() { conn.Close() }, nil
}
