package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shaiso/Atento/internal/mq"
	"github.com/shaiso/Atento/internal/recorder"
	"github.com/shaiso/Atento/internal/repo"
)

// OpenRecorder подключает архив (DB_URL) и, если задан RABBITMQ_URL,
// публикацию событий. Используется командой run --record.
func OpenRecorder(logger *slog.Logger) func(ctx context.Context) (*recorder.Recorder, func(), error) {
	return func(ctx context.Context) (*recorder.Recorder, func(), error) {
		pool, err := repo.NewPool(ctx)
		if err != nil {
			return nil, nil, err
		}

		runs := repo.NewChainRunRepo(pool)
		if err := runs.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}

		cfg := recorder.Config{Store: runs, Logger: logger}
		closers := []func(){pool.Close}

		if url := os.Getenv("RABBITMQ_URL"); url != "" {
			conn, err := mq.Dial(url, logger)
			if err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
			}
			if err := mq.SetupTopology(ctx, conn); err != nil {
				conn.Close()
				pool.Close()
				return nil, nil, fmt.Errorf("setup topology: %w", err)
			}
			cfg.Publisher = mq.NewPublisher(conn, logger)
			closers = append(closers, func() { conn.Close() })
		}

		closeAll := func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
		return recorder.New(cfg), closeAll, nil
	}
}
