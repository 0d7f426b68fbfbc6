package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/recorder"
	"github.com/shaiso/Atento/internal/repo"
	"github.com/shaiso/Atento/internal/runner"
)

// RunStore — чтение архива запусков (repo.ChainRunRepo).
type RunStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ChainRun, error)
	List(ctx context.Context, filter repo.RunFilter) ([]domain.ChainRun, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	runs      RunStore
	runner    runner.Runner
	recorder  *recorder.Recorder
	chainsDir string
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Runs     RunStore           // опционально: без него /runs отвечает 503
	Runner   runner.Runner
	Recorder *recorder.Recorder // опционально

	// ChainsDir — каталог chain-файлов для /chains/run. Пусто — выполнение выключено.
	ChainsDir string

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		runs:      cfg.Runs,
		runner:    cfg.Runner,
		recorder:  cfg.Recorder,
		chainsDir: cfg.ChainsDir,
		logger:    logger,
	}
}
