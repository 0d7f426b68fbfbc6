package repo

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Atento/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

const (
	// DefaultListLimit — размер страницы по умолчанию.
	DefaultListLimit = 50

	// MaxListLimit — максимальный размер страницы.
	MaxListLimit = 500
)

// ChainRunRepo — архив завершённых запусков chain.
//
// Записи только добавляются и читаются: запуск chain не меняет
// уже сохранённые данные.
type ChainRunRepo struct {
	pool *pgxpool.Pool
}

// NewChainRunRepo создаёт новый ChainRunRepo.
func NewChainRunRepo(pool *pgxpool.Pool) *ChainRunRepo {
	return &ChainRunRepo{pool: pool}
}

// Migrate создаёт таблицу chain_runs, если её нет.
func (r *ChainRunRepo) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate chain_runs: %w", err)
	}
	return nil
}

// Create сохраняет запуск.
func (r *ChainRunRepo) Create(ctx context.Context, run *domain.ChainRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO chain_runs (id, chain_name, source, status, duration_ms, error_count,
		                        result, started_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		nullString(run.ChainName),
		run.Source,
		string(run.Status),
		run.DurationMs,
		run.ErrorCount,
		[]byte(run.Result),
		run.StartedAt,
		run.FinishedAt,
		run.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: chain run %s", ErrAlreadyExists, run.ID)
		}
		return fmt.Errorf("insert chain run: %w", err)
	}
	return nil
}

// GetByID возвращает запуск по ID.
func (r *ChainRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ChainRun, error) {
	query := `
		SELECT id, chain_name, source, status, duration_ms, error_count,
		       result, started_at, finished_at, created_at
		FROM chain_runs
		WHERE id = $1
	`
	run, err := scanChainRun(r.pool.QueryRow(ctx, query, id), true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// List возвращает запуски с фильтрацией, новые первыми.
// Поле Result в списке не заполняется.
func (r *ChainRunRepo) List(ctx context.Context, filter RunFilter) ([]domain.ChainRun, error) {
	filter = filter.normalize()

	query := `
		SELECT id, chain_name, source, status, duration_ms, error_count,
		       NULL::jsonb, started_at, finished_at, created_at
		FROM chain_runs
		WHERE ($1::text IS NULL OR chain_name = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.ChainName),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list chain runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.ChainRun, 0)
	for rows.Next() {
		run, err := scanChainRun(rows, false)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// --- Helpers ---

// RunFilter — параметры фильтрации запусков.
type RunFilter struct {
	ChainName string
	Status    domain.ChainStatus
	Limit     int
	Offset    int
}

// normalize приводит лимит и смещение к допустимым значениям.
func (f RunFilter) normalize() RunFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// scanChainRun сканирует строку (pgx.Row или pgx.Rows) в ChainRun.
func scanChainRun(row pgx.Row, withResult bool) (*domain.ChainRun, error) {
	var run domain.ChainRun
	var chainName *string
	var status string
	var result []byte

	err := row.Scan(
		&run.ID,
		&chainName,
		&run.Source,
		&status,
		&run.DurationMs,
		&run.ErrorCount,
		&result,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan chain run: %w", err)
	}

	if chainName != nil {
		run.ChainName = *chainName
	}
	run.Status = domain.ParseChainStatus(status)
	if withResult && result != nil {
		run.Result = result
	}

	return &run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
