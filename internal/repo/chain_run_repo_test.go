package repo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Atento/internal/domain"
)

func TestRunFilter_Normalize(t *testing.T) {
	tests := []struct {
		in         RunFilter
		wantLimit  int
		wantOffset int
	}{
		{RunFilter{}, DefaultListLimit, 0},
		{RunFilter{Limit: 10, Offset: 5}, 10, 5},
		{RunFilter{Limit: 100000}, MaxListLimit, 0},
		{RunFilter{Limit: -1, Offset: -3}, DefaultListLimit, 0},
	}

	for _, tt := range tests {
		got := tt.in.normalize()
		if got.Limit != tt.wantLimit || got.Offset != tt.wantOffset {
			t.Errorf("normalize(%+v) = %+v", tt.in, got)
		}
	}
}

func TestNullString(t *testing.T) {
	if nullString("") != nil {
		t.Error("expected nil for empty string")
	}
	if v := nullString("x"); v == nil || *v != "x" {
		t.Error("expected pointer to value")
	}
}

// TestChainRunRepo_Postgres требует запущенный PostgreSQL (ATENTO_TEST_DB_URL).
func TestChainRunRepo_Postgres(t *testing.T) {
	dsn := os.Getenv("ATENTO_TEST_DB_URL")
	if dsn == "" {
		t.Skip("ATENTO_TEST_DB_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPoolWithDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	repo := NewChainRunRepo(pool)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	name := "repo-test-" + uuid.NewString()
	result := &domain.ChainResult{Name: name, DurationMs: 12, Status: domain.ChainStatusOK}
	run, err := domain.NewChainRun(domain.SourceCLI, result, time.Now())
	if err != nil {
		t.Fatalf("new run: %v", err)
	}

	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, run); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := repo.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ChainName != name || got.Status != domain.ChainStatusOK || len(got.Result) == 0 {
		t.Errorf("unexpected run %+v", got)
	}

	list, err := repo.List(ctx, RunFilter{ChainName: name})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != run.ID {
		t.Errorf("unexpected list %+v", list)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	lock := NewAdvisoryLock(pool, 987654)
	ok, err := lock.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected lock, got %v %v", ok, err)
	}
	other := NewAdvisoryLock(pool, 987654)
	if ok, _ := other.TryAcquire(ctx); ok {
		t.Error("second holder must not acquire the lock")
	}
	if err := lock.Release(ctx); err != nil {
		t.Errorf("release: %v", err)
	}
}
