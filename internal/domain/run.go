package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChainRun — архивная запись о завершённом выполнении chain.
//
// ChainRun создаётся после Chain.Run и больше не меняется:
// состояние между запусками не переносится, запись только читается.
type ChainRun struct {
	// ID — уникальный идентификатор запуска.
	ID uuid.UUID `json:"id"`

	// ChainName — имя chain (может быть пустым).
	ChainName string `json:"chain_name"`

	// Source — откуда запущен chain: "cli", "api", "schedule:<name>".
	Source string `json:"source"`

	// Status — итоговый статус.
	Status ChainStatus `json:"status"`

	// DurationMs — длительность выполнения в миллисекундах.
	DurationMs int64 `json:"duration_ms"`

	// ErrorCount — число накопленных ошибок.
	ErrorCount int `json:"error_count"`

	// Result — полный ChainResult в JSON.
	Result json.RawMessage `json:"result,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewChainRun создаёт архивную запись из результата выполнения.
func NewChainRun(source string, result *ChainResult, startedAt time.Time) (*ChainRun, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal chain result: %w", err)
	}

	return &ChainRun{
		ID:         uuid.New(),
		ChainName:  result.Name,
		Source:     source,
		Status:     result.Status,
		DurationMs: result.DurationMs,
		ErrorCount: len(result.Errors),
		Result:     raw,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Duration(result.DurationMs) * time.Millisecond),
	}, nil
}

// Duration возвращает продолжительность выполнения.
func (r *ChainRun) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// Источники запуска.
const (
	SourceCLI = "cli"
	SourceAPI = "api"
)

// ScheduleSource возвращает источник для запуска по расписанию.
func ScheduleSource(name string) string {
	return "schedule:" + name
}
