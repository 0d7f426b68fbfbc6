package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/interpreter"
)

// Chain DTOs

// ValidateResponse — ответ на проверку chain.
type ValidateResponse struct {
	Valid bool     `json:"valid"`
	Name  string   `json:"name,omitempty"`
	Steps []string `json:"steps"`
}

// RunChainRequest — запрос на запуск chain-файла из ChainsDir.
type RunChainRequest struct {
	Chain string `json:"chain"`
}

// RunChainResponse — ответ на синхронный запуск chain.
type RunChainResponse struct {
	RunID  *uuid.UUID          `json:"run_id,omitempty"`
	Result *domain.ChainResult `json:"result"`
}

// Run DTOs

// ChainRunResponse — архивная запись запуска.
type ChainRunResponse struct {
	ID         uuid.UUID       `json:"id"`
	ChainName  string          `json:"chain_name"`
	Source     string          `json:"source"`
	Status     string          `json:"status"`
	DurationMs int64           `json:"duration_ms"`
	ErrorCount int             `json:"error_count"`
	Result     json.RawMessage `json:"result,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ChainRunFromDomain конвертирует domain.ChainRun в ChainRunResponse.
func ChainRunFromDomain(r domain.ChainRun) ChainRunResponse {
	return ChainRunResponse{
		ID:         r.ID,
		ChainName:  r.ChainName,
		Source:     r.Source,
		Status:     r.Status.String(),
		DurationMs: r.DurationMs,
		ErrorCount: r.ErrorCount,
		Result:     r.Result,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		CreatedAt:  r.CreatedAt,
	}
}

// Interpreter DTOs

// InterpreterResponse — описание интерпретатора.
type InterpreterResponse struct {
	Name      string   `json:"name"`
	Command   string   `json:"command"`
	Args      []string `json:"args"`
	Extension string   `json:"extension"`
}

// InterpretersFromRegistry перечисляет интерпретаторы реестра по ключу.
func InterpretersFromRegistry(reg *interpreter.Registry) []InterpreterResponse {
	keys := reg.Keys()
	out := make([]InterpreterResponse, 0, len(keys))
	for _, key := range keys {
		spec, err := reg.Get(key)
		if err != nil {
			continue
		}
		args := spec.Args
		if args == nil {
			args = []string{}
		}
		out = append(out, InterpreterResponse{
			Name:      key,
			Command:   spec.Command,
			Args:      args,
			Extension: spec.Extension,
		})
	}
	return out
}
