package api

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/engine"
	"github.com/shaiso/Atento/internal/telemetry"
)

// readChain читает тело запроса и разбирает chain без валидации.
func (h *Handler) readChain(w http.ResponseWriter, r *http.Request) (*engine.Chain, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body too large")
			return nil, false
		}
		BadRequest(w, "failed to read request body")
		return nil, false
	}

	chain, err := engine.Parse(body)
	if HandleChainError(w, h.logger, err) {
		return nil, false
	}
	return chain, true
}

// ValidateChain проверяет chain без выполнения.
// POST /api/v1/chains/validate
func (h *Handler) ValidateChain(w http.ResponseWriter, r *http.Request) {
	chain, ok := h.readChain(w, r)
	if !ok {
		return
	}

	if HandleChainError(w, h.logger, chain.Validate()) {
		return
	}

	Success(w, ValidateResponse{
		Valid: true,
		Name:  chain.Name,
		Steps: chain.StepIDs(),
	})
}

// RunChain проверяет и синхронно выполняет chain из каталога chains.
// POST /api/v1/chains/run
//
// Тело — {"chain": "<файл>"}, путь относительно ChainsDir. Без ChainsDir
// выполнение выключено (403). Скрипт из тела запроса не выполняется.
// Ответ 200 возвращается и для статуса nok: ошибки выполнения
// находятся в result.errors.
func (h *Handler) RunChain(w http.ResponseWriter, r *http.Request) {
	if h.chainsDir == "" {
		Forbidden(w, "chain execution is disabled")
		return
	}

	var req RunChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body too large")
			return
		}
		BadRequest(w, "invalid request body")
		return
	}
	if req.Chain == "" || !filepath.IsLocal(req.Chain) {
		BadRequest(w, "chain must be a relative path inside the chains directory")
		return
	}

	chain, ok := h.loadChain(w, req.Chain)
	if !ok {
		return
	}

	if HandleChainError(w, h.logger, chain.Validate()) {
		return
	}

	ctx := telemetry.WithLogger(r.Context(), h.logger)
	started := time.Now()
	result := chain.Run(ctx, h.runner)

	resp := RunChainResponse{Result: result}
	if h.recorder != nil {
		run, err := h.recorder.Record(ctx, domain.SourceAPI, result, started)
		if err != nil {
			h.logger.Warn("chain run not fully recorded", "error", err)
		}
		if run != nil {
			resp.RunID = &run.ID
		}
	}

	Success(w, resp)
}

// loadChain читает chain из ChainsDir через os.Root: ссылки наружу
// каталога не открываются.
func (h *Handler) loadChain(w http.ResponseWriter, name string) (*engine.Chain, bool) {
	root, err := os.OpenRoot(h.chainsDir)
	if err != nil {
		InternalError(w, h.logger, err)
		return nil, false
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			NotFound(w, "chain not found")
			return nil, false
		}
		BadRequest(w, "chain cannot be opened")
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		InternalError(w, h.logger, err)
		return nil, false
	}

	chain, err := engine.Parse(data)
	if HandleChainError(w, h.logger, err) {
		return nil, false
	}
	return chain, true
}
