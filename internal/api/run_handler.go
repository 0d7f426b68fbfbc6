package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Atento/internal/domain"
	"github.com/shaiso/Atento/internal/repo"
)

// ListRuns возвращает архив запусков с фильтрацией.
// GET /api/v1/runs?chain=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		Unavailable(w, "run archive is not configured")
		return
	}

	q := r.URL.Query()
	filter := repo.RunFilter{ChainName: q.Get("chain")}

	if status := q.Get("status"); status != "" {
		if status != domain.ChainStatusOK.String() && status != domain.ChainStatusNOK.String() {
			BadRequest(w, "status must be ok or nok")
			return
		}
		filter.Status = domain.ChainStatus(status)
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit"), repo.DefaultListLimit); err != nil {
		BadRequest(w, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		BadRequest(w, "invalid offset")
		return
	}

	runs, err := h.runs.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ChainRunResponse, len(runs))
	for i, run := range runs {
		result[i] = ChainRunFromDomain(run)
	}

	List(w, result, len(result))
}

// GetRun возвращает архивный запуск по ID вместе с полным результатом.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		Unavailable(w, "run archive is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, ChainRunFromDomain(*run))
}

// intParam парсит неотрицательное целое из query с дефолтным значением.
func intParam(s string, defaultVal int) (int, error) {
	if s == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
