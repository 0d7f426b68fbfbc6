package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		MaxBody(MaxBodyBytes),
	)

	// Chains
	mux.Handle("POST /api/v1/chains/validate", chain(http.HandlerFunc(h.ValidateChain)))
	mux.Handle("POST /api/v1/chains/run", chain(http.HandlerFunc(h.RunChain)))

	// Runs
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))

	// Interpreters
	mux.Handle("GET /api/v1/interpreters", chain(http.HandlerFunc(h.ListInterpreters)))
}
