package api

import (
	"net/http"

	"github.com/shaiso/Atento/internal/interpreter"
)

// ListInterpreters возвращает встроенные интерпретаторы.
// GET /api/v1/interpreters
func (h *Handler) ListInterpreters(w http.ResponseWriter, r *http.Request) {
	result := InterpretersFromRegistry(interpreter.DefaultRegistry())
	List(w, result, len(result))
}
