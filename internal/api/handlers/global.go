// global.go — обработчики /api/v1/maker-checker/global и /maker-checker/gate.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/middleware"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/service"
)

// setGlobalRequest — тело PUT /maker-checker/global.
type setGlobalRequest struct {
	Enabled *bool `json:"enabled"`
}

// GetGlobal — GET /api/v1/maker-checker/global.
func (h *APIHandler) GetGlobal(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.global.Get(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// SetGlobal — PUT /api/v1/maker-checker/global.
// Доступ: admin. Нелогическое enabled — 400.
func (h *APIHandler) SetGlobal(w http.ResponseWriter, r *http.Request) {
	var req setGlobalRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if req.Enabled == nil {
		h.writeServiceError(w, r, fmt.Errorf("%w: поле enabled обязательно", service.ErrInvalidRequest))
		return
	}

	cfg, err := h.global.Set(r.Context(), *req.Enabled, middleware.UsernameFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// CheckGate — GET /api/v1/maker-checker/gate?code=...
// Отвечает, уйдёт ли операция с этим кодом на одобрение.
func (h *APIHandler) CheckGate(w http.ResponseWriter, r *http.Request) {
	decision, err := h.gate.Check(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}
