// super_checkers.go — обработчики /api/v1/maker-checker/super-checkers.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/middleware"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/service"
)

// setSuperCheckerRequest — тело PUT /maker-checker/super-checkers.
type setSuperCheckerRequest struct {
	UserID         int64 `json:"userId"`
	IsSuperChecker *bool `json:"isSuperChecker"`
}

// setSuperCheckerResponse — ответ PUT /maker-checker/super-checkers.
type setSuperCheckerResponse struct {
	UserID         int64 `json:"userId"`
	IsSuperChecker bool  `json:"isSuperChecker"`
}

// ListSuperCheckers — GET /api/v1/maker-checker/super-checkers[?type=impact].
// type=impact возвращает отчёт о масштабе maker-checker вместо списка.
func (h *APIHandler) ListSuperCheckers(w http.ResponseWriter, r *http.Request) {
	switch t := r.URL.Query().Get("type"); t {
	case "":
		users, err := h.superCheckers.List(r.Context())
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	case "impact":
		impact, err := h.superCheckers.Impact(r.Context())
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, impact)
	default:
		h.writeServiceError(w, r, fmt.Errorf("%w: неизвестный type %q", service.ErrInvalidRequest, t))
	}
}

// SetSuperChecker — PUT /api/v1/maker-checker/super-checkers.
// Доступ: admin.
func (h *APIHandler) SetSuperChecker(w http.ResponseWriter, r *http.Request) {
	var req setSuperCheckerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if req.IsSuperChecker == nil {
		h.writeServiceError(w, r, fmt.Errorf("%w: поле isSuperChecker обязательно", service.ErrInvalidRequest))
		return
	}

	err := h.superCheckers.SetStatus(r.Context(), req.UserID, *req.IsSuperChecker, middleware.UsernameFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setSuperCheckerResponse{UserID: req.UserID, IsSuperChecker: *req.IsSuperChecker})
}
