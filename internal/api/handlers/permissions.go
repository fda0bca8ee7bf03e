// permissions.go — обработчики /api/v1/permissions.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/middleware"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/permission"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/service"
)

// listPermissionsParams — query-параметры GET /permissions.
type listPermissionsParams struct {
	MakerCheckerableOnly *bool
	Grouped              *bool
}

// updatePermissionsResponse — ответ PUT /permissions.
type updatePermissionsResponse struct {
	Permissions map[string]bool `json:"permissions"`
}

// ListPermissions — GET /api/v1/permissions?makerCheckerableOnly=&grouped=
// grouped=true возвращает разрешения, сгруппированные для отображения.
func (h *APIHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	var params listPermissionsParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "makerCheckerableOnly", q, &params.MakerCheckerableOnly); err != nil {
		h.writeServiceError(w, r, fmt.Errorf("%w: makerCheckerableOnly: %w", service.ErrInvalidRequest, err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "grouped", q, &params.Grouped); err != nil {
		h.writeServiceError(w, r, fmt.Errorf("%w: grouped: %w", service.ErrInvalidRequest, err))
		return
	}
	onlyCheckable := params.MakerCheckerableOnly != nil && *params.MakerCheckerableOnly

	if params.Grouped != nil && *params.Grouped {
		groups, err := h.permissions.ListGrouped(r.Context(), onlyCheckable)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, groups)
		return
	}

	perms, err := h.permissions.List(r.Context(), onlyCheckable)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

// UpdatePermissions — PUT /api/v1/permissions.
// Тело: массив {code, selected}, массив кодов или объект code → selected.
// Доступ: admin.
func (h *APIHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	var update permission.Update
	if err := decodeJSON(r, &update); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	applied, err := h.permissions.Update(r.Context(), update, middleware.UsernameFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updatePermissionsResponse{Permissions: applied})
}
