// errors.go — перевод ошибок сервисного слоя в HTTP-ответы.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/errors"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/core"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/service"
)

// writeServiceError отображает ошибку сервиса на код и статус ответа.
// Сначала проверяются sentinel-ошибки сервиса, затем ответ ядра.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		apierrors.InvalidRequest(w, err.Error())
		return
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, err.Error())
		return
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
		return
	case errors.Is(err, service.ErrInvalidStateTransition):
		apierrors.InvalidStateTransition(w, err.Error())
		return
	case errors.Is(err, service.ErrUpstreamUnavailable):
		status := http.StatusInternalServerError
		if ce, ok := core.AsError(err); ok && ce.BreakerOpen() {
			status = http.StatusServiceUnavailable
		}
		h.logger.Error("Ядро недоступно",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.UpstreamUnavailable(w, status, "Ядро недоступно")
		return
	}

	if ce, ok := core.AsError(err); ok && ce.Kind == core.KindUpstream {
		status := ce.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusInternalServerError
		}
		h.logger.Warn("Ошибка ядра",
			slog.String("path", r.URL.Path),
			slog.Int("core_status", ce.StatusCode),
			slog.String("core_code", ce.Code),
		)
		apierrors.UpstreamError(w, status, ce.Message)
		return
	}

	h.logger.Error("Внутренняя ошибка",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	apierrors.InternalError(w, "Внутренняя ошибка сервера")
}
