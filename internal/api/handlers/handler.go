// Пакет handlers — HTTP-обработчики maker-checker BFF.
// handler.go — основной обработчик API, делегирующий запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/service"
)

// maxBodyBytes — предел размера тела запроса.
const maxBodyBytes = 1 << 20

// APIHandler — основной обработчик API maker-checker BFF.
type APIHandler struct {
	health        *HealthHandler
	global        *service.GlobalToggleService
	permissions   *service.PermissionService
	inbox         *service.InboxService
	approval      *service.ApprovalService
	superCheckers *service.SuperCheckerService
	gate          *service.GateService
	logger        *slog.Logger
}

// Services — сервисы, которые использует APIHandler.
type Services struct {
	Global        *service.GlobalToggleService
	Permissions   *service.PermissionService
	Inbox         *service.InboxService
	Approval      *service.ApprovalService
	SuperCheckers *service.SuperCheckerService
	Gate          *service.GateService
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(health *HealthHandler, svc Services, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		health:        health,
		global:        svc.Global,
		permissions:   svc.Permissions,
		inbox:         svc.Inbox,
		approval:      svc.Approval,
		superCheckers: svc.SuperCheckers,
		gate:          svc.Gate,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errEmptyBody — тело запроса отсутствует.
var errEmptyBody = errors.New("пустое тело запроса")

// decodeJSON читает тело запроса в dst. Ошибки оборачиваются в ErrInvalidRequest.
func decodeJSON(r *http.Request, dst any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: чтение тела: %w", service.ErrInvalidRequest, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: %w", service.ErrInvalidRequest, errEmptyBody)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: невалидный JSON: %w", service.ErrInvalidRequest, err)
	}
	return nil
}
