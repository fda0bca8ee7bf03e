// health.go — обработчики health endpoints maker-checker BFF.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (ядро и JWKS IdP доступны)
// /metrics — Prometheus метрики
package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/config"
)

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status string, message string)
}

// DependencyReporter — последние результаты фоновых проверок зависимостей.
type DependencyReporter interface {
	Health() map[string]bool
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	service      string
	coreChecker  ReadinessChecker
	idpChecker   ReadinessChecker
	dependencies DependencyReporter
	promHandler  http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// coreChecker — проверка ядра, idpChecker — проверка JWKS IdP.
// Оба могут быть nil (readiness вернёт "fail" для nil зависимостей).
func NewHealthHandler(serviceName string, coreChecker, idpChecker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		service:     serviceName,
		coreChecker: coreChecker,
		idpChecker:  idpChecker,
		promHandler: promhttp.Handler(),
	}
}

// SetDependencyReporter подключает результаты topologymetrics к readiness.
// Они только отображаются и на итоговый статус не влияют.
func (h *HealthHandler) SetDependencyReporter(r DependencyReporter) {
	h.dependencies = r
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		Core healthCheckResult `json:"core"`
		IdP  healthCheckResult `json:"idp"`
	} `json:"checks"`
	Dependencies map[string]bool `json:"dependencies,omitempty"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   h.service,
	})
}

// HealthReady — readiness probe. Проверяет ядро и IdP.
// Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   h.service,
	}

	resp.Checks.Core = check(h.coreChecker)
	resp.Checks.IdP = check(h.idpChecker)
	resp.Status = overallStatus(resp.Checks.Core.Status, resp.Checks.IdP.Status)
	if h.dependencies != nil {
		resp.Dependencies = h.dependencies.Health()
	}

	status := http.StatusOK
	if resp.Status == "fail" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

func check(c ReadinessChecker) healthCheckResult {
	if c == nil {
		return healthCheckResult{Status: "fail", Message: "не инициализирован"}
	}
	status, msg := c.CheckReady()
	return healthCheckResult{Status: status, Message: msg}
}

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail.
// Если хотя бы одна degraded — итог degraded.
// Иначе — ok.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == "fail" {
			return "fail"
		}
		if s == "degraded" {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return "degraded"
	}
	return "ok"
}
