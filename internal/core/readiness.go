package core

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// DefaultHealthPath — health endpoint ядра относительно хоста.
const DefaultHealthPath = "/actuator/health"

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// HealthURL строит адрес health endpoint ядра: схема и хост из baseURL, путь healthPath.
func HealthURL(baseURL, healthPath string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("разбор URL ядра: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("URL ядра %q должен содержать схему и хост", baseURL)
	}
	if healthPath == "" {
		healthPath = DefaultHealthPath
	}
	return u.Scheme + "://" + u.Host + healthPath, nil
}

// ReadinessChecker — проверка доступности ядра для /health/ready.
type ReadinessChecker struct {
	client    *Client
	healthURL string
	http      *resty.Client
}

// NewReadinessChecker создаёт checker ядра.
// Запрос идёт мимо breaker, но его состояние учитывается в статусе.
func (c *Client) NewReadinessChecker(healthPath string, timeout time.Duration) (*ReadinessChecker, error) {
	healthURL, err := HealthURL(c.baseURL, healthPath)
	if err != nil {
		return nil, err
	}
	rc := resty.New().SetTimeout(timeout).SetRetryCount(0)
	if t := c.http.GetClient().Transport; t != nil {
		rc.SetTransport(t)
	}
	return &ReadinessChecker{client: c, healthURL: healthURL, http: rc}, nil
}

// CheckReady возвращает "ok", "degraded" (breaker разомкнут) или "fail".
func (r *ReadinessChecker) CheckReady() (status, message string) {
	resp, err := r.http.R().SetContext(context.Background()).Get(r.healthURL)
	if err != nil {
		return statusFail, fmt.Sprintf("ядро недоступно: %v", err)
	}
	if resp.StatusCode() >= 500 {
		return statusFail, fmt.Sprintf("ядро вернуло статус %d", resp.StatusCode())
	}
	if r.client.breaker.State() != gobreaker.StateClosed {
		return statusDegraded, "circuit breaker ядра: " + r.client.breaker.State().String()
	}
	return statusOK, fmt.Sprintf("ядро доступно, статус %d", resp.StatusCode())
}
