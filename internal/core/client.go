// Пакет core — HTTP-клиент ядра банковской платформы (system of record).
//
// Ядро владеет разрешениями, записями maker-checker и исполнением команд.
// Клиент не кэширует ответы и не повторяет запросы: каждый вызов идёт в ядро.
// Тенант, Authorization и X-Request-ID берутся из контекста запроса.
// Все вызовы проходят через circuit breaker, который считает отказами
// только сетевые ошибки и 5xx.
package core

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// DefaultTenantHeader — заголовок тенанта ядра по умолчанию.
const DefaultTenantHeader = "Fineract-Platform-TenantId"

// makerCheckerConfigName — имя глобальной конфигурации maker-checker в ядре.
const makerCheckerConfigName = "maker-checker"

// BreakerSettings — параметры circuit breaker.
type BreakerSettings struct {
	// FailureRatio — доля отказов, при которой breaker размыкается.
	FailureRatio float64
	// MinRequests — минимум запросов в окне до оценки доли отказов.
	MinRequests uint32
	// OpenTimeout — время в разомкнутом состоянии до пробного запроса.
	OpenTimeout time.Duration
	// HalfOpenRequests — число пробных запросов в полуоткрытом состоянии.
	HalfOpenRequests uint32
	// Interval — период сброса счётчиков в замкнутом состоянии.
	Interval time.Duration
}

// Options — параметры клиента ядра.
type Options struct {
	BaseURL            string
	Timeout            time.Duration
	CACertPath         string
	InsecureSkipVerify bool
	TenantHeader       string
	Breaker            BreakerSettings
}

// Client — клиент REST API ядра.
type Client struct {
	http         *resty.Client
	breaker      *gobreaker.CircuitBreaker
	tenantHeader string
	baseURL      string
	logger       *slog.Logger
}

// New создаёт клиент ядра.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("не задан URL ядра")
	}
	if opts.TenantHeader == "" {
		opts.TenantHeader = DefaultTenantHeader
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	logger = logger.With(slog.String("component", "core_client"))

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	if opts.CACertPath != "" || opts.InsecureSkipVerify {
		tlsConfig, err := buildTLSConfig(opts.CACertPath, opts.InsecureSkipVerify)
		if err != nil {
			return nil, fmt.Errorf("TLS-конфигурация ядра: %w", err)
		}
		rc.SetTLSClientConfig(tlsConfig)
		if opts.CACertPath != "" {
			logger.Info("CA-сертификат ядра добавлен в пул доверия",
				slog.String("ca_cert", opts.CACertPath),
			)
		}
		if opts.InsecureSkipVerify {
			logger.Warn("Проверка TLS-сертификата ядра отключена")
		}
	}

	c := &Client{
		http:         rc,
		tenantHeader: opts.TenantHeader,
		baseURL:      baseURL,
		logger:       logger,
	}
	c.breaker = newBreaker("core", opts.Breaker, logger)
	return c, nil
}

// newBreaker создаёт circuit breaker вокруг вызовов ядра.
func newBreaker(name string, s BreakerSettings, logger *slog.Logger) *gobreaker.CircuitBreaker {
	if s.FailureRatio <= 0 {
		s.FailureRatio = 0.5
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = 1
	}
	breakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.HalfOpenRequests,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Состояние circuit breaker изменилось",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(breakerStateValue(to))
			if to == gobreaker.StateOpen {
				breakerTrips.WithLabelValues(name).Inc()
			}
		},
	})
}

// isBreakerSuccess — отказом считаются только недоступность ядра и 5xx.
// Отмена запроса клиентом и 4xx не говорят о здоровье ядра.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.IsClientError()
	}
	return false
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 2
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string, insecure bool) (*tls.Config, error) {
	cfg := &tls.Config{
		InsecureSkipVerify: insecure, //nolint:gosec // явно включается через MCB_CORE_INSECURE_SKIP_VERIFY
	}
	if caCertPath == "" {
		return cfg, nil
	}

	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("в %s нет PEM-сертификатов", caCertPath)
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// do выполняет запрос к ядру через breaker и декодирует ответ в out.
// Любая ошибка возвращается как *Error.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	start := time.Now()

	_, err := c.breaker.Execute(func() (any, error) {
		req := c.http.R().SetContext(ctx)
		c.setForwardedHeaders(ctx, req)
		if len(query) > 0 {
			req.SetQueryParamsFromValues(query)
		}
		if body != nil {
			req.SetBody(body)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, &Error{Op: op, Kind: KindUnavailable, Err: err}
		}
		if resp.IsError() {
			return nil, newStatusError(op, resp.StatusCode(), resp.Body())
		}
		if out != nil && len(resp.Body()) > 0 {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return nil, &Error{
					Op:         op,
					Kind:       KindUpstream,
					StatusCode: 0,
					Message:    "некорректный ответ ядра",
					Err:        err,
				}
			}
		}
		return nil, nil
	})

	elapsed := time.Since(start)
	coreRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	if err == nil {
		coreRequestsTotal.WithLabelValues(op, "ok").Inc()
		c.logger.Debug("Запрос к ядру выполнен",
			slog.String("op", op),
			slog.String("method", method),
			slog.String("path", path),
			slog.Duration("duration", elapsed),
		)
		return nil
	}

	ce, ok := AsError(err)
	if !ok {
		// gobreaker.ErrOpenState / ErrTooManyRequests
		ce = &Error{
			Op:         op,
			Kind:       KindUnavailable,
			StatusCode: 0,
			Message:    "ядро временно недоступно",
			Err:        err,
		}
	}
	coreRequestsTotal.WithLabelValues(op, outcomeLabel(ce)).Inc()

	attrs := []any{
		slog.String("op", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.String("kind", ce.Kind.String()),
		slog.Int("status", ce.StatusCode),
		slog.Duration("duration", elapsed),
		slog.String("error", ce.Error()),
	}
	if ce.Kind == KindUnavailable || ce.StatusCode >= http.StatusInternalServerError {
		c.logger.Warn("Ошибка запроса к ядру", attrs...)
	} else {
		c.logger.Debug("Ядро отклонило запрос", attrs...)
	}
	return ce
}

func outcomeLabel(e *Error) string {
	switch {
	case e.BreakerOpen():
		return "breaker_open"
	case e.Kind == KindUnavailable:
		return "unavailable"
	default:
		return strconv.Itoa(e.StatusCode)
	}
}

// setForwardedHeaders переносит в запрос тенант, Authorization и X-Request-ID.
func (c *Client) setForwardedHeaders(ctx context.Context, req *resty.Request) {
	if tenant := TenantFromContext(ctx); tenant != "" {
		req.SetHeader(c.tenantHeader, tenant)
	}
	if auth := AuthorizationFromContext(ctx); auth != "" {
		req.SetHeader("Authorization", auth)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		req.SetHeader("X-Request-ID", id)
	}
}

// --- Глобальная конфигурация ---

// GetMakerCheckerConfig читает глобальную конфигурацию maker-checker.
// GET /configurations/name/maker-checker
func (c *Client) GetMakerCheckerConfig(ctx context.Context) (*model.GlobalConfiguration, error) {
	var w wireConfiguration
	if err := c.do(ctx, "GetMakerCheckerConfig", http.MethodGet,
		"/configurations/name/"+makerCheckerConfigName, nil, nil, &w); err != nil {
		return nil, err
	}
	return &model.GlobalConfiguration{ID: w.ID, Name: w.Name, Enabled: w.Enabled}, nil
}

// UpdateConfiguration включает или выключает глобальную конфигурацию.
// PUT /configurations/{id}
func (c *Client) UpdateConfiguration(ctx context.Context, id int64, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.do(ctx, "UpdateConfiguration", http.MethodPut,
		"/configurations/"+strconv.FormatInt(id, 10), nil, body, nil)
}

// --- Разрешения ---

// ListPermissions возвращает разрешения.
// GET /permissions?makerCheckerable=true|false
func (c *Client) ListPermissions(ctx context.Context, makerCheckerableOnly bool) ([]model.Permission, error) {
	q := url.Values{}
	q.Set("makerCheckerable", strconv.FormatBool(makerCheckerableOnly))

	var wire []wirePermission
	if err := c.do(ctx, "ListPermissions", http.MethodGet, "/permissions", q, nil, &wire); err != nil {
		return nil, err
	}
	perms := make([]model.Permission, 0, len(wire))
	for i := range wire {
		perms = append(perms, wire[i].toModel())
	}
	return perms, nil
}

// UpdatePermissions массово выставляет флаг selected.
// PUT /permissions {"permissions": {code: bool}}
func (c *Client) UpdatePermissions(ctx context.Context, updates map[string]bool) error {
	body := map[string]map[string]bool{"permissions": updates}
	return c.do(ctx, "UpdatePermissions", http.MethodPut, "/permissions", nil, body, nil)
}

// --- Записи maker-checker ---

// ListEntries возвращает записи maker-checker по фильтрам.
// GET /makercheckers
func (c *Client) ListEntries(ctx context.Context, f model.EntryFilter) ([]model.Entry, error) {
	var wire []wireEntry
	if err := c.do(ctx, "ListEntries", http.MethodGet, "/makercheckers", entryFilterQuery(f), nil, &wire); err != nil {
		return nil, err
	}
	entries := make([]model.Entry, 0, len(wire))
	for i := range wire {
		e, err := wire[i].toModel()
		if err != nil {
			// Одна нераспознанная запись не должна скрывать остальные.
			c.logger.Warn("Запись ядра пропущена",
				slog.String("op", "ListEntries"),
				slog.String("error", err.Error()),
			)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// entryFilterQuery переводит фильтр в query-параметры ядра.
// loanId ядро ожидает в нижнем регистре: loanid.
func entryFilterQuery(f model.EntryFilter) url.Values {
	q := url.Values{}
	setString := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	setID := func(k string, v *int64) {
		if v != nil {
			q.Set(k, strconv.FormatInt(*v, 10))
		}
	}
	setString("actionName", f.ActionName)
	setString("entityName", f.EntityName)
	setID("resourceId", f.ResourceID)
	setID("makerId", f.MakerID)
	setString("makerDateTimeFrom", f.MakerDateTimeFrom)
	setString("makerDateTimeTo", f.MakerDateTimeTo)
	setID("officeId", f.OfficeID)
	setID("groupId", f.GroupID)
	setID("clientId", f.ClientID)
	setID("loanid", f.LoanID)
	setID("savingsAccountId", f.SavingsAccountID)
	if f.IncludeJSON {
		q.Set("includeJson", "true")
	}
	return q
}

// SearchTemplate возвращает справочник проверяемых сущностей и действий.
// GET /makercheckers/searchtemplate
func (c *Client) SearchTemplate(ctx context.Context) (*model.SearchTemplate, error) {
	var w wireSearchTemplate
	if err := c.do(ctx, "SearchTemplate", http.MethodGet, "/makercheckers/searchtemplate", nil, nil, &w); err != nil {
		return nil, err
	}
	tpl := &model.SearchTemplate{EntityNames: w.EntityNames, ActionNames: w.ActionNames}
	if tpl.EntityNames == nil {
		tpl.EntityNames = []string{}
	}
	if tpl.ActionNames == nil {
		tpl.ActionNames = []string{}
	}
	return tpl, nil
}

// GetEntry читает одну запись.
// GET /audits/{auditId}
func (c *Client) GetEntry(ctx context.Context, auditID int64) (*model.Entry, error) {
	var w wireEntry
	if err := c.do(ctx, "GetEntry", http.MethodGet, "/audits/"+strconv.FormatInt(auditID, 10), nil, nil, &w); err != nil {
		return nil, err
	}
	e, err := w.toModel()
	if err != nil {
		return nil, &Error{Op: "GetEntry", Kind: KindUpstream, Message: "некорректная запись ядра", Err: err}
	}
	return &e, nil
}

// ResolveEntry одобряет или отклоняет запись.
// POST /makercheckers/{auditId}?command=approve|reject
func (c *Client) ResolveEntry(ctx context.Context, auditID int64, command string) error {
	q := url.Values{}
	q.Set("command", command)
	var res wireCommandResult
	return c.do(ctx, "ResolveEntry", http.MethodPost,
		"/makercheckers/"+strconv.FormatInt(auditID, 10), q, struct{}{}, &res)
}

// DeleteEntry удаляет запись без решения.
// DELETE /makercheckers/{auditId}
func (c *Client) DeleteEntry(ctx context.Context, auditID int64) error {
	var res wireCommandResult
	return c.do(ctx, "DeleteEntry", http.MethodDelete,
		"/makercheckers/"+strconv.FormatInt(auditID, 10), nil, nil, &res)
}

// --- Пользователи ---

// ListUsers возвращает пользователей ядра.
// GET /users
func (c *Client) ListUsers(ctx context.Context) ([]model.SuperCheckerUser, error) {
	var wire []wireUser
	if err := c.do(ctx, "ListUsers", http.MethodGet, "/users", nil, nil, &wire); err != nil {
		return nil, err
	}
	users := make([]model.SuperCheckerUser, 0, len(wire))
	for i := range wire {
		users = append(users, wire[i].toModel())
	}
	return users, nil
}

// SetSuperChecker выставляет признак супер-чекера пользователю.
// PUT /users/{userId} {"isSuperChecker": bool}
func (c *Client) SetSuperChecker(ctx context.Context, userID int64, isSuperChecker bool) error {
	body := map[string]bool{"isSuperChecker": isSuperChecker}
	return c.do(ctx, "SetSuperChecker", http.MethodPut,
		"/users/"+strconv.FormatInt(userID, 10), nil, body, nil)
}
