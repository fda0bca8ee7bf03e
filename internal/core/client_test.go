package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		BaseURL: srv.URL + "/api/v1",
		Timeout: 5 * time.Second,
		Breaker: BreakerSettings{MinRequests: 3, FailureRatio: 0.5, OpenTimeout: time.Minute},
	}, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ForwardsHeaders(t *testing.T) {
	var gotTenant, gotAuth, gotReqID string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = r.Header.Get(DefaultTenantHeader)
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, map[string]any{"id": 12, "name": "maker-checker", "enabled": true})
	}))

	ctx := WithTenant(context.Background(), "branch-01")
	ctx = WithAuthorization(ctx, "Bearer abc")
	ctx = WithRequestID(ctx, "req-1")

	cfg, err := c.GetMakerCheckerConfig(ctx)
	if err != nil {
		t.Fatalf("GetMakerCheckerConfig: %v", err)
	}
	if cfg.ID != 12 || !cfg.Enabled {
		t.Errorf("неожиданная конфигурация: %+v", cfg)
	}
	if gotTenant != "branch-01" {
		t.Errorf("тенант = %q, ожидался branch-01", gotTenant)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReqID != "req-1" {
		t.Errorf("X-Request-ID = %q", gotReqID)
	}
}

func TestClient_ListEntries_QueryAndDecoding(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/makercheckers" {
			t.Errorf("путь = %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		_, _ = io.WriteString(w, `[
			{"id": 5, "madeById": 7, "maker": "olga", "madeOnDate": 1714000000000,
			 "processingResult": "awaiting.approval", "entityName": "LOAN", "actionName": "APPROVE", "resourceId": 55},
			{"auditId": 6, "makerId": 8, "checkerId": 9, "madeOnDate": [2024, 5, 1, 10, 30, 0],
			 "checkedOnDate": "2024-05-02 11:00:00", "processingResult": "Approved", "entityName": "CLIENT", "actionName": "CREATE"}
		]`)
	}))

	loanID := int64(42)
	makerID := int64(7)
	entries, err := c.ListEntries(context.Background(), model.EntryFilter{
		EntityName:  "LOAN",
		MakerID:     &makerID,
		LoanID:      &loanID,
		IncludeJSON: true,
	})
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}

	if gotQuery["loanid"][0] != "42" {
		t.Errorf("loanId должен передаваться как loanid: %v", gotQuery)
	}
	if _, ok := gotQuery["loanId"]; ok {
		t.Error("параметр loanId не должен передаваться в исходном регистре")
	}
	if gotQuery["makerId"][0] != "7" || gotQuery["entityName"][0] != "LOAN" || gotQuery["includeJson"][0] != "true" {
		t.Errorf("неожиданные параметры: %v", gotQuery)
	}
	if _, ok := gotQuery["officeId"]; ok {
		t.Error("пустые фильтры не должны передаваться")
	}

	if len(entries) != 2 {
		t.Fatalf("ожидалось 2 записи, получено %d", len(entries))
	}
	first := entries[0]
	if first.AuditID != 5 || first.MakerID != 7 || first.ProcessingResult != model.ResultPending {
		t.Errorf("первая запись: %+v", first)
	}
	if !first.MadeOnDate.Equal(time.UnixMilli(1714000000000)) {
		t.Errorf("madeOnDate = %v", first.MadeOnDate)
	}
	second := entries[1]
	if second.CheckerID == nil || *second.CheckerID != 9 || second.ProcessingResult != model.ResultApproved {
		t.Errorf("вторая запись: %+v", second)
	}
	if want := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC); !second.MadeOnDate.Equal(want) {
		t.Errorf("madeOnDate из массива = %v, ожидалось %v", second.MadeOnDate, want)
	}
	if second.CheckedOnDate == nil || second.CheckedOnDate.Hour() != 11 {
		t.Errorf("checkedOnDate = %v", second.CheckedOnDate)
	}
}

func TestClient_ListEntries_SkipsUnknownResult(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "madeById": 7, "processingResult": "Processed", "checkedById": 9, "entityName": "LOAN"},
			{"id": 2, "madeById": 7, "processingResult": "Awaiting Approval", "entityName": "LOAN"},
			{"id": 3, "madeById": 7, "processingResult": "processingResultType.awaiting.approval", "entityName": "CLIENT"},
			{"id": 4, "madeById": 7, "processingResult": "on.hold", "entityName": "LOAN"},
		})
	}))

	entries, err := c.ListEntries(context.Background(), model.EntryFilter{})
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	want := map[int64]model.ProcessingResult{
		1: model.ResultApproved,
		2: model.ResultPending,
		3: model.ResultPending,
	}
	if len(entries) != len(want) {
		t.Fatalf("получено %d записей, ожидалось %d: %+v", len(entries), len(want), entries)
	}
	for _, e := range entries {
		if want[e.AuditID] != e.ProcessingResult {
			t.Errorf("запись %d: %s, ожидалось %s", e.AuditID, e.ProcessingResult, want[e.AuditID])
		}
	}
}

func TestClient_UpdatePermissionsBody(t *testing.T) {
	var body map[string]map[string]bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/permissions" {
			t.Errorf("запрос %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{})
	}))

	if err := c.UpdatePermissions(context.Background(), map[string]bool{"LOAN_APPROVE": true}); err != nil {
		t.Fatalf("UpdatePermissions: %v", err)
	}
	if !body["permissions"]["LOAN_APPROVE"] {
		t.Errorf("тело запроса: %v", body)
	}
}

func TestClient_ResolveEntry(t *testing.T) {
	var gotCommand, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCommand = r.URL.Query().Get("command")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]any{"resourceId": 101})
	}))

	if err := c.ResolveEntry(context.Background(), 101, "approve"); err != nil {
		t.Fatalf("ResolveEntry: %v", err)
	}
	if gotPath != "/api/v1/makercheckers/101" || gotCommand != "approve" {
		t.Errorf("запрос: path=%s command=%s", gotPath, gotCommand)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		wantCode        string
		wantAlready     bool
		wantNotFound    bool
		wantClientError bool
	}{
		{
			name:            "409 — уже обработана",
			status:          http.StatusConflict,
			body:            `{"developerMessage": "conflict", "defaultUserMessage": "Entry already processed"}`,
			wantAlready:     true,
			wantClientError: true,
		},
		{
			name:   "403 с кодом not.pending",
			status: http.StatusForbidden,
			body: `{"userMessageGlobalisationCode": "validation.msg.validation.errors.exist",
				"errors": [{"userMessageGlobalisationCode": "error.msg.maker.checker.not.pending"}]}`,
			wantCode:        "validation.msg.validation.errors.exist",
			wantAlready:     true,
			wantClientError: true,
		},
		{
			name:            "404",
			status:          http.StatusNotFound,
			body:            `{"userMessageGlobalisationCode": "error.msg.audit.id.invalid", "defaultUserMessage": "Audit not found"}`,
			wantCode:        "error.msg.audit.id.invalid",
			wantNotFound:    true,
			wantClientError: true,
		},
		{
			name:   "500 с нераспознанным телом",
			status: http.StatusInternalServerError,
			body:   `upstream exploded`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			err := c.ResolveEntry(context.Background(), 1, "approve")
			ce, ok := AsError(err)
			if !ok {
				t.Fatalf("ожидалась *core.Error, получено %v", err)
			}
			if ce.Kind != KindUpstream || ce.StatusCode != tt.status {
				t.Errorf("kind=%s status=%d", ce.Kind, ce.StatusCode)
			}
			if ce.Code != tt.wantCode {
				t.Errorf("code = %q, ожидался %q", ce.Code, tt.wantCode)
			}
			if ce.IsAlreadyProcessed() != tt.wantAlready {
				t.Errorf("IsAlreadyProcessed() = %v", ce.IsAlreadyProcessed())
			}
			if ce.IsNotFound() != tt.wantNotFound {
				t.Errorf("IsNotFound() = %v", ce.IsNotFound())
			}
			if ce.IsClientError() != tt.wantClientError {
				t.Errorf("IsClientError() = %v", ce.IsClientError())
			}
			if ce.Message == "" {
				t.Error("сообщение ошибки не должно быть пустым")
			}
		})
	}
}

func TestClient_NoRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_ = c.ResolveEntry(context.Background(), 1, "approve")
	if n := calls.Load(); n != 1 {
		t.Errorf("ожидался ровно 1 запрос к ядру, выполнено %d", n)
	}
}

func TestClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: baseURL, Timeout: time.Second}, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.ListUsers(context.Background())
	ce, ok := AsError(err)
	if !ok || ce.Kind != KindUnavailable || ce.StatusCode != 0 {
		t.Fatalf("ожидалась ошибка недоступности, получено %v", err)
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	for range 3 {
		_, _ = c.ListUsers(context.Background())
	}
	_, err := c.ListUsers(context.Background())
	ce, ok := AsError(err)
	if !ok || !ce.BreakerOpen() || ce.Kind != KindUnavailable {
		t.Fatalf("ожидался разомкнутый breaker, получено %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("при разомкнутом breaker запрос не должен уходить в ядро: %d вызовов", n)
	}
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	for range 5 {
		_, err := c.ListUsers(context.Background())
		ce, ok := AsError(err)
		if !ok || ce.BreakerOpen() {
			t.Fatalf("4xx не должны размыкать breaker: %v", err)
		}
	}
}

func TestIsBreakerSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"отмена", &Error{Kind: KindUnavailable, Err: context.Canceled}, true},
		{"4xx", &Error{Kind: KindUpstream, StatusCode: 400}, true},
		{"5xx", &Error{Kind: KindUpstream, StatusCode: 502}, false},
		{"сеть", &Error{Kind: KindUnavailable, Err: errors.New("dial")}, false},
		{"прочее", errors.New("x"), false},
	}
	for _, tt := range tests {
		if got := isBreakerSuccess(tt.err); got != tt.want {
			t.Errorf("%s: isBreakerSuccess() = %v, ожидалось %v", tt.name, got, tt.want)
		}
	}
}

func TestHealthURL(t *testing.T) {
	got, err := HealthURL("https://core.bank.local:8443/fineract-provider/api/v1", "")
	if err != nil {
		t.Fatalf("HealthURL: %v", err)
	}
	if got != "https://core.bank.local:8443/actuator/health" {
		t.Errorf("HealthURL = %q", got)
	}
	if _, err := HealthURL("core-without-scheme", ""); err == nil {
		t.Error("ожидалась ошибка для URL без схемы")
	}
}

func TestReadinessChecker(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DefaultHealthPath {
			t.Errorf("путь health = %s", r.URL.Path)
		}
		w.WriteHeader(int(status.Load()))
	}))

	rc, err := c.NewReadinessChecker("", time.Second)
	if err != nil {
		t.Fatalf("NewReadinessChecker: %v", err)
	}
	if s, msg := rc.CheckReady(); s != "ok" {
		t.Errorf("CheckReady() = %s (%s), ожидалось ok", s, msg)
	}

	status.Store(http.StatusServiceUnavailable)
	if s, _ := rc.CheckReady(); s != "fail" {
		t.Errorf("CheckReady() = %s, ожидалось fail", s)
	}
}
