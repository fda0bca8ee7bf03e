// inbox.go — обработчики /api/v1/maker-checker/inbox.
// GET — входящие, POST — одобрение или отклонение, DELETE — удаление записи.
package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/middleware"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/service"
)

// inboxParams — query-параметры GET /maker-checker/inbox.
type inboxParams struct {
	Scope             *string
	ProcessingResult  *string
	Q                 *string
	ActionName        *string
	EntityName        *string
	ResourceID        *int64
	MakerID           *int64
	MakerDateTimeFrom *string
	MakerDateTimeTo   *string
	OfficeID          *int64
	GroupID           *int64
	ClientID          *int64
	LoanID            *int64
	SavingsAccountID  *int64
	IncludeJSON       *bool
}

// resolveRequest — тело POST /maker-checker/inbox.
type resolveRequest struct {
	AuditID int64  `json:"auditId"`
	Command string `json:"command"`
}

// deleteRequest — тело DELETE /maker-checker/inbox.
type deleteRequest struct {
	AuditID int64 `json:"auditId"`
}

// bindInboxParams разбирает query-параметры входящих.
func bindInboxParams(q url.Values) (inboxParams, error) {
	var p inboxParams
	binds := []struct {
		name string
		dest any
	}{
		{"scope", &p.Scope},
		{"processingResult", &p.ProcessingResult},
		{"q", &p.Q},
		{"actionName", &p.ActionName},
		{"entityName", &p.EntityName},
		{"resourceId", &p.ResourceID},
		{"makerId", &p.MakerID},
		{"makerDateTimeFrom", &p.MakerDateTimeFrom},
		{"makerDateTimeTo", &p.MakerDateTimeTo},
		{"officeId", &p.OfficeID},
		{"groupId", &p.GroupID},
		{"clientId", &p.ClientID},
		{"loanId", &p.LoanID},
		{"savingsAccountId", &p.SavingsAccountID},
		{"includeJson", &p.IncludeJSON},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return p, fmt.Errorf("%w: параметр %s: %w", service.ErrInvalidRequest, b.name, err)
		}
	}
	return p, nil
}

func (p inboxParams) toQuery() service.InboxQuery {
	q := service.InboxQuery{
		Scope:            deref(p.Scope),
		ProcessingResult: deref(p.ProcessingResult),
		Q:                deref(p.Q),
	}
	q.Filter.ActionName = deref(p.ActionName)
	q.Filter.EntityName = deref(p.EntityName)
	q.Filter.ResourceID = p.ResourceID
	q.Filter.MakerID = p.MakerID
	q.Filter.MakerDateTimeFrom = deref(p.MakerDateTimeFrom)
	q.Filter.MakerDateTimeTo = deref(p.MakerDateTimeTo)
	q.Filter.OfficeID = p.OfficeID
	q.Filter.GroupID = p.GroupID
	q.Filter.ClientID = p.ClientID
	q.Filter.LoanID = p.LoanID
	q.Filter.SavingsAccountID = p.SavingsAccountID
	q.Filter.IncludeJSON = p.IncludeJSON != nil && *p.IncludeJSON
	return q
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetInbox — GET /api/v1/maker-checker/inbox.
// Ответ: {items, searchTemplate, summary, currentUser}.
func (h *APIHandler) GetInbox(w http.ResponseWriter, r *http.Request) {
	params, err := bindInboxParams(r.URL.Query())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.inbox.GetInbox(r.Context(), middleware.UsernameFromContext(r.Context()), params.toQuery())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ResolveEntry — POST /api/v1/maker-checker/inbox.
// Тело {auditId, command: approve|reject}. Доступ: checker или admin.
func (h *APIHandler) ResolveEntry(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	entry, err := h.approval.Resolve(r.Context(), middleware.UsernameFromContext(r.Context()), req.AuditID, req.Command)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// DeleteEntry — DELETE /api/v1/maker-checker/inbox.
// Тело {auditId}. Доступ: admin.
func (h *APIHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.approval.Delete(r.Context(), middleware.UsernameFromContext(r.Context()), req.AuditID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
