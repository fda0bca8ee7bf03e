// request_context.go — контекст запроса, передаваемый в ядро:
// идентификатор запроса, тенант и Authorization вызывающего пользователя.
package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	apierrors "github.com/bigkaa/corebank-admin/maker-checker-bff/internal/api/errors"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/core"
)

// RequestIDHeader — заголовок идентификатора запроса.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen — входящий идентификатор длиннее заменяется новым.
const maxRequestIDLen = 128

// RequestID берёт X-Request-ID из запроса или генерирует UUID.
// Идентификатор возвращается клиенту и уходит в ядро.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(core.WithRequestID(r.Context(), id)))
		})
	}
}

// Tenant требует заголовок тенанта и кладёт его в контекст вместе с Authorization.
// При пустом заголовке используется defaultTenant; если и он пуст — 400.
func Tenant(header, defaultTenant string) func(http.Handler) http.Handler {
	if header == "" {
		header = core.DefaultTenantHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant := strings.TrimSpace(r.Header.Get(header))
			if tenant == "" {
				tenant = defaultTenant
			}
			if tenant == "" {
				apierrors.InvalidRequest(w, "Отсутствует заголовок "+header)
				return
			}

			noteTenant(r.Context(), tenant)
			ctx := core.WithTenant(r.Context(), tenant)
			if auth := r.Header.Get("Authorization"); auth != "" {
				ctx = core.WithAuthorization(ctx, auth)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
