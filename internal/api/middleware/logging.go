// logging.go — middleware логирования входящих HTTP-запросов через slog.
// Перехватывает статус-код, размер ответа и длительность обработки,
// а также тенант и пользователя, которых определяют Tenant и JWTAuth.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/core"
)

// responseWriter — обёртка для перехвата статус-кода ответа.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// caller — кто и от имени какого тенанта выполняет запрос.
// RequestLogger создаёт его до аутентификации, заполняют JWTAuth и Tenant.
type caller struct {
	username string
	role     string
	tenant   string
}

type callerKey struct{}

func callerFromContext(ctx context.Context) *caller {
	c, _ := ctx.Value(callerKey{}).(*caller)
	return c
}

// noteUser запоминает пользователя для журнала запроса.
func noteUser(ctx context.Context, claims *AuthClaims) {
	if c := callerFromContext(ctx); c != nil && claims != nil {
		c.username = claims.PreferredUsername
		c.role = claims.Role
	}
}

// noteTenant запоминает тенант для журнала запроса.
func noteTenant(ctx context.Context, tenant string) {
	if c := callerFromContext(ctx); c != nil {
		c.tenant = tenant
	}
}

// RequestLogger возвращает middleware, логирующий каждый HTTP-запрос.
// Уровень зависит от статус-кода: INFO (1xx-3xx), WARN (4xx), ERROR (5xx).
// Должен стоять после RequestID: request_id берётся из контекста.
// Пустые tenant, username и role (публичные маршруты, отказ в доступе) не пишутся.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)
			who := &caller{}

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), callerKey{}, who)))

			level := slog.LevelInfo
			if wrapped.statusCode >= 500 {
				level = slog.LevelError
			} else if wrapped.statusCode >= 400 {
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("request_id", core.RequestIDFromContext(r.Context())),
			}
			if who.tenant != "" {
				attrs = append(attrs, slog.String("tenant", who.tenant))
			}
			if who.username != "" {
				attrs = append(attrs, slog.String("username", who.username), slog.String("role", who.role))
			}
			logger.LogAttrs(r.Context(), level, "HTTP запрос", attrs...)
		})
	}
}
