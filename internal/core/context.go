package core

import "context"

type ctxKey int

const (
	tenantKey ctxKey = iota
	authorizationKey
	requestIDKey
)

// WithTenant сохраняет идентификатор тенанта для передачи ядру.
func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey, tenant)
}

// TenantFromContext возвращает тенант или пустую строку.
func TenantFromContext(ctx context.Context) string {
	v, _ := ctx.Value(tenantKey).(string)
	return v
}

// WithAuthorization сохраняет заголовок Authorization вызывающего пользователя.
// Ядро фиксирует чекера по этому заголовку.
func WithAuthorization(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, authorizationKey, header)
}

// AuthorizationFromContext возвращает сохранённый Authorization.
func AuthorizationFromContext(ctx context.Context) string {
	v, _ := ctx.Value(authorizationKey).(string)
	return v
}

// WithRequestID сохраняет идентификатор запроса для X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext возвращает идентификатор запроса.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
