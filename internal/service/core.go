// Пакет service — бизнес-логика maker-checker BFF.
// core.go — контракт ядра, которым пользуются сервисы, и разбор его ошибок.
package service

import (
	"context"
	"fmt"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/core"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// CoreAPI — операции ядра, нужные сервисному слою.
// Реализуется *core.Client.
type CoreAPI interface {
	GetMakerCheckerConfig(ctx context.Context) (*model.GlobalConfiguration, error)
	UpdateConfiguration(ctx context.Context, id int64, enabled bool) error

	ListPermissions(ctx context.Context, makerCheckerableOnly bool) ([]model.Permission, error)
	UpdatePermissions(ctx context.Context, updates map[string]bool) error

	ListEntries(ctx context.Context, f model.EntryFilter) ([]model.Entry, error)
	SearchTemplate(ctx context.Context) (*model.SearchTemplate, error)
	GetEntry(ctx context.Context, auditID int64) (*model.Entry, error)
	ResolveEntry(ctx context.Context, auditID int64, command string) error
	DeleteEntry(ctx context.Context, auditID int64) error

	ListUsers(ctx context.Context) ([]model.SuperCheckerUser, error)
	SetSuperChecker(ctx context.Context, userID int64, isSuperChecker bool) error
}

var _ CoreAPI = (*core.Client)(nil)

// wrapCore добавляет контекст операции к ошибке ядра.
// Недоступность ядра помечается ErrUpstreamUnavailable, ответ ядра
// с ошибкой остаётся *core.Error и отдаётся клиенту со статусом ядра.
func wrapCore(op string, err error) error {
	if ce, ok := core.AsError(err); ok && ce.Kind == core.KindUnavailable {
		return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
