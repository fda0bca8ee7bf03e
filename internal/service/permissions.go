// permissions.go — реестр разрешений maker-checker.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/permission"
)

// PermissionService — чтение и массовое обновление разрешений.
type PermissionService struct {
	core   CoreAPI
	logger *slog.Logger
}

// NewPermissionService создаёт сервис разрешений.
func NewPermissionService(core CoreAPI, logger *slog.Logger) *PermissionService {
	return &PermissionService{
		core:   core,
		logger: logger.With(slog.String("component", "permission_service")),
	}
}

// List возвращает разрешения с проставленной группой отображения.
func (s *PermissionService) List(ctx context.Context, makerCheckerableOnly bool) ([]model.Permission, error) {
	perms, err := s.core.ListPermissions(ctx, makerCheckerableOnly)
	if err != nil {
		return nil, wrapCore("получение разрешений", err)
	}
	return permission.Annotate(perms), nil
}

// ListGrouped возвращает разрешения, сгруппированные для UI.
func (s *PermissionService) ListGrouped(ctx context.Context, makerCheckerableOnly bool) ([]model.PermissionGroup, error) {
	perms, err := s.core.ListPermissions(ctx, makerCheckerableOnly)
	if err != nil {
		return nil, wrapCore("получение разрешений", err)
	}
	return permission.GroupPermissions(perms), nil
}

// Update нормализует обновление и передаёт его ядру.
// Возвращает каноническую карту код → selected, отправленную в ядро.
func (s *PermissionService) Update(ctx context.Context, u permission.Update, changedBy string) (map[string]bool, error) {
	updates, err := u.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := s.core.UpdatePermissions(ctx, updates); err != nil {
		return nil, wrapCore("обновление разрешений", err)
	}

	s.logger.Info("Разрешения maker-checker обновлены",
		slog.String("shape", u.Shape.String()),
		slog.Int("codes", len(updates)),
		slog.String("changed_by", changedBy),
	)
	return updates, nil
}
