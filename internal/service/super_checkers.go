// super_checkers.go — управление супер-чекерами и отчёт о масштабе maker-checker.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/inbox"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/permission"
)

// SuperCheckerService — список супер-чекеров, переключение признака и Impact.
type SuperCheckerService struct {
	core   CoreAPI
	logger *slog.Logger
}

// NewSuperCheckerService создаёт сервис супер-чекеров.
func NewSuperCheckerService(core CoreAPI, logger *slog.Logger) *SuperCheckerService {
	return &SuperCheckerService{
		core:   core,
		logger: logger.With(slog.String("component", "super_checker_service")),
	}
}

// List возвращает пользователей ядра с признаком супер-чекера.
func (s *SuperCheckerService) List(ctx context.Context) ([]model.SuperCheckerUser, error) {
	users, err := s.core.ListUsers(ctx)
	if err != nil {
		return nil, wrapCore("получение пользователей", err)
	}
	return users, nil
}

// SetStatus выставляет признак супер-чекера. Действует со следующей проверки доступа.
func (s *SuperCheckerService) SetStatus(ctx context.Context, userID int64, isSuperChecker bool, changedBy string) error {
	if userID <= 0 {
		return fmt.Errorf("%w: userId должен быть положительным", ErrInvalidRequest)
	}
	if err := s.core.SetSuperChecker(ctx, userID, isSuperChecker); err != nil {
		return wrapCore("изменение признака супер-чекера", err)
	}

	s.logger.Info("Признак супер-чекера изменён",
		slog.Int64("user_id", userID),
		slog.Bool("is_super_checker", isSuperChecker),
		slog.String("changed_by", changedBy),
	)
	return nil
}

// Impact собирает отчёт: разрешения, пользователи и ожидающие записи.
// Только чтение.
func (s *SuperCheckerService) Impact(ctx context.Context) (*model.Impact, error) {
	perms, err := s.core.ListPermissions(ctx, true)
	if err != nil {
		return nil, wrapCore("получение разрешений", err)
	}
	users, err := s.core.ListUsers(ctx)
	if err != nil {
		return nil, wrapCore("получение пользователей", err)
	}
	entries, err := s.core.ListEntries(ctx, model.EntryFilter{})
	if err != nil {
		return nil, wrapCore("получение записей maker-checker", err)
	}

	superCheckers := 0
	for _, u := range users {
		if u.IsSuperChecker {
			superCheckers++
		}
	}

	return &model.Impact{
		TotalPermissions:   len(perms),
		EnabledPermissions: permission.CountSelected(perms),
		TotalUsers:         len(users),
		SuperCheckerUsers:  superCheckers,
		PendingApprovals:   inbox.Summarize(entries).Pending,
	}, nil
}
