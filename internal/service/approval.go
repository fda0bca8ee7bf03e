// approval.go — решения чекеров по записям maker-checker.
//
// Локальных блокировок нет: гонку двух решений по одной записи разрешает ядро,
// проигравший получает ErrInvalidStateTransition. Повторов нет.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/core"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/approval"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// Исходы решений для метрик.
const (
	outcomeOK           = "ok"
	outcomeInvalid      = "invalid_request"
	outcomeForbidden    = "forbidden"
	outcomeInvalidState = "invalid_state"
	outcomeNotFound     = "not_found"
	outcomeError        = "error"
)

// ApprovalService — одобрение, отклонение и удаление записей.
type ApprovalService struct {
	core   CoreAPI
	actors *ActorResolver
	logger *slog.Logger
}

// NewApprovalService создаёт сервис решений.
func NewApprovalService(core CoreAPI, actors *ActorResolver, logger *slog.Logger) *ApprovalService {
	return &ApprovalService{
		core:   core,
		actors: actors,
		logger: logger.With(slog.String("component", "approval_service")),
	}
}

// Resolve применяет команду approve/reject пользователя username к записи auditID.
// Возвращает запись в терминальном состоянии с checkerId текущего пользователя.
func (s *ApprovalService) Resolve(ctx context.Context, username string, auditID int64, command string) (*model.Entry, error) {
	cmd, err := approval.ParseCommand(command)
	if err != nil {
		decisionsTotal.WithLabelValues("unknown", outcomeInvalid).Inc()
		return nil, mapDomainError(err)
	}
	entry, err := s.resolve(ctx, username, auditID, cmd)
	decisionsTotal.WithLabelValues(string(cmd), outcomeOf(err)).Inc()
	return entry, err
}

func (s *ApprovalService) resolve(ctx context.Context, username string, auditID int64, cmd approval.Command) (*model.Entry, error) {
	if auditID <= 0 {
		return nil, fmt.Errorf("%w: auditId должен быть положительным", ErrInvalidRequest)
	}

	actor, entry, tpl, err := s.load(ctx, username, auditID)
	if err != nil {
		return nil, err
	}

	if err := approval.AuthorizeResolve(actor, entry, tpl.EntityNames); err != nil {
		s.logger.Info("Решение по записи отклонено правилами доступа",
			slog.Int64("audit_id", auditID),
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, mapDomainError(err)
	}

	resolved, err := approval.Apply(*entry, cmd, actor.ID)
	if err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.core.ResolveEntry(ctx, auditID, string(cmd)); err != nil {
		if ce, ok := core.AsError(err); ok && ce.IsAlreadyProcessed() {
			return nil, fmt.Errorf("%w: запись %d уже обработана: %w", ErrInvalidStateTransition, auditID, err)
		}
		return nil, wrapCore("решение по записи", err)
	}

	s.logger.Info("Решение по записи принято",
		slog.Int64("audit_id", auditID),
		slog.String("command", string(cmd)),
		slog.Int64("checker_id", actor.ID),
		slog.Int64("maker_id", entry.MakerID),
		slog.String("entity", entry.EntityName),
	)
	return &resolved, nil
}

// Delete удаляет запись в состоянии Pending без решения.
// Запрет на действие над собственной записью к удалению не применяется.
func (s *ApprovalService) Delete(ctx context.Context, username string, auditID int64) error {
	err := s.delete(ctx, username, auditID)
	decisionsTotal.WithLabelValues("delete", outcomeOf(err)).Inc()
	return err
}

func (s *ApprovalService) delete(ctx context.Context, username string, auditID int64) error {
	if auditID <= 0 {
		return fmt.Errorf("%w: auditId должен быть положительным", ErrInvalidRequest)
	}

	actor, entry, tpl, err := s.load(ctx, username, auditID)
	if err != nil {
		return err
	}
	if err := approval.Authorize(actor, entry, tpl.EntityNames); err != nil {
		return mapDomainError(err)
	}
	if err := approval.CanDelete(entry.ProcessingResult); err != nil {
		return mapDomainError(err)
	}

	if err := s.core.DeleteEntry(ctx, auditID); err != nil {
		if ce, ok := core.AsError(err); ok && ce.IsAlreadyProcessed() {
			return fmt.Errorf("%w: запись %d уже обработана: %w", ErrInvalidStateTransition, auditID, err)
		}
		return wrapCore("удаление записи", err)
	}

	s.logger.Info("Запись удалена без решения",
		slog.Int64("audit_id", auditID),
		slog.Int64("deleted_by", actor.ID),
		slog.Int64("maker_id", entry.MakerID),
	)
	return nil
}

// load читает актора, запись и шаблон поиска. Всё читается заново из ядра.
func (s *ApprovalService) load(ctx context.Context, username string, auditID int64) (
	*model.SuperCheckerUser, *model.Entry, *model.SearchTemplate, error,
) {
	entry, err := s.core.GetEntry(ctx, auditID)
	if err != nil {
		if ce, ok := core.AsError(err); ok && ce.IsNotFound() {
			return nil, nil, nil, fmt.Errorf("%w: запись %d", ErrNotFound, auditID)
		}
		return nil, nil, nil, wrapCore("получение записи", err)
	}

	tpl, err := s.core.SearchTemplate(ctx)
	if err != nil {
		return nil, nil, nil, wrapCore("получение шаблона поиска", err)
	}

	actor, err := s.actors.Resolve(ctx, username)
	if err != nil {
		return nil, nil, nil, err
	}
	return actor, entry, tpl, nil
}

// mapDomainError переводит ошибки автомата в ошибки сервисного слоя.
func mapDomainError(err error) error {
	var te *approval.TransitionError
	if errors.As(err, &te) {
		if te.Code == approval.CodeInvalidCommand {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return fmt.Errorf("%w: %w", ErrInvalidStateTransition, err)
	}
	var ae *approval.AuthorizationError
	if errors.As(err, &ae) {
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrInvalidRequest):
		return outcomeInvalid
	case errors.Is(err, ErrForbidden):
		return outcomeForbidden
	case errors.Is(err, ErrInvalidStateTransition):
		return outcomeInvalidState
	case errors.Is(err, ErrNotFound):
		return outcomeNotFound
	default:
		return outcomeError
	}
}
