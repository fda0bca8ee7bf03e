// inbox.go — входящие записи maker-checker для текущего пользователя.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/inbox"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// InboxQuery — параметры запроса входящих.
type InboxQuery struct {
	// Filter передаётся ядру без изменений.
	Filter model.EntryFilter
	// Scope — "pending" (по умолчанию) или "mine".
	Scope string
	// ProcessingResult — фильтр по состоянию, пустая строка — без фильтра.
	ProcessingResult string
	// Q — свободный текст.
	Q string
}

// InboxResult — ответ с входящими.
type InboxResult struct {
	Items          []model.Entry           `json:"items"`
	SearchTemplate model.SearchTemplate    `json:"searchTemplate"`
	Summary        model.Summary           `json:"summary"`
	CurrentUser    *model.SuperCheckerUser `json:"currentUser"`
}

// InboxService — построение входящих.
type InboxService struct {
	core   CoreAPI
	actors *ActorResolver
	logger *slog.Logger
}

// NewInboxService создаёт сервис входящих.
func NewInboxService(core CoreAPI, actors *ActorResolver, logger *slog.Logger) *InboxService {
	return &InboxService{
		core:   core,
		actors: actors,
		logger: logger.With(slog.String("component", "inbox_service")),
	}
}

// GetInbox возвращает записи, видимые пользователю username.
// Параметры проверяются до обращения к ядру. Шаблон поиска и список
// пользователей читаются заново на каждый запрос.
func (s *InboxService) GetInbox(ctx context.Context, username string, q InboxQuery) (*InboxResult, error) {
	scope, err := inbox.ParseScope(q.Scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	local := inbox.Query{Scope: scope, Search: q.Q}
	if q.ProcessingResult != "" {
		r, err := model.ParseProcessingResult(q.ProcessingResult)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		local.Result = &r
	}

	actor, err := s.actors.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	tpl, err := s.core.SearchTemplate(ctx)
	if err != nil {
		return nil, wrapCore("получение шаблона поиска", err)
	}

	entries, err := s.core.ListEntries(ctx, q.Filter)
	if err != nil {
		return nil, wrapCore("получение записей maker-checker", err)
	}

	items := inbox.Apply(entries, local, actor, tpl.EntityNames)

	s.logger.Debug("Входящие построены",
		slog.String("username", username),
		slog.String("scope", string(scope)),
		slog.Int("fetched", len(entries)),
		slog.Int("returned", len(items)),
		slog.Bool("actor_resolved", actor != nil),
	)

	return &InboxResult{
		Items:          items,
		SearchTemplate: *tpl,
		Summary:        inbox.Summarize(items),
		CurrentUser:    actor,
	}, nil
}
