package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/core"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/service"
)

// stubCore — ядро в памяти для тестов обработчиков.
type stubCore struct {
	mu sync.Mutex

	enabled     bool
	permissions []model.Permission
	entries     map[int64]*model.Entry
	template    model.SearchTemplate
	users       []model.SuperCheckerUser
	checkerID   int64

	// err возвращается любым вызовом, если задана.
	err error

	lastFilter   model.EntryFilter
	updatedPerms map[string]bool
}

func newStubCore() *stubCore {
	return &stubCore{
		enabled: true,
		permissions: []model.Permission{
			{Code: "APPROVE_LOAN", Grouping: "portfolio", Selected: true},
			{Code: "CREATE_CLIENT", Grouping: "portfolio", Selected: false},
			{Code: "UPDATE_CODE", Grouping: "configuration", Selected: true},
		},
		entries: map[int64]*model.Entry{
			101: {
				AuditID: 101, MakerID: 7, Maker: "maker",
				MadeOnDate:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
				ProcessingResult: model.ResultPending,
				EntityName:       "LOAN", ActionName: "APPROVE", ResourceID: 55,
			},
			102: {
				AuditID: 102, MakerID: 9, Maker: "checker",
				MadeOnDate:       time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
				ProcessingResult: model.ResultPending,
				EntityName:       "CLIENT", ActionName: "CREATE",
			},
		},
		template: model.SearchTemplate{EntityNames: []string{"LOAN", "CLIENT"}, ActionNames: []string{"APPROVE", "CREATE"}},
		users: []model.SuperCheckerUser{
			{ID: 7, Username: "maker"},
			{ID: 9, Username: "checker"},
			{ID: 11, Username: "boss", IsSuperChecker: true},
		},
		checkerID: 9,
	}
}

func (s *stubCore) GetMakerCheckerConfig(_ context.Context) (*model.GlobalConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &model.GlobalConfiguration{ID: 1, Name: "maker-checker", Enabled: s.enabled}, nil
}

func (s *stubCore) UpdateConfiguration(_ context.Context, _ int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	return s.err
}

func (s *stubCore) ListPermissions(_ context.Context, _ bool) ([]model.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]model.Permission(nil), s.permissions...), nil
}

func (s *stubCore) UpdatePermissions(_ context.Context, updates map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedPerms = updates
	return s.err
}

func (s *stubCore) ListEntries(_ context.Context, f model.EntryFilter) ([]model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = f
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (s *stubCore) SearchTemplate(_ context.Context) (*model.SearchTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	t := s.template
	return &t, nil
}

func (s *stubCore) GetEntry(_ context.Context, auditID int64) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	e, ok := s.entries[auditID]
	if !ok {
		return nil, &core.Error{Op: "GetEntry", Kind: core.KindUpstream, StatusCode: http.StatusNotFound}
	}
	c := *e
	return &c, nil
}

func (s *stubCore) ResolveEntry(_ context.Context, auditID int64, command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	e := s.entries[auditID]
	id := s.checkerID
	e.CheckerID = &id
	if command == "approve" {
		e.ProcessingResult = model.ResultApproved
	} else {
		e.ProcessingResult = model.ResultRejected
	}
	return nil
}

func (s *stubCore) DeleteEntry(_ context.Context, auditID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.entries, auditID)
	return nil
}

func (s *stubCore) ListUsers(_ context.Context) ([]model.SuperCheckerUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]model.SuperCheckerUser(nil), s.users...), nil
}

func (s *stubCore) SetSuperChecker(_ context.Context, userID int64, isSuperChecker bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for i := range s.users {
		if s.users[i].ID == userID {
			s.users[i].IsSuperChecker = isSuperChecker
		}
	}
	return nil
}

var _ service.CoreAPI = (*stubCore)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestHandler собирает APIHandler на настоящих сервисах поверх stubCore.
func newTestHandler(c *stubCore) *APIHandler {
	logger := testLogger()
	actors := service.NewActorResolver(c)
	return NewAPIHandler(NewHealthHandler("maker-checker-bff", nil, nil), Services{
		Global:        service.NewGlobalToggleService(c, logger),
		Permissions:   service.NewPermissionService(c, logger),
		Inbox:         service.NewInboxService(c, actors, logger),
		Approval:      service.NewApprovalService(c, actors, logger),
		SuperCheckers: service.NewSuperCheckerService(c, logger),
		Gate:          service.NewGateService(c, logger),
	}, logger)
}

func unavailableErr(breakerOpen bool) error {
	var cause error = errors.New("connection refused")
	if breakerOpen {
		cause = gobreaker.ErrOpenState
	}
	return &core.Error{Op: "test", Kind: core.KindUnavailable, Err: cause}
}
