package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/core"
	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// fakeCore — ядро в памяти. Решения по записям применяются так же, как в
// настоящем ядре: повторное решение отвечает ошибкой not.pending.
type fakeCore struct {
	mu sync.Mutex

	config      model.GlobalConfiguration
	permissions []model.Permission
	entries     map[int64]*model.Entry
	template    model.SearchTemplate
	users       []model.SuperCheckerUser

	// Ошибки, возвращаемые соответствующими вызовами.
	errConfig     error
	errPerms      error
	errEntries    error
	errTemplate   error
	errGetEntry   error
	errResolve    error
	errUsers      error
	errUpdateUser error

	// Записанные вызовы.
	updatedConfig   *bool
	updatedPerms    map[string]bool
	resolveCalls    []string
	deleteCalls     []int64
	lastFilter      model.EntryFilter
	superCheckerSet map[int64]bool
	// currentChecker — id, который ядро запишет как checkerId.
	currentChecker int64
}

func newFakeCore() *fakeCore {
	return &fakeCore{
		config:          model.GlobalConfiguration{ID: 3, Name: "maker-checker", Enabled: true},
		entries:         map[int64]*model.Entry{},
		superCheckerSet: map[int64]bool{},
	}
}

func (f *fakeCore) GetMakerCheckerConfig(_ context.Context) (*model.GlobalConfiguration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errConfig != nil {
		return nil, f.errConfig
	}
	c := f.config
	return &c, nil
}

func (f *fakeCore) UpdateConfiguration(_ context.Context, id int64, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.config.ID {
		return notFound("UpdateConfiguration")
	}
	f.config.Enabled = enabled
	f.updatedConfig = &enabled
	return nil
}

func (f *fakeCore) ListPermissions(_ context.Context, _ bool) ([]model.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errPerms != nil {
		return nil, f.errPerms
	}
	out := make([]model.Permission, len(f.permissions))
	copy(out, f.permissions)
	return out, nil
}

func (f *fakeCore) UpdatePermissions(_ context.Context, updates map[string]bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedPerms = updates
	for code, sel := range updates {
		found := false
		for i := range f.permissions {
			if f.permissions[i].Code == code {
				f.permissions[i].Selected = sel
				found = true
			}
		}
		if !found {
			f.permissions = append(f.permissions, model.Permission{Code: code, Selected: sel})
		}
	}
	return nil
}

func (f *fakeCore) ListEntries(_ context.Context, flt model.EntryFilter) ([]model.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = flt
	if f.errEntries != nil {
		return nil, f.errEntries
	}
	out := make([]model.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeCore) SearchTemplate(_ context.Context) (*model.SearchTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errTemplate != nil {
		return nil, f.errTemplate
	}
	t := f.template
	return &t, nil
}

func (f *fakeCore) GetEntry(_ context.Context, auditID int64) (*model.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errGetEntry != nil {
		return nil, f.errGetEntry
	}
	e, ok := f.entries[auditID]
	if !ok {
		return nil, notFound("GetEntry")
	}
	c := *e
	return &c, nil
}

func (f *fakeCore) ResolveEntry(_ context.Context, auditID int64, command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls = append(f.resolveCalls, command)
	if f.errResolve != nil {
		return f.errResolve
	}
	e, ok := f.entries[auditID]
	if !ok {
		return notFound("ResolveEntry")
	}
	if !e.IsPending() {
		return alreadyProcessed("ResolveEntry")
	}
	id := f.currentChecker
	e.CheckerID = &id
	if command == "approve" {
		e.ProcessingResult = model.ResultApproved
	} else {
		e.ProcessingResult = model.ResultRejected
	}
	return nil
}

func (f *fakeCore) DeleteEntry(_ context.Context, auditID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, auditID)
	delete(f.entries, auditID)
	return nil
}

func (f *fakeCore) ListUsers(_ context.Context) ([]model.SuperCheckerUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errUsers != nil {
		return nil, f.errUsers
	}
	out := make([]model.SuperCheckerUser, len(f.users))
	copy(out, f.users)
	return out, nil
}

func (f *fakeCore) SetSuperChecker(_ context.Context, userID int64, isSuperChecker bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errUpdateUser != nil {
		return f.errUpdateUser
	}
	f.superCheckerSet[userID] = isSuperChecker
	for i := range f.users {
		if f.users[i].ID == userID {
			f.users[i].IsSuperChecker = isSuperChecker
		}
	}
	return nil
}

func (f *fakeCore) addEntry(e model.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := e
	f.entries[e.AuditID] = &c
}

func notFound(op string) error {
	return &core.Error{Op: op, Kind: core.KindUpstream, StatusCode: http.StatusNotFound, Message: "not found"}
}

func alreadyProcessed(op string) error {
	return &core.Error{
		Op:         op,
		Kind:       core.KindUpstream,
		StatusCode: http.StatusForbidden,
		Code:       "error.msg.maker.checker.not.pending",
		Message:    "entry is not pending",
	}
}

func unavailable(op string) error {
	return &core.Error{Op: op, Kind: core.KindUnavailable, Err: errors.New("connection refused")}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
