// Пакет inbox — построение выборки входящих записей maker-checker для актора:
// область видимости, фильтр по состоянию, поиск, сортировка и сводка.
//
// Все функции чистые: исходные срезы не изменяются.
package inbox

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// Scope — область видимости выборки.
type Scope string

const (
	// ScopePending — записи, которые актор может проверить (по умолчанию).
	ScopePending Scope = "pending"
	// ScopeMine — записи, созданные самим актором.
	ScopeMine Scope = "mine"
)

// ParseScope разбирает область видимости. Пустая строка — ScopePending.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopePending:
		return ScopePending, nil
	case ScopeMine:
		return ScopeMine, nil
	default:
		return "", fmt.Errorf("недопустимая область %q, допустимые: pending, mine", s)
	}
}

// Query — параметры локальной обработки после выборки из ядра.
type Query struct {
	Scope Scope
	// Result — фильтр по состоянию, nil — без фильтра.
	Result *model.ProcessingResult
	// Search — свободный текст, пустая строка — без поиска.
	Search string
}

// ApplyScope оставляет записи, видимые актору в заданной области.
//
// mine: только записи актора, пустой результат для неизвестного актора.
// pending: супер-чекер видит всё, остальные только сущности из checkableEntities.
func ApplyScope(entries []model.Entry, scope Scope, actor *model.SuperCheckerUser, checkableEntities []string) []model.Entry {
	result := make([]model.Entry, 0, len(entries))
	switch scope {
	case ScopeMine:
		if actor == nil {
			return result
		}
		for _, e := range entries {
			if e.MakerID == actor.ID {
				result = append(result, e)
			}
		}
	default:
		if actor != nil && actor.IsSuperChecker {
			return append(result, entries...)
		}
		for _, e := range entries {
			if slices.Contains(checkableEntities, e.EntityName) {
				result = append(result, e)
			}
		}
	}
	return result
}

// FilterByResult оставляет записи с точным совпадением состояния.
func FilterByResult(entries []model.Entry, r model.ProcessingResult) []model.Entry {
	result := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if e.ProcessingResult == r {
			result = append(result, e)
		}
	}
	return result
}

// Search оставляет записи, в которых q встречается без учёта регистра хотя бы
// в одном из полей: entityName, actionName, makerId, resourceId, maker.
func Search(entries []model.Entry, q string) []model.Entry {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return slices.Clone(entries)
	}
	result := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if matches(&e, needle) {
			result = append(result, e)
		}
	}
	return result
}

func matches(e *model.Entry, needle string) bool {
	fields := [...]string{
		e.EntityName,
		e.ActionName,
		strconv.FormatInt(e.MakerID, 10),
		strconv.FormatInt(e.ResourceID, 10),
		e.Maker,
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Sort упорядочивает записи по madeOnDate (новые первыми), при равенстве
// по auditId по убыванию. Возвращает новый срез.
func Sort(entries []model.Entry) []model.Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b model.Entry) int {
		if c := b.MadeOnDate.Compare(a.MadeOnDate); c != 0 {
			return c
		}
		return cmp.Compare(b.AuditID, a.AuditID)
	})
	return sorted
}

// Apply выполняет полный конвейер: область, состояние, поиск, сортировка.
func Apply(entries []model.Entry, q Query, actor *model.SuperCheckerUser, checkableEntities []string) []model.Entry {
	result := ApplyScope(entries, q.Scope, actor, checkableEntities)
	if q.Result != nil {
		result = FilterByResult(result, *q.Result)
	}
	result = Search(result, q.Search)
	return Sort(result)
}

// Summarize считает записи по состояниям.
func Summarize(entries []model.Entry) model.Summary {
	var s model.Summary
	for _, e := range entries {
		switch e.ProcessingResult {
		case model.ResultPending:
			s.Pending++
		case model.ResultApproved:
			s.Approved++
		case model.ResultRejected:
			s.Rejected++
		}
	}
	s.Total = len(entries)
	return s
}
