// Пакет approval — конечный автомат записей maker-checker.
//
// Состояния:
//   - Pending → Approved | Rejected (терминальные) — по команде чекера
//   - Pending → Deleted — административное удаление, вне основного автомата
//
// Автомат не хранит состояние: текущее состояние всегда читается из ядра,
// здесь только правила переходов и авторизации.
package approval

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// Command — команда чекера.
type Command string

const (
	// CommandApprove — одобрить запись.
	CommandApprove Command = "approve"
	// CommandReject — отклонить запись.
	CommandReject Command = "reject"
)

// Коды ошибок автомата.
const (
	CodeInvalidCommand    = "INVALID_COMMAND"
	CodeInvalidTransition = "INVALID_STATE_TRANSITION"
	CodeSelfApproval      = "SELF_APPROVAL"
	CodeOutOfScope        = "OUT_OF_SCOPE"
	CodeUnknownActor      = "UNKNOWN_ACTOR"
)

// transitions — матрица допустимых переходов.
// Терминальные состояния не допускают ни одной команды.
var transitions = map[model.ProcessingResult]map[Command]model.ProcessingResult{
	model.ResultPending: {
		CommandApprove: model.ResultApproved,
		CommandReject:  model.ResultRejected,
	},
	model.ResultApproved: {},
	model.ResultRejected: {},
}

// ParseCommand преобразует строку в Command (без учёта регистра).
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CommandApprove, CommandReject:
		return c, nil
	default:
		return "", &TransitionError{
			Code:    CodeInvalidCommand,
			Message: fmt.Sprintf("недопустимая команда %q, допустимые: approve, reject", s),
		}
	}
}

// Next возвращает состояние, в которое переходит запись по команде.
func Next(from model.ProcessingResult, cmd Command) (model.ProcessingResult, error) {
	allowed, ok := transitions[from]
	if !ok {
		return "", &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("неизвестное состояние %q", from),
		}
	}
	to, ok := allowed[cmd]
	if !ok {
		return "", &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("команда %s недопустима для записи в состоянии %s", cmd, from),
		}
	}
	return to, nil
}

// CanDelete проверяет, что запись можно удалить (только из Pending).
func CanDelete(from model.ProcessingResult) error {
	if from != model.ResultPending {
		return &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("удаление недопустимо для записи в состоянии %s", from),
		}
	}
	return nil
}

// Authorize проверяет область видимости: супер-чекер видит всё,
// остальные — только сущности из checkableEntities.
func Authorize(actor *model.SuperCheckerUser, entry *model.Entry, checkableEntities []string) error {
	if actor == nil {
		return &AuthorizationError{
			Code:    CodeUnknownActor,
			Message: "текущий пользователь не найден в ядре",
		}
	}
	if actor.IsSuperChecker {
		return nil
	}
	if !slices.Contains(checkableEntities, entry.EntityName) {
		return &AuthorizationError{
			Code:    CodeOutOfScope,
			Message: fmt.Sprintf("сущность %s вне области проверки пользователя %s", entry.EntityName, actor.Username),
		}
	}
	return nil
}

// AuthorizeResolve — Authorize плюс запрет на решение по собственной записи.
func AuthorizeResolve(actor *model.SuperCheckerUser, entry *model.Entry, checkableEntities []string) error {
	if err := Authorize(actor, entry, checkableEntities); err != nil {
		return err
	}
	if actor.ID == entry.MakerID {
		return &AuthorizationError{
			Code:    CodeSelfApproval,
			Message: "пользователь не может принимать решение по собственной записи",
		}
	}
	return nil
}

// Apply возвращает копию записи после команды checkerID.
// Оригинал не изменяется.
func Apply(entry model.Entry, cmd Command, checkerID int64) (model.Entry, error) {
	to, err := Next(entry.ProcessingResult, cmd)
	if err != nil {
		return model.Entry{}, err
	}
	if checkerID == entry.MakerID {
		return model.Entry{}, &AuthorizationError{
			Code:    CodeSelfApproval,
			Message: "пользователь не может принимать решение по собственной записи",
		}
	}
	id := checkerID
	entry.ProcessingResult = to
	entry.CheckerID = &id
	return entry, nil
}

// CheckInvariants проверяет инварианты записи:
// checkerId задан тогда и только тогда, когда запись не Pending,
// и checkerId никогда не совпадает с makerId.
func CheckInvariants(e *model.Entry) error {
	if e.IsPending() && e.CheckerID != nil {
		return fmt.Errorf("запись %d: checkerId задан у записи в состоянии Pending", e.AuditID)
	}
	if !e.IsPending() && e.CheckerID == nil {
		return fmt.Errorf("запись %d: checkerId не задан у записи в состоянии %s", e.AuditID, e.ProcessingResult)
	}
	if e.CheckerID != nil && *e.CheckerID == e.MakerID {
		return fmt.Errorf("запись %d: checkerId совпадает с makerId", e.AuditID)
	}
	return nil
}

// TransitionError — ошибка перехода между состояниями.
type TransitionError struct {
	Code    string // Машиночитаемый код (INVALID_COMMAND, INVALID_STATE_TRANSITION)
	Message string // Человекочитаемое описание
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AuthorizationError — нарушение правил авторизации чекера.
type AuthorizationError struct {
	Code    string // SELF_APPROVAL, OUT_OF_SCOPE, UNKNOWN_ACTOR
	Message string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
