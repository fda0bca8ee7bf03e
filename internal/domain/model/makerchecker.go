// Пакет model — доменные модели maker-checker BFF.
// makerchecker.go — записи maker-checker, разрешения, глобальный флаг,
// пользователи-супер-чекеры и производные отчёты.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ProcessingResult — состояние записи maker-checker.
type ProcessingResult string

const (
	// ResultPending — запись ожидает решения чекера.
	ResultPending ProcessingResult = "Pending"
	// ResultApproved — запись одобрена, команда применена ядром.
	ResultApproved ProcessingResult = "Approved"
	// ResultRejected — запись отклонена, команда отброшена.
	ResultRejected ProcessingResult = "Rejected"
)

// ParseProcessingResult разбирает состояние записи без учёта регистра.
// Помимо канонических значений принимает варианты, которые отдаёт ядро:
// "awaiting.approval", "Awaiting Approval", "processingResultType.processed" и т.п.
func ParseProcessingResult(s string) (ProcessingResult, error) {
	switch normalizeResult(s) {
	case "pending", "awaitingapproval":
		return ResultPending, nil
	case "approved", "processed", "checked":
		return ResultApproved, nil
	case "rejected":
		return ResultRejected, nil
	default:
		return "", fmt.Errorf("недопустимое состояние %q, допустимые: Pending, Approved, Rejected", s)
	}
}

// normalizeResult приводит метку состояния к виду "awaitingapproval":
// нижний регистр, без префикса processingResultType и разделителей.
func normalizeResult(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "processingresulttype.")
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '_', '-':
			return -1
		}
		return r
	}, s)
}

// Entry — захваченная, ещё не применённая команда (MakerCheckerEntry).
type Entry struct {
	// AuditID — уникальный идентификатор записи в ядре.
	AuditID int64 `json:"auditId"`
	// MakerID — пользователь, создавший запись.
	MakerID int64 `json:"makerId"`
	// Maker — имя пользователя-мейкера (если ядро его вернуло).
	Maker string `json:"maker,omitempty"`
	// CheckerID — пользователь, принявший решение. nil, пока запись Pending.
	CheckerID *int64 `json:"checkerId,omitempty"`
	// Checker — имя пользователя-чекера.
	Checker string `json:"checker,omitempty"`
	// MadeOnDate — время создания записи.
	MadeOnDate time.Time `json:"madeOnDate"`
	// CheckedOnDate — время принятия решения.
	CheckedOnDate *time.Time `json:"checkedOnDate,omitempty"`
	// ProcessingResult — текущее состояние.
	ProcessingResult ProcessingResult `json:"processingResult"`
	// ResourceID — идентификатор затронутого доменного объекта.
	ResourceID int64 `json:"resourceId,omitempty"`
	// EntityName — тип сущности (CLIENT, LOAN, ...).
	EntityName string `json:"entityName"`
	// ActionName — код операции (CREATE, APPROVE, ...).
	ActionName string `json:"actionName"`
	// CommandAsJSON — сериализованная исходная команда, только по запросу includeJson.
	CommandAsJSON string `json:"commandAsJson,omitempty"`

	OfficeName       string `json:"officeName,omitempty"`
	GroupName        string `json:"groupName,omitempty"`
	ClientName       string `json:"clientName,omitempty"`
	LoanAccountNo    string `json:"loanAccountNo,omitempty"`
	SavingsAccountNo string `json:"savingsAccountNo,omitempty"`
}

// IsPending возвращает true, если запись ещё ожидает решения.
func (e *Entry) IsPending() bool {
	return e.ProcessingResult == ResultPending
}

// EntryFilter — фильтры выборки записей, передаваемые ядру как есть.
type EntryFilter struct {
	ActionName        string
	EntityName        string
	ResourceID        *int64
	MakerID           *int64
	MakerDateTimeFrom string
	MakerDateTimeTo   string
	OfficeID          *int64
	GroupID           *int64
	ClientID          *int64
	LoanID            *int64
	SavingsAccountID  *int64
	// IncludeJSON — заполнять ли commandAsJson (по умолчанию нет, поле большое).
	IncludeJSON bool
}

// Permission — определение операции, которая может требовать одобрения.
type Permission struct {
	Code       string `json:"code"`
	Grouping   string `json:"grouping"`
	EntityName string `json:"entityName,omitempty"`
	ActionName string `json:"actionName,omitempty"`
	// Selected — требует ли операция одобрения чекера.
	Selected bool `json:"selected"`
	// Group — производная группа для отображения (Loans, Savings, ...), не хранится.
	Group string `json:"group,omitempty"`
}

// PermissionGroup — разрешения одной группы отображения.
type PermissionGroup struct {
	Name          string       `json:"name"`
	Permissions   []Permission `json:"permissions"`
	SelectedCount int          `json:"selectedCount"`
}

// GlobalConfig — платформенный флаг maker-checker (один на тенант).
type GlobalConfig struct {
	Enabled bool `json:"enabled"`
}

// GlobalConfiguration — запись глобальной конфигурации ядра.
type GlobalConfiguration struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// SuperCheckerUser — пользователь ядра с признаком супер-чекера.
type SuperCheckerUser struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	IsSuperChecker bool   `json:"isSuperChecker"`
	DisplayName    string `json:"displayName,omitempty"`
	Email          string `json:"email,omitempty"`
	OfficeName     string `json:"officeName,omitempty"`
}

// SearchTemplate — справочник сущностей и действий, доступных для проверки.
type SearchTemplate struct {
	EntityNames []string `json:"entityNames"`
	ActionNames []string `json:"actionNames"`
}

// Summary — агрегат записей по состояниям.
type Summary struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// Impact — производный отчёт о масштабе maker-checker. Не хранится.
type Impact struct {
	TotalPermissions   int `json:"totalPermissions"`
	EnabledPermissions int `json:"enabledPermissions"`
	TotalUsers         int `json:"totalUsers"`
	SuperCheckerUsers  int `json:"superCheckerUsers"`
	PendingApprovals   int `json:"pendingApprovals"`
}

// GateDecision — решение о том, требует ли операция одобрения.
type GateDecision struct {
	Code               string `json:"code"`
	GlobalEnabled      bool   `json:"globalEnabled"`
	PermissionSelected bool   `json:"permissionSelected"`
	RequiresApproval   bool   `json:"requiresApproval"`
}
