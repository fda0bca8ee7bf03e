package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/corebank-admin/maker-checker-bff/internal/domain/model"
)

// coreTime — время в форматах, которые отдаёт ядро:
// epoch-миллисекунды, строка (RFC 3339, "2006-01-02 15:04:05", "2006-01-02")
// или массив [год, месяц, день, час, минута, секунда].
type coreTime struct {
	time.Time
}

var coreTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *coreTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		for _, layout := range coreTimeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed.UTC()
				return nil
			}
		}
		return fmt.Errorf("неизвестный формат времени %q", s)

	case '[':
		var parts []int
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("время-массив: %w", err)
		}
		if len(parts) < 3 {
			return fmt.Errorf("время-массив: ожидалось минимум 3 элемента, получено %d", len(parts))
		}
		for len(parts) < 6 {
			parts = append(parts, 0)
		}
		t.Time = time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.UTC)
		return nil

	default:
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("время: ожидались миллисекунды: %w", err)
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
}

// wireEntry — запись maker-checker в формате ядра.
// Ядро разных версий называет идентификаторы по-разному, поэтому
// принимаются оба варианта.
type wireEntry struct {
	ID               int64     `json:"id"`
	AuditID          int64     `json:"auditId"`
	MakerID          int64     `json:"makerId"`
	MadeByID         int64     `json:"madeById"`
	Maker            string    `json:"maker"`
	CheckerID        *int64    `json:"checkerId"`
	CheckedByID      *int64    `json:"checkedById"`
	Checker          string    `json:"checker"`
	MadeOnDate       coreTime  `json:"madeOnDate"`
	CheckedOnDate    *coreTime `json:"checkedOnDate"`
	ProcessingResult string    `json:"processingResult"`
	ResourceID       int64     `json:"resourceId"`
	EntityName       string    `json:"entityName"`
	ActionName       string    `json:"actionName"`
	CommandAsJSON    string    `json:"commandAsJson"`
	OfficeName       string    `json:"officeName"`
	GroupName        string    `json:"groupName"`
	ClientName       string    `json:"clientName"`
	LoanAccountNo    string    `json:"loanAccountNo"`
	SavingsAccountNo string    `json:"savingsAccountNo"`
}

func (w *wireEntry) toModel() (model.Entry, error) {
	id := w.AuditID
	if id == 0 {
		id = w.ID
	}
	result, err := model.ParseProcessingResult(w.ProcessingResult)
	if err != nil {
		return model.Entry{}, fmt.Errorf("запись %d: %w", id, err)
	}
	makerID := w.MakerID
	if makerID == 0 {
		makerID = w.MadeByID
	}
	checkerID := w.CheckerID
	if checkerID == nil {
		checkerID = w.CheckedByID
	}

	e := model.Entry{
		AuditID:          id,
		MakerID:          makerID,
		Maker:            w.Maker,
		CheckerID:        checkerID,
		Checker:          w.Checker,
		MadeOnDate:       w.MadeOnDate.Time,
		ProcessingResult: result,
		ResourceID:       w.ResourceID,
		EntityName:       w.EntityName,
		ActionName:       w.ActionName,
		CommandAsJSON:    w.CommandAsJSON,
		OfficeName:       w.OfficeName,
		GroupName:        w.GroupName,
		ClientName:       w.ClientName,
		LoanAccountNo:    w.LoanAccountNo,
		SavingsAccountNo: w.SavingsAccountNo,
	}
	if w.CheckedOnDate != nil && !w.CheckedOnDate.IsZero() {
		t := w.CheckedOnDate.Time
		e.CheckedOnDate = &t
	}
	return e, nil
}

// wireUser — пользователь ядра (GET /users).
type wireUser struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	Email          string `json:"email"`
	OfficeName     string `json:"officeName"`
	IsSuperChecker bool   `json:"isSuperChecker"`
}

func (w *wireUser) toModel() model.SuperCheckerUser {
	return model.SuperCheckerUser{
		ID:             w.ID,
		Username:       w.Username,
		IsSuperChecker: w.IsSuperChecker,
		DisplayName:    strings.TrimSpace(w.Firstname + " " + w.Lastname),
		Email:          w.Email,
		OfficeName:     w.OfficeName,
	}
}

// wirePermission — разрешение в формате ядра.
type wirePermission struct {
	Grouping   string `json:"grouping"`
	Code       string `json:"code"`
	EntityName string `json:"entityName"`
	ActionName string `json:"actionName"`
	Selected   bool   `json:"selected"`
}

func (w *wirePermission) toModel() model.Permission {
	return model.Permission{
		Code:       w.Code,
		Grouping:   w.Grouping,
		EntityName: w.EntityName,
		ActionName: w.ActionName,
		Selected:   w.Selected,
	}
}

// wireSearchTemplate — ответ GET /makercheckers/searchtemplate.
type wireSearchTemplate struct {
	EntityNames []string `json:"entityNames"`
	ActionNames []string `json:"actionNames"`
}

// wireConfiguration — глобальная конфигурация ядра.
type wireConfiguration struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// wireCommandResult — ответ ядра на команду.
type wireCommandResult struct {
	ResourceID int64 `json:"resourceId"`
}
