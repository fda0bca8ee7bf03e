package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
)

// ErrorKind — класс ошибки обращения к ядру.
type ErrorKind int

const (
	// KindUnavailable — ядро не ответило: сетевая ошибка, таймаут, открытый breaker.
	KindUnavailable ErrorKind = iota + 1
	// KindUpstream — ядро ответило ошибкой или непригодным телом.
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// ErrorDetail — элемент errors[] в ответе ядра.
type ErrorDetail struct {
	Code          string `json:"userMessageGlobalisationCode"`
	Message       string `json:"defaultUserMessage"`
	Developer     string `json:"developerMessage"`
	ParameterName string `json:"parameterName,omitempty"`
}

// Error — ошибка обращения к ядру.
type Error struct {
	// Op — логическая операция клиента (GetEntry, Resolve, ...).
	Op   string
	Kind ErrorKind
	// StatusCode — HTTP-статус ответа ядра, 0 если ответа не было.
	StatusCode int
	// Code — userMessageGlobalisationCode верхнего уровня.
	Code    string
	Message string
	Details []ErrorDetail
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("ядро: ")
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": статус %d", e.StatusCode)
	}
	if e.Code != "" {
		b.WriteString(": ")
		b.WriteString(e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound — ядро ответило 404.
func (e *Error) IsNotFound() bool {
	return e.Kind == KindUpstream && e.StatusCode == http.StatusNotFound
}

// IsClientError — ядро отклонило запрос как некорректный (4xx).
func (e *Error) IsClientError() bool {
	return e.Kind == KindUpstream && e.StatusCode >= 400 && e.StatusCode < 500
}

// BreakerOpen — запрос не отправлялся, breaker разомкнут.
func (e *Error) BreakerOpen() bool {
	return errors.Is(e.Err, gobreaker.ErrOpenState) || errors.Is(e.Err, gobreaker.ErrTooManyRequests)
}

// IsAlreadyProcessed — запись уже обработана другим чекером.
// Ядро отвечает 409 либо кодом вида "...not.pending..." / "...already...".
func (e *Error) IsAlreadyProcessed() bool {
	if e.Kind != KindUpstream {
		return false
	}
	if e.StatusCode == http.StatusConflict {
		return true
	}
	codes := make([]string, 0, len(e.Details)+1)
	codes = append(codes, e.Code)
	for _, d := range e.Details {
		codes = append(codes, d.Code)
	}
	for _, c := range codes {
		lc := strings.ToLower(c)
		if strings.Contains(lc, "not.pending") || strings.Contains(lc, "already") {
			return true
		}
	}
	return false
}

// AsError извлекает *Error из цепочки.
func AsError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// errorBody — тело ошибки ядра.
type errorBody struct {
	DeveloperMessage string        `json:"developerMessage"`
	UserMessage      string        `json:"defaultUserMessage"`
	Code             string        `json:"userMessageGlobalisationCode"`
	Errors           []ErrorDetail `json:"errors"`
}

// newStatusError разбирает тело ошибки ядра. Нераспознанное тело попадает в Message.
func newStatusError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, Kind: KindUpstream, StatusCode: status}

	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		e.Code = eb.Code
		e.Details = eb.Errors
		e.Message = eb.UserMessage
		if e.Message == "" {
			e.Message = eb.DeveloperMessage
		}
		if e.Message == "" && len(eb.Errors) > 0 {
			e.Message = eb.Errors[0].Message
			if e.Message == "" {
				e.Message = eb.Errors[0].Code
			}
		}
		if e.Message == "" {
			e.Message = e.Code
		}
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
		return e
	}

	const maxBody = 512
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBody {
		msg = msg[:maxBody]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	e.Message = msg
	return e
}
