// Пакет errors — конструкторы стандартных ошибок maker-checker BFF.
// Единый формат: {"error": {"code": "...", "message": "...", "httpStatus": N}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок, определённые в OpenAPI контракте.
const (
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeUpstreamUnavailable    = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamError          = "UPSTREAM_ERROR"
	CodeInternalError          = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"httpStatus"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:       code,
			Message:    message,
			HTTPStatus: statusCode,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// InvalidRequest — 400 некорректные входные данные.
func InvalidRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeInvalidRequest, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// InvalidStateTransition — 409 запись не в состоянии Pending.
func InvalidStateTransition(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeInvalidStateTransition, message)
}

// UpstreamUnavailable — ядро недоступно. 500, либо 503 при разомкнутом breaker.
func UpstreamUnavailable(w http.ResponseWriter, statusCode int, message string) {
	WriteError(w, statusCode, CodeUpstreamUnavailable, message)
}

// UpstreamError — ядро ответило ошибкой, статус ядра передаётся как есть.
func UpstreamError(w http.ResponseWriter, statusCode int, message string) {
	WriteError(w, statusCode, CodeUpstreamError, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
