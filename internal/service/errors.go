// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrInvalidRequest — некорректные входные данные, в ядро запрос не отправлялся.
	ErrInvalidRequest = errors.New("некорректный запрос")
	// ErrForbidden — действие запрещено правилами maker-checker.
	ErrForbidden = errors.New("доступ запрещён")
	// ErrNotFound — запись не найдена в ядре.
	ErrNotFound = errors.New("запись не найдена")
	// ErrInvalidStateTransition — запись не в состоянии Pending.
	ErrInvalidStateTransition = errors.New("недопустимый переход состояния")
	// ErrUpstreamUnavailable — ядро недоступно.
	ErrUpstreamUnavailable = errors.New("ядро недоступно")
)
