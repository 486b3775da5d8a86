package lock

import "errors"

var (
	// ErrTimeout возвращается, когда блокировку не удалось получить за отведенное время
	ErrTimeout = errors.New("lock: acquire timeout")

	// ErrBackend возвращается при ошибке распределенного бэкенда блокировок
	ErrBackend = errors.New("lock: backend error")
)
