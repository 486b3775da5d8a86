package slotconfig

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных параметрах конфигурации
	ErrInvalidInput = errors.New("invalid slot config")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("slotconfig.service: internal error")
)
