package slotconfig

import "errors"

var (
	// ErrConfigNotFound возвращается, когда конфигурация слотов услуги не найдена
	ErrConfigNotFound = errors.New("slotconfig.repository: config not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("slotconfig.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("slotconfig.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("slotconfig.repository: failed to scan row")
)
