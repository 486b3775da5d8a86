package waitlist

import "errors"

var (
	// ErrEntryNotFound возвращается, когда записи в листе ожидания нет
	ErrEntryNotFound = errors.New("waitlist.repository: entry not found")

	// ErrAlreadyWaitlisted возвращается при повторной записи клиента на тот же слот
	ErrAlreadyWaitlisted = errors.New("waitlist.repository: customer already waitlisted for slot")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("waitlist.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("waitlist.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("waitlist.repository: failed to scan row")
)
