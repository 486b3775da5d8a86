package cache

import "errors"

var (
	// ErrNotInitialized возвращается при обращении к кэшу до Init
	ErrNotInitialized = errors.New("cache: not initialized")

	// ErrStore возвращается при ошибке хранилища кэша
	ErrStore = errors.New("cache: store error")

	// ErrDecode возвращается, когда значение в кэше не удалось декодировать
	ErrDecode = errors.New("cache: failed to decode value")
)
