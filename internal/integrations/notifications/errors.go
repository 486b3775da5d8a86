package notifications

import "errors"

var (
	// ErrEncode возвращается при ошибке сериализации события
	ErrEncode = errors.New("notifications: failed to encode event")

	// ErrPublish возвращается при ошибке публикации события
	ErrPublish = errors.New("notifications: failed to publish event")
)
