package flush_cache

import "context"

type Cache interface {
	Flush(ctx context.Context) error
	Backend() string
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
