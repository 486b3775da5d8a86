package cache

import (
	"context"
	"time"
)

// Store хранилище кэша. Реализации: in-memory и redis
type Store interface {
	// Get возвращает значение и признак попадания. Истекшая запись считается промахом
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern удаляет ключи по glob-шаблону ('*' - любая подстрока)
	DeletePattern(ctx context.Context, pattern string) error
	Flush(ctx context.Context) error
	Close() error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// MetricsRecorder учет попаданий в кэш
type MetricsRecorder interface {
	IncCacheLookup(backend string, hit bool)
}
