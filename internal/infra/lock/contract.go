package lock

import "context"

// Release освобождает захваченную блокировку
type Release func(ctx context.Context) error

// Locker эксклюзивная блокировка по ключу с ограниченным ожиданием.
// По истечении ожидания Acquire возвращает ErrTimeout, а не блокируется бесконечно
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}
