package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript удаляет ключ, только если им все еще владеет наш токен
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis распределенная блокировка: SET NX PX с уникальным токеном владельца.
// TTL страхует от вечной блокировки при падении владельца
type Redis struct {
	client *redis.Client
	prefix string
	wait   time.Duration
	ttl    time.Duration
	retry  time.Duration
}

func NewRedis(client *redis.Client, prefix string, wait, ttl, retry time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, wait: wait, ttl: ttl, retry: retry}
}

func (r *Redis) Acquire(ctx context.Context, key string) (Release, error) {
	lockKey := r.prefix + "lock:" + key
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	for {
		ok, err := r.client.SetNX(ctx, lockKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: setnx %s: %v", ErrBackend, lockKey, err)
		}
		if ok {
			return func(ctx context.Context) error {
				if err := releaseScript.Run(ctx, r.client, []string{lockKey}, token).Err(); err != nil {
					return fmt.Errorf("%w: release %s: %v", ErrBackend, lockKey, err)
				}
				return nil
			}, nil
		}

		if time.Now().Add(r.retry).After(deadline) {
			return nil, fmt.Errorf("%w: key=%s after %s", ErrTimeout, key, r.wait)
		}

		select {
		case <-time.After(r.retry):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
