package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Имена бэкендов
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options параметры кэша
type Options struct {
	Backend         string
	DefaultTTL      time.Duration
	JanitorInterval time.Duration
	KeyPrefix       string
	Redis           *redis.Options
}

// Service кэш производных чтений (занятость слотов, расписания исполнителей).
// Источник истины всегда ledger: промах стоит только лишнего запроса в БД.
// Жизненный цикл Init/Reset/Flush позволяет изолировать экземпляры в тестах
type Service struct {
	opts    Options
	logger  Logger
	metrics MetricsRecorder

	mu      sync.RWMutex
	store   Store
	backend string
}

// NewService создает кэш. До вызова Init все чтения считаются промахами
func NewService(opts Options, logger Logger, metrics MetricsRecorder) *Service {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Minute
	}
	return &Service{opts: opts, logger: logger, metrics: metrics}
}

// NewWithStore создает уже инициализированный кэш поверх готового хранилища
func NewWithStore(store Store, backend string, defaultTTL time.Duration, logger Logger, metrics MetricsRecorder) *Service {
	s := NewService(Options{Backend: backend, DefaultTTL: defaultTTL}, logger, metrics)
	s.store = store
	s.backend = backend
	return s
}

// Init выбирает хранилище: redis, если он настроен и отвечает, иначе in-memory
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		return nil
	}

	if s.opts.Backend == BackendRedis && s.opts.Redis != nil {
		client := redis.NewClient(s.opts.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			s.logger.Warn("Cache.Init: redis %s unreachable, falling back to memory: %v", s.opts.Redis.Addr, err)
			_ = client.Close()
		} else {
			s.store = NewRedisStore(client, s.opts.KeyPrefix)
			s.backend = BackendRedis
			s.logger.Info("Cache.Init: using redis backend at %s", s.opts.Redis.Addr)
			return nil
		}
	}

	s.store = NewMemoryStore(s.opts.JanitorInterval)
	s.backend = BackendMemory
	s.logger.Info("Cache.Init: using in-memory backend")
	return nil
}

// Reset закрывает текущее хранилище. Следующий Init создаст новое
func (s *Service) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	s.backend = ""
	return err
}

// Backend имя активного хранилища
func (s *Service) Backend() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

func (s *Service) current() (Store, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store, s.backend
}

// Get возвращает значение и признак попадания.
// Ошибки хранилища логируются и считаются промахом
func (s *Service) Get(ctx context.Context, key string) ([]byte, bool) {
	store, backend := s.current()
	if store == nil {
		return nil, false
	}

	val, ok, err := store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache.Get: key=%s: %v", key, err)
		ok = false
	}
	if s.metrics != nil {
		s.metrics.IncCacheLookup(backend, ok)
	}
	return val, ok
}

// Set сохраняет значение. ttl <= 0 означает TTL по умолчанию
func (s *Service) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	store, _ := s.current()
	if store == nil {
		return ErrNotInitialized
	}
	if ttl <= 0 {
		ttl = s.opts.DefaultTTL
	}
	return store.Set(ctx, key, value, ttl)
}

// Invalidate удаляет ключ или все ключи по шаблону (если содержит '*')
func (s *Service) Invalidate(ctx context.Context, keyOrPattern string) error {
	store, _ := s.current()
	if store == nil {
		return nil
	}
	if strings.Contains(keyOrPattern, "*") {
		return store.DeletePattern(ctx, keyOrPattern)
	}
	return store.Delete(ctx, keyOrPattern)
}

// Flush очищает кэш целиком
func (s *Service) Flush(ctx context.Context) error {
	store, _ := s.current()
	if store == nil {
		return nil
	}
	return store.Flush(ctx)
}

// GetJSON читает значение и декодирует его в dest
func (s *Service) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("Cache.GetJSON: key=%s: %v", key, fmt.Errorf("%w: %v", ErrDecode, err))
		_ = s.Invalidate(ctx, key)
		return false
	}
	return true
}

// SetJSON кодирует value в JSON и сохраняет
func (s *Service) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}
