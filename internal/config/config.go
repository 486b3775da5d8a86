package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Бэкенды кэша и блокировок слотов
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	LockBackendLocal     = "local"
	LockBackendRedis     = "redis"
	LockBackendZookeeper = "zookeeper"
)

var (
	// ErrInvalidConfig возвращается, когда конфигурация не проходит валидацию
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config конфигурация сервиса
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Logs         LogsConfig         `toml:"logs"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Cache        CacheConfig        `toml:"cache"`
	Redis        RedisConfig        `toml:"redis"`
	Lock         LockConfig         `toml:"lock"`
	Zookeeper    ZookeeperConfig    `toml:"zookeeper"`
	Kafka        KafkaConfig        `toml:"kafka"`
	Reservations ReservationsConfig `toml:"reservations"`
	Orders       OrdersConfig       `toml:"orders"`
	Expiration   ExpirationConfig   `toml:"expiration"`
	Proximity    ProximityConfig    `toml:"proximity"`
	Occupancy    OccupancyConfig    `toml:"occupancy"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type CacheConfig struct {
	Backend         string `toml:"backend"`          // memory | redis
	DefaultTTL      int    `toml:"default_ttl"`      // секунды
	JanitorInterval int    `toml:"janitor_interval"` // секунды, 0 - без фоновой очистки
	KeyPrefix       string `toml:"key_prefix"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type LockConfig struct {
	Backend string `toml:"backend"`  // local | redis | zookeeper
	WaitMs  int    `toml:"wait_ms"`  // ограничение ожидания блокировки слота
	TTLMs   int    `toml:"ttl_ms"`   // время жизни распределенной блокировки
	RetryMs int    `toml:"retry_ms"` // пауза между попытками захвата
}

type ZookeeperConfig struct {
	Servers        []string `toml:"servers"`
	SessionTimeout int      `toml:"session_timeout"` // секунды
	BasePath       string   `toml:"base_path"`
}

type KafkaConfig struct {
	Enabled          bool     `toml:"enabled"`
	Brokers          []string `toml:"brokers"`
	Topic            string   `toml:"topic"`
	PublishTimeoutMs int      `toml:"publish_timeout_ms"` // предел ожидания брокера на одно событие
}

type ReservationsConfig struct {
	PendingTTL         int `toml:"pending_ttl"`          // секунды
	AwaitingPaymentTTL int `toml:"awaiting_payment_ttl"` // секунды
}

type OrdersConfig struct {
	PendingTTL int `toml:"pending_ttl"` // секунды, действует и для awaiting_customer_agreement
}

type ExpirationConfig struct {
	Enabled   bool `toml:"enabled"`
	Interval  int  `toml:"interval"` // секунды
	BatchSize int  `toml:"batch_size"`
}

type ProximityConfig struct {
	ThresholdKm float64 `toml:"threshold_km"`
}

// OccupancyConfig окно, из которого строятся метки слотов, если клиент их не передал
type OccupancyConfig struct {
	DayStart string `toml:"day_start"` // HH:MM
	DayEnd   string `toml:"day_end"`   // HH:MM
}

// Load читает конфигурацию из TOML файла, применяет значения по умолчанию и переменные окружения
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			File:  "logs/booking-engine.log",
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "booking_engine",
		},
		Cache: CacheConfig{
			Backend:         CacheBackendMemory,
			DefaultTTL:      60,
			JanitorInterval: 60,
			KeyPrefix:       "booking-engine:",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Lock: LockConfig{
			Backend: LockBackendLocal,
			WaitMs:  2000,
			TTLMs:   10000,
			RetryMs: 50,
		},
		Zookeeper: ZookeeperConfig{
			SessionTimeout: 10,
			BasePath:       "/booking-engine/slots",
		},
		Kafka: KafkaConfig{
			Topic:            "booking-transitions",
			PublishTimeoutMs: 500,
		},
		Reservations: ReservationsConfig{
			PendingTTL:         1800,
			AwaitingPaymentTTL: 86400,
		},
		Orders: OrdersConfig{
			PendingTTL: 7200,
		},
		Expiration: ExpirationConfig{
			Enabled:   true,
			Interval:  30,
			BatchSize: 100,
		},
		Proximity: ProximityConfig{
			ThresholdKm: 5,
		},
		Occupancy: OccupancyConfig{
			DayStart: "08:00",
			DayEnd:   "20:00",
		},
	}
}

// applyEnv переопределяет значения из переменных окружения
func applyEnv(cfg *Config) {
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("LOCK_BACKEND"); v != "" {
		cfg.Lock.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = port
		}
	}
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}

	switch c.Lock.Backend {
	case LockBackendLocal, LockBackendRedis:
	case LockBackendZookeeper:
		if len(c.Zookeeper.Servers) == 0 {
			return fmt.Errorf("%w: zookeeper lock requires zookeeper.servers", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown lock backend %q", ErrInvalidConfig, c.Lock.Backend)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka enabled without brokers", ErrInvalidConfig)
	}

	positive := map[string]int{
		"server.http_port":                  c.Server.HTTPPort,
		"cache.default_ttl":                 c.Cache.DefaultTTL,
		"lock.wait_ms":                      c.Lock.WaitMs,
		"lock.ttl_ms":                       c.Lock.TTLMs,
		"lock.retry_ms":                     c.Lock.RetryMs,
		"reservations.pending_ttl":          c.Reservations.PendingTTL,
		"reservations.awaiting_payment_ttl": c.Reservations.AwaitingPaymentTTL,
		"orders.pending_ttl":                c.Orders.PendingTTL,
		"expiration.interval":               c.Expiration.Interval,
		"expiration.batch_size":             c.Expiration.BatchSize,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, name, value)
		}
	}

	if c.Proximity.ThresholdKm <= 0 {
		return fmt.Errorf("%w: proximity.threshold_km must be positive", ErrInvalidConfig)
	}

	start, errStart := time.Parse(timeOfDayLayout, c.Occupancy.DayStart)
	end, errEnd := time.Parse(timeOfDayLayout, c.Occupancy.DayEnd)
	if errStart != nil || errEnd != nil || !start.Before(end) {
		return fmt.Errorf("%w: occupancy window %q-%q", ErrInvalidConfig, c.Occupancy.DayStart, c.Occupancy.DayEnd)
	}

	return nil
}

const timeOfDayLayout = "15:04"

func seconds(v int) time.Duration {
	return time.Duration(v) * time.Second
}

func (c ReservationsConfig) PendingGrace() time.Duration { return seconds(c.PendingTTL) }
func (c ReservationsConfig) AwaitingPaymentGrace() time.Duration { return seconds(c.AwaitingPaymentTTL) }
func (c OrdersConfig) PendingGrace() time.Duration { return seconds(c.PendingTTL) }
func (c ExpirationConfig) TickInterval() time.Duration { return seconds(c.Interval) }
func (c CacheConfig) TTL() time.Duration { return seconds(c.DefaultTTL) }
func (c LockConfig) Wait() time.Duration { return time.Duration(c.WaitMs) * time.Millisecond }
func (c LockConfig) TTL() time.Duration { return time.Duration(c.TTLMs) * time.Millisecond }
func (c LockConfig) Retry() time.Duration { return time.Duration(c.RetryMs) * time.Millisecond }
func (c KafkaConfig) PublishTimeout() time.Duration { return time.Duration(c.PublishTimeoutMs) * time.Millisecond }
