package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	agreeFinalBillHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/agree_final_bill"
	approvePayLaterHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/approve_pay_later"
	choosePaymentMethodHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/choose_payment_method"
	confirmPaymentHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/confirm_payment"
	createOrderHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/create_order"
	createReservationHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/create_reservation"
	flushCacheHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/flush_cache"
	getOrderHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_order"
	getReservationHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_reservation"
	getSlotConfigHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_slot_config"
	getSlotOccupancyHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_slot_occupancy"
	getTimelineHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_timeline"
	getWaitlistPositionHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_waitlist_position"
	joinWaitlistHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/join_waitlist"
	submitPaymentReferenceHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/submit_payment_reference"
	updateOrderStatusHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/update_order_status"
	updateReservationStatusHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/update_reservation_status"
	updateSlotConfigHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/update_slot_config"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/config"
	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/lock"
	historyRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/history"
	orderRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/order"
	reservationRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/reservation"
	shopRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/shop"
	slotConfigRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/slotconfig"
	waitlistRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/notifications"
	"github.com/m04kA/SMC-BookingEngine/internal/service/events"
	"github.com/m04kA/SMC-BookingEngine/internal/service/expiration"
	"github.com/m04kA/SMC-BookingEngine/internal/service/payments"
	"github.com/m04kA/SMC-BookingEngine/internal/service/proximity"
	slotConfigService "github.com/m04kA/SMC-BookingEngine/internal/service/slotconfig"
	"github.com/m04kA/SMC-BookingEngine/internal/service/slots"
	"github.com/m04kA/SMC-BookingEngine/internal/service/transitions"
	createOrderUC "github.com/m04kA/SMC-BookingEngine/internal/usecase/create_order"
	createReservationUC "github.com/m04kA/SMC-BookingEngine/internal/usecase/create_reservation"
	getSlotOccupancyUC "github.com/m04kA/SMC-BookingEngine/internal/usecase/get_slot_occupancy"
	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/logger"
	"github.com/m04kA/SMC-BookingEngine/pkg/metrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/txmanager"
)

const poolStatsInterval = 15 * time.Second

// eventDispatcher получатель событий, который нужно закрыть при остановке
type eventDispatcher interface {
	events.Dispatcher
	Close() error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-BookingEngine...")
	log.Info("Configuration loaded from config.toml (cache=%s, lock=%s, kafka=%t)",
		cfg.Cache.Backend, cfg.Lock.Backend, cfg.Kafka.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Метрики (если включены). *metrics.Metrics безопасен при nil
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer sqlDB.Close()

	// Настраиваем connection pool
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	db := dbmetrics.Wrap(sqlDB, recorderOrNil(metricsCollector))
	stopPoolStats := make(chan struct{})
	defer close(stopPoolStats)
	go db.CollectPoolStats(poolStatsInterval, stopPoolStats)

	txManager := txmanager.NewTransactionManager(db)

	// Репозитории ledger
	reservations := reservationRepo.NewRepository(db)
	orders := orderRepo.NewRepository(db)
	waitlist := waitlistRepo.NewRepository(db)
	history := historyRepo.NewRepository(db)
	slotConfigs := slotConfigRepo.NewRepository(db)
	shops := shopRepo.NewRepository(db)

	// Кэш производных чтений
	cacheSvc := cache.NewService(cache.Options{
		Backend:         cfg.Cache.Backend,
		DefaultTTL:      cfg.Cache.TTL(),
		JanitorInterval: time.Duration(cfg.Cache.JanitorInterval) * time.Second,
		KeyPrefix:       cfg.Cache.KeyPrefix,
		Redis:           redisOptions(cfg.Redis),
	}, log, metricsCollector)
	if err := cacheSvc.Init(ctx); err != nil {
		log.Fatal("Failed to initialize cache: %v", err)
	}
	defer func() {
		if err := cacheSvc.Reset(); err != nil {
			log.Warn("Failed to close cache: %v", err)
		}
	}()

	// Блокировки слотов
	locker, closeLocker, err := newLocker(cfg)
	if err != nil {
		log.Fatal("Failed to initialize %s lock: %v", cfg.Lock.Backend, err)
	}
	defer closeLocker()
	log.Info("Slot lock backend: %s (wait=%s)", cfg.Lock.Backend, cfg.Lock.Wait())

	// Получатель событий переходов
	dispatcher := newDispatcher(cfg, log)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.Warn("Failed to close event dispatcher: %v", err)
		}
	}()
	publisher := events.NewPublisher(dispatcher, log, metricsCollector)

	// Сервисы ядра
	guard := slots.NewGuard(
		reservations,
		waitlist,
		slotConfigs,
		history,
		locker,
		cacheSvc,
		publisher,
		txManager,
		metricsCollector,
		log,
		cfg.Reservations.PendingGrace(),
		cfg.Cache.TTL(),
	)
	advisor := proximity.NewAdvisor(reservations, cacheSvc, log, cfg.Proximity.ThresholdKm, cfg.Cache.TTL())
	engine := transitions.NewEngine(
		reservations,
		orders,
		history,
		shops,
		guard,
		cacheSvc,
		publisher,
		txManager,
		metricsCollector,
		log,
		transitions.Config{
			AwaitingPaymentTTL: cfg.Reservations.AwaitingPaymentGrace(),
			OrderPendingTTL:    cfg.Orders.PendingGrace(),
		},
	).WithAdvisor(advisor)
	paymentSvc := payments.NewService(orders, shops, history, publisher, txManager, metricsCollector, log)
	slotConfigSvc := slotConfigService.NewService(slotConfigs, cacheSvc, log)

	window, err := getSlotOccupancyUC.ParseWindow(cfg.Occupancy.DayStart, cfg.Occupancy.DayEnd)
	if err != nil {
		log.Fatal("Invalid occupancy window: %v", err)
	}

	// Инициализируем use cases
	createReservationUseCase := createReservationUC.NewUseCase(guard, log)
	createOrderUseCase := createOrderUC.NewUseCase(orders, shops, history, publisher, txManager, log, cfg.Orders.PendingGrace())
	getSlotOccupancyUseCase := getSlotOccupancyUC.NewUseCase(guard, slotConfigs, window, log)

	// Инициализируем handlers
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	getReservation := getReservationHandler.NewHandler(engine, log)
	updateReservationStatus := updateReservationStatusHandler.NewHandler(engine, log)
	reservationTimeline := getTimelineHandler.NewHandler(engine, domain.EntityReservation, "reservationId", log)
	joinWaitlist := joinWaitlistHandler.NewHandler(guard, log)
	getWaitlistPosition := getWaitlistPositionHandler.NewHandler(guard, log)
	getSlotOccupancy := getSlotOccupancyHandler.NewHandler(getSlotOccupancyUseCase, log)
	getSlotConfig := getSlotConfigHandler.NewHandler(slotConfigSvc, log)
	updateSlotConfig := updateSlotConfigHandler.NewHandler(slotConfigSvc, log)

	createOrder := createOrderHandler.NewHandler(createOrderUseCase, log)
	getOrder := getOrderHandler.NewHandler(engine, log)
	updateOrderStatus := updateOrderStatusHandler.NewHandler(engine, log)
	agreeFinalBill := agreeFinalBillHandler.NewHandler(engine, log)
	orderTimeline := getTimelineHandler.NewHandler(engine, domain.EntityOrder, "orderId", log)
	choosePaymentMethod := choosePaymentMethodHandler.NewHandler(paymentSvc, log)
	submitPaymentReference := submitPaymentReferenceHandler.NewHandler(paymentSvc, log)
	confirmPayment := confirmPaymentHandler.NewHandler(paymentSvc, log)
	approvePayLater := approvePayLaterHandler.NewHandler(paymentSvc, log)

	flushCache := flushCacheHandler.NewHandler(cacheSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Занятость слотов услуги на дату
	api.HandleFunc("/services/{serviceId}/occupancy", getSlotOccupancy.Handle).Methods(http.MethodGet)

	// Конфигурация слотов услуги
	api.HandleFunc("/services/{serviceId}/slot-config", getSlotConfig.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID и X-User-Role)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{reservationId}", getReservation.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/reservations/{reservationId}/status", updateReservationStatus.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/reservations/{reservationId}/timeline", reservationTimeline.Handle).Methods(http.MethodGet)

	// --- Лист ожидания ---
	protected.HandleFunc("/waitlist", joinWaitlist.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/waitlist/position", getWaitlistPosition.Handle).Methods(http.MethodGet)

	// --- Управление услугой (исполнитель) ---
	protected.HandleFunc("/services/{serviceId}/slot-config", updateSlotConfig.Handle).Methods(http.MethodPut)

	// --- Заказы ---
	protected.HandleFunc("/orders", createOrder.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/orders/{orderId}", getOrder.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/orders/{orderId}/status", updateOrderStatus.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/orders/{orderId}/agree-final-bill", agreeFinalBill.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/orders/{orderId}/timeline", orderTimeline.Handle).Methods(http.MethodGet)

	// --- Оплата заказа ---
	protected.HandleFunc("/orders/{orderId}/payment-method", choosePaymentMethod.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/orders/{orderId}/payment-reference", submitPaymentReference.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/orders/{orderId}/payment/confirm", confirmPayment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/orders/{orderId}/payment/approve-pay-later", approvePayLater.Handle).Methods(http.MethodPost)

	// --- Администрирование ---
	protected.HandleFunc("/admin/cache/flush", flushCache.Handle).Methods(http.MethodPost)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Планировщик истечения сроков
	if cfg.Expiration.Enabled {
		scheduler := expiration.NewScheduler(
			reservations,
			orders,
			engine,
			metricsCollector,
			log,
			cfg.Expiration.TickInterval(),
			cfg.Expiration.BatchSize,
		)
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	} else {
		log.Warn("Expiration scheduler disabled: overdue records stay until swept manually")
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
		)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error: %v", err)
		return
	}

	log.Info("Server stopped gracefully")
}

// recorderOrNil не передает в dbmetrics типизированный nil
func recorderOrNil(m *metrics.Metrics) dbmetrics.Recorder {
	if m == nil {
		return nil
	}
	return m
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// newLocker выбирает реализацию блокировки слотов по конфигурации
func newLocker(cfg *config.Config) (slots.Locker, func(), error) {
	switch cfg.Lock.Backend {
	case config.LockBackendRedis:
		client := redis.NewClient(redisOptions(cfg.Redis))
		locker := lock.NewRedis(client, cfg.Cache.KeyPrefix, cfg.Lock.Wait(), cfg.Lock.TTL(), cfg.Lock.Retry())
		return locker, func() { _ = client.Close() }, nil

	case config.LockBackendZookeeper:
		conn, _, err := zk.Connect(cfg.Zookeeper.Servers, time.Duration(cfg.Zookeeper.SessionTimeout)*time.Second)
		if err != nil {
			return nil, nil, err
		}
		return lock.NewZooKeeper(conn, cfg.Zookeeper.BasePath, cfg.Lock.Wait()), conn.Close, nil

	default:
		return lock.NewLocal(cfg.Lock.Wait()), func() {}, nil
	}
}

func newDispatcher(cfg *config.Config, log *logger.Logger) eventDispatcher {
	if cfg.Kafka.Enabled {
		log.Info("Transition events are published to kafka topic %s (brokers=%v)", cfg.Kafka.Topic, cfg.Kafka.Brokers)
		timeout := cfg.Kafka.PublishTimeout()
		return notifications.NewKafkaDispatcher(notifications.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, timeout), timeout)
	}
	log.Info("Kafka disabled: transition events are written to the log")
	return notifications.NewLogDispatcher(log)
}
