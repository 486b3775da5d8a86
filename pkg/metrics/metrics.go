package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор prometheus-метрик сервиса
// Все методы безопасны для nil-получателя: при выключенных метриках сервисы получают nil
type Metrics struct {
	serviceName string

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec
	dbConnections   *prometheus.GaugeVec

	transitions         *prometheus.CounterVec
	reservationAttempts *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec

	sweepRuns     prometheus.Counter
	sweepExpired  *prometheus.CounterVec
	sweepErrors   prometheus.Counter
	sweepDuration prometheus.Histogram

	notificationFailures prometheus.Counter
}

// New создает метрики и регистрирует их в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики и регистрирует их в указанном реестре
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		serviceName: serviceName,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: labels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		dbConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_connections",
			Help:        "Database connection pool state",
			ConstLabels: labels,
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "status_transitions_total",
			Help:        "Committed status transitions",
			ConstLabels: labels,
		}, []string{"entity", "from", "to"}),
		reservationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservation_attempts_total",
			Help:        "Slot reservation attempts by result",
			ConstLabels: labels,
		}, []string{"result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "cache_lookups_total",
			Help:        "Cache lookups by backend and result",
			ConstLabels: labels,
		}, []string{"backend", "result"}),
		sweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "expiration_sweeps_total",
			Help:        "Expiration sweeps executed",
			ConstLabels: labels,
		}),
		sweepExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "expiration_expired_total",
			Help:        "Records expired by the sweep",
			ConstLabels: labels,
		}, []string{"entity"}),
		sweepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "expiration_errors_total",
			Help:        "Per-record sweep failures",
			ConstLabels: labels,
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "expiration_sweep_duration_seconds",
			Help:        "Expiration sweep duration",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		notificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "notification_failures_total",
			Help:        "Notification events that failed to dispatch",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration,
		m.dbQueryDuration, m.dbConnections,
		m.transitions, m.reservationAttempts, m.cacheLookups,
		m.sweepRuns, m.sweepExpired, m.sweepErrors, m.sweepDuration,
		m.notificationFailures,
	)

	return m
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDBConnections обновляет состояние пула соединений
func (m *Metrics) SetDBConnections(open, inUse, idle int) {
	if m == nil {
		return
	}
	m.dbConnections.WithLabelValues("open").Set(float64(open))
	m.dbConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.dbConnections.WithLabelValues("idle").Set(float64(idle))
}

func (m *Metrics) IncTransition(entity, from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(entity, from, to).Inc()
}

func (m *Metrics) IncReservationAttempt(result string) {
	if m == nil {
		return
	}
	m.reservationAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) IncCacheLookup(backend string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(backend, result).Inc()
}

// ObserveSweep фиксирует результат одного прохода планировщика истечения
func (m *Metrics) ObserveSweep(duration time.Duration, expiredReservations, expiredOrders, failed int) {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
	m.sweepDuration.Observe(duration.Seconds())
	m.sweepExpired.WithLabelValues("reservation").Add(float64(expiredReservations))
	m.sweepExpired.WithLabelValues("order").Add(float64(expiredOrders))
	m.sweepErrors.Add(float64(failed))
}

func (m *Metrics) IncNotificationFailure() {
	if m == nil {
		return
	}
	m.notificationFailures.Inc()
}
