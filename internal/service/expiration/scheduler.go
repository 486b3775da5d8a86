package expiration

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// SweepReport итог одного прохода
type SweepReport struct {
	ExpiredReservations int
	ExpiredOrders       int
	// Skipped записи, которые успели уйти из истекающего статуса до отмены
	Skipped  int
	Failed   int
	Duration time.Duration
}

// Scheduler периодически отменяет бронирования и заказы с истекшим сроком.
// Ошибка на одной записи не прерывает проход по остальным
type Scheduler struct {
	reservations ReservationSource
	orders       OrderSource
	expirer      Expirer
	metrics      Metrics
	logger       Logger

	interval  time.Duration
	batchSize int
	now       func() time.Time

	sweepMu  sync.Mutex
	running  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler создает планировщик истечения сроков
func NewScheduler(
	reservations ReservationSource,
	orders OrderSource,
	expirer Expirer,
	metrics Metrics,
	logger Logger,
	interval time.Duration,
	batchSize int,
) *Scheduler {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Scheduler{
		reservations: reservations,
		orders:       orders,
		expirer:      expirer,
		metrics:      metrics,
		logger:       logger,
		interval:     interval,
		batchSize:    batchSize,
		now:          time.Now,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// WithClock подменяет источник времени
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run выполняет проходы по таймеру до отмены ctx или вызова Stop.
// Начатый проход всегда доводится до конца
func (s *Scheduler) Run(ctx context.Context) error {
	s.running.Store(true)
	defer close(s.done)

	s.logger.Info("Scheduler: started, interval=%s batch=%d", s.interval, s.batchSize)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler: stopped by context")
			return nil
		case <-s.stop:
			s.logger.Info("Scheduler: stopped")
			return nil
		case <-ticker.C:
			s.Tick(context.WithoutCancel(ctx))
		}
	}
}

// Stop останавливает Run и ждет завершения текущего прохода
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.running.Load() {
		<-s.done
	}
}

// Tick один проход на текущий момент времени
func (s *Scheduler) Tick(ctx context.Context) SweepReport {
	return s.Sweep(ctx, s.now())
}

// Sweep отменяет все записи, срок которых истек к now.
// Проходы не пересекаются: повторный вызов ждет завершения текущего
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) SweepReport {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	started := time.Now()
	var report SweepReport

	s.sweepReservations(ctx, now, &report)
	s.sweepOrders(ctx, now, &report)

	report.Duration = time.Since(started)
	if s.metrics != nil {
		s.metrics.ObserveSweep(report.Duration, report.ExpiredReservations, report.ExpiredOrders, report.Failed)
	}

	if report.ExpiredReservations+report.ExpiredOrders+report.Failed > 0 {
		s.logger.Info("Sweep: expired reservations=%d orders=%d skipped=%d failed=%d in %s",
			report.ExpiredReservations, report.ExpiredOrders, report.Skipped, report.Failed, report.Duration)
	}
	return report
}

func (s *Scheduler) sweepReservations(ctx context.Context, now time.Time, report *SweepReport) {
	seen := make(map[int64]struct{})
	for {
		batch, err := s.reservations.ListExpired(ctx, now, s.batchSize)
		if err != nil {
			s.logger.Error("Sweep: failed to list expired reservations: %v", err)
			report.Failed++
			return
		}

		fresh := 0
		for _, res := range batch {
			if _, ok := seen[res.ID]; ok {
				continue
			}
			seen[res.ID] = struct{}{}
			fresh++

			expired, err := s.expirer.ExpireReservation(ctx, res, now)
			switch {
			case err != nil:
				s.logger.Warn("Sweep: reservation id=%d: %v", res.ID, err)
				report.Failed++
			case expired:
				report.ExpiredReservations++
			default:
				report.Skipped++
			}
		}

		if len(batch) < s.batchSize || fresh == 0 {
			return
		}
	}
}

func (s *Scheduler) sweepOrders(ctx context.Context, now time.Time, report *SweepReport) {
	seen := make(map[int64]struct{})
	for {
		batch, err := s.orders.ListExpired(ctx, now, s.batchSize)
		if err != nil {
			s.logger.Error("Sweep: failed to list expired orders: %v", err)
			report.Failed++
			return
		}

		fresh := 0
		for _, o := range batch {
			if _, ok := seen[o.ID]; ok {
				continue
			}
			seen[o.ID] = struct{}{}
			fresh++

			expired, err := s.expirer.ExpireOrder(ctx, o, now)
			switch {
			case err != nil:
				s.logger.Warn("Sweep: order id=%d: %v", o.ID, err)
				report.Failed++
			case expired:
				report.ExpiredOrders++
			default:
				report.Skipped++
			}
		}

		if len(batch) < s.batchSize || fresh == 0 {
			return
		}
	}
}
