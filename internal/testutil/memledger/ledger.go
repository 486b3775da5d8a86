// Package memledger хранилище в памяти с семантикой postgres-репозиториев.
// Используется в тестах сервисов: условные обновления, ошибки и порядок выборок
// совпадают с реализациями из internal/infra/storage
package memledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/order"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/shop"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/slotconfig"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/waitlist"
)

// Ledger общее состояние всех таблиц
type Ledger struct {
	mu  sync.Mutex
	now func() time.Time

	nextID       int64
	reservations map[int64]*domain.Reservation
	orders       map[int64]*domain.Order
	waitlist     []*domain.WaitlistEntry
	history      []*domain.StatusHistory
	configs      map[int64]*domain.ServiceSlotConfig
	shops        map[int64]*shop.Settings
	whitelist    map[[2]int64]bool
}

func New(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		now:          now,
		reservations: make(map[int64]*domain.Reservation),
		orders:       make(map[int64]*domain.Order),
		configs:      make(map[int64]*domain.ServiceSlotConfig),
		shops:        make(map[int64]*shop.Settings),
		whitelist:    make(map[[2]int64]bool),
	}
}

func (l *Ledger) id() int64 {
	l.nextID++
	return l.nextID
}

// Seed-хелперы для подготовки состояния в тестах

func (l *Ledger) PutConfig(cfg domain.ServiceSlotConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.configs[cfg.ServiceID] = &cfg
}

func (l *Ledger) PutShop(settings shop.Settings) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shops[settings.ShopID] = &settings
}

func (l *Ledger) WhitelistPayLater(shopID, customerID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.whitelist[[2]int64{shopID, customerID}] = true
}

// PutReservation сохраняет бронирование как есть, присваивая ID при необходимости
func (l *Ledger) PutReservation(res domain.Reservation) *domain.Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()
	if res.ID == 0 {
		res.ID = l.id()
	}
	l.reservations[res.ID] = &res
	return res.Clone()
}

func (l *Ledger) PutOrder(o domain.Order) *domain.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	if o.ID == 0 {
		o.ID = l.id()
	}
	l.orders[o.ID] = &o
	return o.Clone()
}

// Reservation возвращает текущее состояние бронирования или nil
func (l *Ledger) Reservation(id int64) *domain.Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()
	if res, ok := l.reservations[id]; ok {
		return res.Clone()
	}
	return nil
}

func (l *Ledger) Order(id int64) *domain.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	if o, ok := l.orders[id]; ok {
		return o.Clone()
	}
	return nil
}

// Occupied считает занимающие слот бронирования
func (l *Ledger) Occupied(slot domain.SlotKey) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countActive(slot)
}

func (l *Ledger) countActive(slot domain.SlotKey) int {
	count := 0
	for _, res := range l.reservations {
		if sameSlot(res.Slot(), slot) && res.Status.OccupiesSlot() {
			count++
		}
	}
	return count
}

func sameSlot(a, b domain.SlotKey) bool {
	return a.ServiceID == b.ServiceID && a.Date.Equal(b.Date) && a.Label == b.Label
}

// Reservations репозиторий бронирований
func (l *Ledger) Reservations() *Reservations { return &Reservations{l: l} }

// Orders репозиторий заказов
func (l *Ledger) Orders() *Orders { return &Orders{l: l} }

// Waitlist репозиторий листа ожидания
func (l *Ledger) Waitlist() *Waitlist { return &Waitlist{l: l} }

// History репозиторий таймлайна
func (l *Ledger) History() *History { return &History{l: l} }

// SlotConfigs репозиторий конфигурации слотов
func (l *Ledger) SlotConfigs() *SlotConfigs { return &SlotConfigs{l: l} }

// Shops репозиторий настроек магазинов
func (l *Ledger) Shops() *Shops { return &Shops{l: l} }

type Reservations struct{ l *Ledger }

func (r *Reservations) Create(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	created := res.Clone()
	created.ID = r.l.id()
	created.CreatedAt = r.l.now()
	created.UpdatedAt = created.CreatedAt
	r.l.reservations[created.ID] = created
	return created.Clone(), nil
}

func (r *Reservations) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	res, ok := r.l.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", reservation.ErrReservationNotFound, id)
	}
	return res.Clone(), nil
}

func (r *Reservations) UpdateIfStatus(_ context.Context, res *domain.Reservation, expected domain.ReservationStatus) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	stored, ok := r.l.reservations[res.ID]
	if !ok || stored.Status != expected {
		return fmt.Errorf("%w: id=%d expected=%s", reservation.ErrStatusConflict, res.ID, expected)
	}
	updated := res.Clone()
	updated.UpdatedAt = r.l.now()
	r.l.reservations[res.ID] = updated
	res.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *Reservations) ExpireIfDue(_ context.Context, id int64, expected domain.ReservationStatus, now time.Time, reason string) (bool, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	stored, ok := r.l.reservations[id]
	if !ok || stored.Status != expected || stored.ExpiresAt == nil || !stored.ExpiresAt.Before(now) {
		return false, nil
	}
	stored.Status = domain.ReservationCancelled
	stored.ExpiresAt = nil
	stored.CancellationReason = &reason
	stored.UpdatedAt = r.l.now()
	return true, nil
}

func (r *Reservations) ListExpired(_ context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var result []*domain.Reservation
	for _, res := range r.l.reservations {
		if res.IsExpiredAt(now) {
			result = append(result, res.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ExpiresAt.Equal(*result[j].ExpiresAt) {
			return result[i].ExpiresAt.Before(*result[j].ExpiresAt)
		}
		return result[i].ID < result[j].ID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *Reservations) CountActiveInSlot(_ context.Context, slot domain.SlotKey) (int, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	return r.l.countActive(slot), nil
}

func (r *Reservations) ListActiveByProviderAndDate(_ context.Context, providerID int64, date time.Time) ([]*domain.Reservation, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var result []*domain.Reservation
	for _, res := range r.l.reservations {
		if res.ProviderID == providerID && res.BookingDate.Equal(date) && res.Status.OccupiesSlot() {
			result = append(result, res.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TimeSlotLabel != result[j].TimeSlotLabel {
			return result[i].TimeSlotLabel < result[j].TimeSlotLabel
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type Orders struct{ l *Ledger }

func (r *Orders) Create(_ context.Context, o *domain.Order) (*domain.Order, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	created := o.Clone()
	created.ID = r.l.id()
	created.CreatedAt = r.l.now()
	created.UpdatedAt = created.CreatedAt
	r.l.orders[created.ID] = created
	return created.Clone(), nil
}

func (r *Orders) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	o, ok := r.l.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", order.ErrOrderNotFound, id)
	}
	return o.Clone(), nil
}

func (r *Orders) UpdateIfStatus(_ context.Context, o *domain.Order, expected domain.OrderStatus) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	stored, ok := r.l.orders[o.ID]
	if !ok || stored.Status != expected {
		return fmt.Errorf("%w: id=%d expected=%s", order.ErrStatusConflict, o.ID, expected)
	}
	r.l.storeOrder(o)
	return nil
}

func (r *Orders) UpdatePaymentIfStatus(_ context.Context, o *domain.Order, expected domain.PaymentStatus) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	stored, ok := r.l.orders[o.ID]
	if !ok || stored.PaymentStatus != expected {
		return fmt.Errorf("%w: id=%d expected payment=%s", order.ErrStatusConflict, o.ID, expected)
	}
	r.l.storeOrder(o)
	return nil
}

func (l *Ledger) storeOrder(o *domain.Order) {
	updated := o.Clone()
	updated.UpdatedAt = l.now()
	l.orders[o.ID] = updated
	o.UpdatedAt = updated.UpdatedAt
}

func (r *Orders) ExpireIfDue(_ context.Context, id int64, expected domain.OrderStatus, now time.Time, reason string) (bool, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	stored, ok := r.l.orders[id]
	if !ok || stored.Status != expected || stored.ExpiresAt == nil || !stored.ExpiresAt.Before(now) {
		return false, nil
	}
	stored.Status = domain.OrderCancelled
	stored.ExpiresAt = nil
	stored.CancellationReason = &reason
	stored.UpdatedAt = r.l.now()
	return true, nil
}

func (r *Orders) ListExpired(_ context.Context, now time.Time, limit int) ([]*domain.Order, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var result []*domain.Order
	for _, o := range r.l.orders {
		if o.IsExpiredAt(now) {
			result = append(result, o.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ExpiresAt.Equal(*result[j].ExpiresAt) {
			return result[i].ExpiresAt.Before(*result[j].ExpiresAt)
		}
		return result[i].ID < result[j].ID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *Orders) CountDelivered(_ context.Context, customerID, shopID int64) (int, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	count := 0
	for _, o := range r.l.orders {
		if o.CustomerID == customerID && o.ShopID == shopID && o.Status == domain.OrderDelivered {
			count++
		}
	}
	return count, nil
}

type Waitlist struct{ l *Ledger }

func (r *Waitlist) Add(_ context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	for _, e := range r.l.waitlist {
		if e.CustomerID == entry.CustomerID && sameSlot(e.Slot(), entry.Slot()) {
			return nil, fmt.Errorf("%w: customer=%d", waitlist.ErrAlreadyWaitlisted, entry.CustomerID)
		}
	}
	created := *entry
	created.ID = r.l.id()
	created.JoinedAt = r.l.now()
	r.l.waitlist = append(r.l.waitlist, &created)
	out := created
	return &out, nil
}

func (r *Waitlist) Head(ctx context.Context, slot domain.SlotKey) (*domain.WaitlistEntry, error) {
	entries, _ := r.ListBySlot(ctx, slot)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: slot=%s", waitlist.ErrEntryNotFound, slot)
	}
	return entries[0], nil
}

// ListBySlot порядок вставки совпадает с FIFO по joined_at, id
func (r *Waitlist) ListBySlot(_ context.Context, slot domain.SlotKey) ([]*domain.WaitlistEntry, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var result []*domain.WaitlistEntry
	for _, e := range r.l.waitlist {
		if sameSlot(e.Slot(), slot) {
			out := *e
			result = append(result, &out)
		}
	}
	return result, nil
}

func (r *Waitlist) Remove(_ context.Context, id int64) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	for i, e := range r.l.waitlist {
		if e.ID == id {
			r.l.waitlist = append(r.l.waitlist[:i], r.l.waitlist[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: id=%d", waitlist.ErrEntryNotFound, id)
}

type History struct{ l *Ledger }

func (r *History) Append(_ context.Context, entry *domain.StatusHistory) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	stored := *entry
	stored.ID = r.l.id()
	stored.CreatedAt = r.l.now()
	r.l.history = append(r.l.history, &stored)
	entry.ID = stored.ID
	entry.CreatedAt = stored.CreatedAt
	return nil
}

func (r *History) ListByEntity(_ context.Context, entityType domain.EntityType, entityID int64) ([]*domain.StatusHistory, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	var result []*domain.StatusHistory
	for _, h := range r.l.history {
		if h.EntityType == entityType && h.EntityID == entityID {
			out := *h
			result = append(result, &out)
		}
	}
	return result, nil
}

type SlotConfigs struct{ l *Ledger }

func (r *SlotConfigs) GetByServiceID(_ context.Context, serviceID int64) (*domain.ServiceSlotConfig, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	cfg, ok := r.l.configs[serviceID]
	if !ok {
		return nil, fmt.Errorf("%w: service_id=%d", slotconfig.ErrConfigNotFound, serviceID)
	}
	out := *cfg
	return &out, nil
}

func (r *SlotConfigs) Upsert(_ context.Context, cfg *domain.ServiceSlotConfig) (*domain.ServiceSlotConfig, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	stored := *cfg
	stored.UpdatedAt = r.l.now()
	if existing, ok := r.l.configs[cfg.ServiceID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = stored.UpdatedAt
	}
	r.l.configs[cfg.ServiceID] = &stored
	out := stored
	return &out, nil
}

type Shops struct{ l *Ledger }

func (r *Shops) GetSettings(_ context.Context, shopID int64) (*shop.Settings, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	s, ok := r.l.shops[shopID]
	if !ok {
		return nil, fmt.Errorf("%w: shop_id=%d", shop.ErrShopNotFound, shopID)
	}
	out := *s
	return &out, nil
}

func (r *Shops) IsPayLaterWhitelisted(_ context.Context, shopID, customerID int64) (bool, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	return r.l.whitelist[[2]int64{shopID, customerID}], nil
}
