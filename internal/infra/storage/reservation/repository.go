package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/psqlbuilder"
)

const table = "reservations"

var columns = []string{
	"id",
	"service_id",
	"customer_id",
	"provider_id",
	"status",
	"booking_date",
	"time_slot_label",
	"location_lat",
	"location_lng",
	"expires_at",
	"reschedule_date",
	"rejection_reason",
	"cancellation_reason",
	"comments",
	"completion_notes",
	"payment_reference",
	"disputed",
	"dispute_reason",
	"service_name",
	"service_price",
	"duration_minutes",
	"created_at",
	"updated_at",
}

// Repository репозиторий бронирований (ledger)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает бронирование
// Вызывается гардом слота внутри транзакции, под блокировкой слота
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"service_id",
			"customer_id",
			"provider_id",
			"status",
			"booking_date",
			"time_slot_label",
			"location_lat",
			"location_lng",
			"expires_at",
			"comments",
			"service_name",
			"service_price",
			"duration_minutes",
		).
		Values(
			res.ServiceID,
			res.CustomerID,
			res.ProviderID,
			res.Status,
			res.BookingDate,
			res.TimeSlotLabel,
			res.ServiceLocation.Lat,
			res.ServiceLocation.Lng,
			res.ExpiresAt,
			res.Comments,
			res.Snapshot.ServiceName,
			res.Snapshot.Price,
			res.Snapshot.DurationMinutes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&res.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return res, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %v", ErrScanRow, err)
	}

	return res, nil
}

// UpdateIfStatus сохраняет изменяемые поля бронирования при условии, что статус в БД равен expected.
// Это единственный способ смены статуса: проигравший гонку писатель получает ErrStatusConflict
func (r *Repository) UpdateIfStatus(ctx context.Context, res *domain.Reservation, expected domain.ReservationStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("status", res.Status).
		Set("expires_at", res.ExpiresAt).
		Set("reschedule_date", res.RescheduleDate).
		Set("rejection_reason", res.RejectionReason).
		Set("cancellation_reason", res.CancellationReason).
		Set("comments", res.Comments).
		Set("completion_notes", res.CompletionNotes).
		Set("payment_reference", res.PaymentReference).
		Set("disputed", res.Disputed).
		Set("dispute_reason", res.DisputeReason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": res.ID, "status": expected}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateIfStatus - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt time.Time
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: id=%d expected=%s", ErrStatusConflict, res.ID, expected)
	}
	if err != nil {
		return fmt.Errorf("%w: UpdateIfStatus - execute update: %v", ErrExecQuery, err)
	}

	res.UpdatedAt = updatedAt
	return nil
}

// ExpireIfDue отменяет бронирование, только если оно все еще в статусе expected и срок истек к now.
// Возвращает false, если запись уже ушла из истекающего статуса (сработал параллельный переход)
func (r *Repository) ExpireIfDue(ctx context.Context, id int64, expected domain.ReservationStatus, now time.Time, reason string) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("status", domain.ReservationCancelled).
		Set("expires_at", nil).
		Set("cancellation_reason", reason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": expected}).
		Where(squirrel.Lt{"expires_at": now}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: ExpireIfDue - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: ExpireIfDue - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: ExpireIfDue - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}

// ListExpired возвращает бронирования в истекающих статусах со сроком раньше now
func (r *Repository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"status": statusStrings(domain.ExpirableReservationStatuses)}).
		Where(squirrel.Lt{"expires_at": now}).
		OrderBy("expires_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpired - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpired - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// CountActiveInSlot считает бронирования, занимающие место в слоте
func (r *Repository) CountActiveInSlot(ctx context.Context, slot domain.SlotKey) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From(table).
		Where(squirrel.Eq{
			"service_id":      slot.ServiceID,
			"booking_date":    slot.Date,
			"time_slot_label": slot.Label,
		}).
		Where(squirrel.NotEq{"status": statusStrings(domain.NonOccupyingStatuses)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActiveInSlot - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActiveInSlot - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// ListActiveByProviderAndDate возвращает активные бронирования исполнителя на дату
// Используется советником по близости
func (r *Repository) ListActiveByProviderAndDate(ctx context.Context, providerID int64, date time.Time) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"provider_id": providerID, "booking_date": date}).
		Where(squirrel.NotEq{"status": statusStrings(domain.NonOccupyingStatuses)}).
		OrderBy("time_slot_label ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByProviderAndDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByProviderAndDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&res.ID,
		&res.ServiceID,
		&res.CustomerID,
		&res.ProviderID,
		&res.Status,
		&res.BookingDate,
		&res.TimeSlotLabel,
		&res.ServiceLocation.Lat,
		&res.ServiceLocation.Lng,
		&res.ExpiresAt,
		&res.RescheduleDate,
		&res.RejectionReason,
		&res.CancellationReason,
		&res.Comments,
		&res.CompletionNotes,
		&res.PaymentReference,
		&res.Disputed,
		&res.DisputeReason,
		&res.Snapshot.ServiceName,
		&res.Snapshot.Price,
		&res.Snapshot.DurationMinutes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return &res, nil
}

func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	reservations := make([]*domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan reservation: %v", ErrScanRow, err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows error: %v", ErrScanRow, err)
	}

	return reservations, nil
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}
