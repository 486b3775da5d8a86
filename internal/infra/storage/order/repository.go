package order

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

const table = "orders"

var columns = []string{
	"id",
	"customer_id",
	"shop_id",
	"status",
	"order_type",
	"total",
	"delivery_method",
	"payment_status",
	"payment_method",
	"payment_reference",
	"returns_enabled",
	"return_requested",
	"expires_at",
	"tracking_info",
	"cancellation_reason",
	"created_at",
	"updated_at",
}

// Repository репозиторий заказов (ledger)
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория заказов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает заказ
func (r *Repository) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"customer_id",
			"shop_id",
			"status",
			"order_type",
			"total",
			"delivery_method",
			"payment_status",
			"payment_method",
			"returns_enabled",
			"expires_at",
		).
		Values(
			o.CustomerID,
			o.ShopID,
			o.Status,
			o.OrderType,
			o.Total,
			o.DeliveryMethod,
			o.PaymentStatus,
			o.PaymentMethod,
			o.ReturnsEnabled,
			o.ExpiresAt,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&o.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	o.CreatedAt = createdAt.Time
	o.UpdatedAt = updatedAt.Time

	return o, nil
}

// GetByID получает заказ по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	o, err := scanOrder(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan order: %v", ErrScanRow, err)
	}

	return o, nil
}

// UpdateIfStatus сохраняет изменяемые поля заказа при условии, что статус в БД равен expected
func (r *Repository) UpdateIfStatus(ctx context.Context, o *domain.Order, expected domain.OrderStatus) error {
	builder := r.updateBuilder(o).Where(squirrel.Eq{"id": o.ID, "status": expected})
	return r.execConditional(ctx, "UpdateIfStatus", builder, o)
}

// UpdatePaymentIfStatus сохраняет заказ при условии, что статус оплаты в БД равен expected
// Смена способа и статуса оплаты не конкурирует со сменой статуса заказа
func (r *Repository) UpdatePaymentIfStatus(ctx context.Context, o *domain.Order, expected domain.PaymentStatus) error {
	builder := r.updateBuilder(o).Where(squirrel.Eq{"id": o.ID, "payment_status": expected})
	return r.execConditional(ctx, "UpdatePaymentIfStatus", builder, o)
}

// ExpireIfDue отменяет заказ, только если он все еще в статусе expected и срок истек к now
func (r *Repository) ExpireIfDue(ctx context.Context, id int64, expected domain.OrderStatus, now time.Time, reason string) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("status", domain.OrderCancelled).
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

// ListExpired возвращает заказы в истекающих статусах со сроком раньше now
func (r *Repository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Order, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	statuses := make([]string, len(domain.ExpirableOrderStatuses))
	for i, s := range domain.ExpirableOrderStatuses {
		statuses[i] = string(s)
	}

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"status": statuses}).
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

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListExpired - scan row: %v", ErrScanRow, err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListExpired - rows error: %v", ErrScanRow, err)
	}

	return orders, nil
}

// CountDelivered считает доставленные заказы клиента в магазине (признак постоянного клиента)
func (r *Repository) CountDelivered(ctx context.Context, customerID, shopID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From(table).
		Where(squirrel.Eq{
			"customer_id": customerID,
			"shop_id":     shopID,
			"status":      domain.OrderDelivered,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountDelivered - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountDelivered - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

func (r *Repository) updateBuilder(o *domain.Order) squirrel.UpdateBuilder {
	return psqlbuilder.Update(table).
		Set("status", o.Status).
		Set("total", o.Total).
		Set("payment_status", o.PaymentStatus).
		Set("payment_method", o.PaymentMethod).
		Set("payment_reference", o.PaymentReference).
		Set("return_requested", o.ReturnRequested).
		Set("expires_at", o.ExpiresAt).
		Set("tracking_info", o.TrackingInfo).
		Set("cancellation_reason", o.CancellationReason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Suffix("RETURNING updated_at")
}

func (r *Repository) execConditional(ctx context.Context, op string, builder squirrel.UpdateBuilder, o *domain.Order) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	var updatedAt time.Time
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s id=%d", ErrStatusConflict, op, o.ID)
	}
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	o.UpdatedAt = updatedAt
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.ShopID,
		&o.Status,
		&o.OrderType,
		&o.Total,
		&o.DeliveryMethod,
		&o.PaymentStatus,
		&o.PaymentMethod,
		&o.PaymentReference,
		&o.ReturnsEnabled,
		&o.ReturnRequested,
		&o.ExpiresAt,
		&o.TrackingInfo,
		&o.CancellationReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.CreatedAt = createdAt.Time
	o.UpdatedAt = updatedAt.Time

	return &o, nil
}
