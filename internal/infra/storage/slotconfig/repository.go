package slotconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/psqlbuilder"
)

const table = "service_slot_configs"

// Repository репозиторий параметров слотов услуг
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория конфигурации слотов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByServiceID получает конфигурацию слотов услуги
func (r *Repository) GetByServiceID(ctx context.Context, serviceID int64) (*domain.ServiceSlotConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"service_id",
		"provider_id",
		"service_name",
		"price",
		"duration_minutes",
		"max_bookings_per_slot",
		"created_at",
		"updated_at",
	).
		From(table).
		Where(squirrel.Eq{"service_id": serviceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByServiceID - build select query: %v", ErrBuildQuery, err)
	}

	var config domain.ServiceSlotConfig
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&config.ServiceID,
		&config.ProviderID,
		&config.ServiceName,
		&config.Price,
		&config.DurationMinutes,
		&config.MaxBookingsPerSlot,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByServiceID - scan config: %v", ErrScanRow, err)
	}

	config.CreatedAt = createdAt.Time
	config.UpdatedAt = updatedAt.Time

	return &config, nil
}

// Upsert создает или обновляет конфигурацию слотов услуги
// Изменения не затрагивают уже созданные бронирования: у них свой снимок услуги
func (r *Repository) Upsert(ctx context.Context, config *domain.ServiceSlotConfig) (*domain.ServiceSlotConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"service_id",
			"provider_id",
			"service_name",
			"price",
			"duration_minutes",
			"max_bookings_per_slot",
		).
		Values(
			config.ServiceID,
			config.ProviderID,
			config.ServiceName,
			config.Price,
			config.DurationMinutes,
			config.MaxBookingsPerSlot,
		).
		Suffix(`ON CONFLICT (service_id) DO UPDATE SET
			service_name = EXCLUDED.service_name,
			price = EXCLUDED.price,
			duration_minutes = EXCLUDED.duration_minutes,
			max_bookings_per_slot = EXCLUDED.max_bookings_per_slot,
			updated_at = NOW()
			RETURNING created_at, updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %v", ErrExecQuery, err)
	}

	config.CreatedAt = createdAt.Time
	config.UpdatedAt = updatedAt.Time

	return config, nil
}

// Delete удаляет конфигурацию слотов услуги
func (r *Repository) Delete(ctx context.Context, serviceID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(table).
		Where(squirrel.Eq{"service_id": serviceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrConfigNotFound
	}

	return nil
}
