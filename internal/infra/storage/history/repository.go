package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/psqlbuilder"
)

const table = "status_history"

// Repository журнал смены статусов (таймлайн)
type Repository struct {
	db dbmetrics.DBExecutor
}

func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Append добавляет запись в таймлайн
// Должен вызываться в той же транзакции, что и смена статуса
func (r *Repository) Append(ctx context.Context, entry *domain.StatusHistory) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("entity_type", "entity_id", "status", "actor_role", "tracking_info").
		Values(entry.EntityType, entry.EntityID, entry.Status, entry.ActorRole, entry.TrackingInfo).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Append - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &createdAt); err != nil {
		return fmt.Errorf("%w: Append - execute insert: %v", ErrExecQuery, err)
	}
	entry.CreatedAt = createdAt.Time

	return nil
}

// ListByEntity возвращает таймлайн сущности в хронологическом порядке
func (r *Repository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID int64) ([]*domain.StatusHistory, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "entity_type", "entity_id", "status", "actor_role", "tracking_info", "created_at").
		From(table).
		Where(squirrel.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByEntity - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByEntity - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]*domain.StatusHistory, 0)
	for rows.Next() {
		var entry domain.StatusHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Status,
			&entry.ActorRole,
			&entry.TrackingInfo,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListByEntity - scan row: %v", ErrScanRow, err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByEntity - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}
