package waitlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/psqlbuilder"
)

const (
	table = "waitlist_entries"

	// uniqueViolation код ошибки PostgreSQL для нарушения уникального индекса
	uniqueViolation = "23505"
)

var columns = []string{
	"id",
	"customer_id",
	"service_id",
	"preferred_date",
	"time_slot_label",
	"location_lat",
	"location_lng",
	"joined_at",
}

// Repository лист ожидания слотов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория листа ожидания
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Add ставит клиента в конец очереди на слот
func (r *Repository) Add(ctx context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("customer_id", "service_id", "preferred_date", "time_slot_label", "location_lat", "location_lng").
		Values(
			entry.CustomerID,
			entry.ServiceID,
			entry.PreferredDate,
			entry.TimeSlotLabel,
			entry.ServiceLocation.Lat,
			entry.ServiceLocation.Lng,
		).
		Suffix("RETURNING id, joined_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Add - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &entry.JoinedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrAlreadyWaitlisted
		}
		return nil, fmt.Errorf("%w: Add - execute insert: %v", ErrExecQuery, err)
	}

	return entry, nil
}

// Head возвращает первую запись очереди на слот
func (r *Repository) Head(ctx context.Context, slot domain.SlotKey) (*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := slotQuery(slot).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Head - build select query: %v", ErrBuildQuery, err)
	}

	entry, err := scanEntry(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Head - scan entry: %v", ErrScanRow, err)
	}

	return entry, nil
}

// ListBySlot возвращает очередь на слот в порядке FIFO
func (r *Repository) ListBySlot(ctx context.Context, slot domain.SlotKey) ([]*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := slotQuery(slot).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBySlot - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBySlot - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]*domain.WaitlistEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListBySlot - scan row: %v", ErrScanRow, err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListBySlot - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}

// Remove удаляет запись из очереди (после успешного продвижения)
func (r *Repository) Remove(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Remove - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Remove - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Remove - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func slotQuery(slot domain.SlotKey) squirrel.SelectBuilder {
	return psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{
			"service_id":      slot.ServiceID,
			"preferred_date":  slot.Date,
			"time_slot_label": slot.Label,
		}).
		OrderBy("joined_at ASC", "id ASC")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*domain.WaitlistEntry, error) {
	var entry domain.WaitlistEntry
	err := row.Scan(
		&entry.ID,
		&entry.CustomerID,
		&entry.ServiceID,
		&entry.PreferredDate,
		&entry.TimeSlotLabel,
		&entry.ServiceLocation.Lat,
		&entry.ServiceLocation.Lng,
		&entry.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
