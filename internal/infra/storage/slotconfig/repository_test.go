package slotconfig

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

func TestRepository_GetByServiceID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM service_slot_configs WHERE service_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"service_id", "provider_id", "service_name", "price", "duration_minutes", "max_bookings_per_slot", "created_at", "updated_at",
		}).AddRow(3, 11, "Уборка", 1500.0, 90, 2, now, now))

	config, err := repo.GetByServiceID(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, int64(11), config.ProviderID)
	assert.Equal(t, 2, config.MaxBookingsPerSlot)
	assert.Equal(t, domain.ServiceSnapshot{ServiceName: "Уборка", Price: 1500, DurationMinutes: 90}, config.Snapshot())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByServiceID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM service_slot_configs").WillReturnError(sql.ErrNoRows)

	_, err = NewRepository(db).GetByServiceID(context.Background(), 3)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (service_id) DO UPDATE")).
		WithArgs(int64(3), int64(11), "Уборка", 1500.0, 90, 2).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	config, err := NewRepository(db).Upsert(context.Background(), &domain.ServiceSlotConfig{
		ServiceID:          3,
		ProviderID:         11,
		ServiceName:        "Уборка",
		Price:              1500,
		DurationMinutes:    90,
		MaxBookingsPerSlot: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, now, config.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
