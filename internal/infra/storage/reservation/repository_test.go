package reservation

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

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	expires := now.Add(30 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reservations")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, now, now))

	res, err := repo.Create(context.Background(), &domain.Reservation{
		ServiceID:     1,
		CustomerID:    2,
		ProviderID:    3,
		Status:        domain.ReservationPending,
		BookingDate:   domain.NormalizeDate(now),
		TimeSlotLabel: "10:00",
		ExpiresAt:     &expires,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), res.ID)
	assert.Equal(t, now, res.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 7)

	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateIfStatus(t *testing.T) {
	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		wantErr error
	}{
		{
			name: "updated",
			rows: sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()),
		},
		{
			name:    "status moved concurrently",
			rows:    sqlmock.NewRows([]string{"updated_at"}),
			wantErr: ErrStatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t)
			mock.ExpectQuery(regexp.QuoteMeta("UPDATE reservations SET status = $1")).
				WillReturnRows(tt.rows)

			res := &domain.Reservation{ID: 5, Status: domain.ReservationAccepted}
			err := repo.UpdateIfStatus(context.Background(), res, domain.ReservationPending)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.False(t, res.UpdatedAt.IsZero())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_ExpireIfDue(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"expired", 1, true},
		{"already moved", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t)
			now := time.Now()

			mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = $1")).
				WithArgs(domain.ReservationCancelled, nil, domain.ExpiredReason, int64(9), domain.ReservationPending, now).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := repo.ExpireIfDue(context.Background(), 9, domain.ReservationPending, now, domain.ExpiredReason)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_CountActiveInSlot(t *testing.T) {
	repo, mock := newRepo(t)
	slot := domain.SlotKey{ServiceID: 1, Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Label: "09:00"}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountActiveInSlot(context.Background(), slot)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
