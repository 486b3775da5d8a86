package waitlist

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

var testSlot = domain.SlotKey{ServiceID: 1, Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Label: "12:00"}

func TestRepository_Add_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO waitlist_entries")).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	_, err = NewRepository(db).Add(context.Background(), &domain.WaitlistEntry{
		CustomerID:    5,
		ServiceID:     testSlot.ServiceID,
		PreferredDate: testSlot.Date,
		TimeSlotLabel: testSlot.Label,
	})

	assert.ErrorIs(t, err, ErrAlreadyWaitlisted)
}

func TestRepository_ListBySlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY joined_at ASC, id ASC")).
		WithArgs(testSlot.Date, int64(1), "12:00").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, 10, 1, testSlot.Date, "12:00", 0.0, 0.0, now).
			AddRow(2, 11, 1, testSlot.Date, "12:00", 0.0, 0.0, now.Add(time.Second)))

	entries, err := NewRepository(db).ListBySlot(context.Background(), testSlot)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(10), entries[0].CustomerID)
	assert.Equal(t, int64(11), entries[1].CustomerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Head_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 1")).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err = NewRepository(db).Head(context.Background(), testSlot)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}
