package shop

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetSettings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, returns_enabled FROM shops WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "returns_enabled"}).AddRow(3, 30, true))

	s, err := NewRepository(db).GetSettings(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, int64(30), s.OwnerID)
	assert.True(t, s.ReturnsEnabled)
}

func TestRepository_GetSettings_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM shops").WillReturnError(sql.ErrNoRows)

	_, err = NewRepository(db).GetSettings(context.Background(), 3)
	assert.ErrorIs(t, err, ErrShopNotFound)
}

func TestRepository_IsPayLaterWhitelisted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM pay_later_whitelist WHERE customer_id = $1 AND shop_id = $2")).
		WithArgs(int64(2), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := NewRepository(db).IsPayLaterWhitelisted(context.Background(), 3, 2)

	require.NoError(t, err)
	assert.True(t, ok)
}
