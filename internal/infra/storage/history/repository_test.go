package history

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

func TestRepository_AppendAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO status_history")).
		WithArgs(domain.EntityOrder, int64(4), "dispatched", domain.RoleShopOwner, "AWB-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))

	tracking := "AWB-1"
	entry := &domain.StatusHistory{
		EntityType:   domain.EntityOrder,
		EntityID:     4,
		Status:       "dispatched",
		ActorRole:    domain.RoleShopOwner,
		TrackingInfo: &tracking,
	}
	require.NoError(t, repo.Append(context.Background(), entry))
	assert.Equal(t, int64(1), entry.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM status_history WHERE entity_id = $1 AND entity_type = $2 ORDER BY created_at ASC, id ASC")).
		WithArgs(int64(4), domain.EntityOrder).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "status", "actor_role", "tracking_info", "created_at"}).
			AddRow(1, "order", 4, "pending", "customer", nil, now).
			AddRow(2, "order", 4, "dispatched", "shop_owner", "AWB-1", now))

	entries, err := repo.ListByEntity(context.Background(), domain.EntityOrder, 4)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].TrackingInfo)
	assert.Equal(t, "AWB-1", *entries[1].TrackingInfo)
	assert.NoError(t, mock.ExpectationsWereMet())
}
