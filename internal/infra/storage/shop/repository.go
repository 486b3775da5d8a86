package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/psqlbuilder"
)

// Settings настройки магазина, влияющие на жизненный цикл заказа
type Settings struct {
	ShopID         int64
	OwnerID        int64
	ReturnsEnabled bool
}

// Repository настройки магазинов и белый список оплаты позже
type Repository struct {
	db dbmetrics.DBExecutor
}

func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetSettings возвращает настройки магазина
func (r *Repository) GetSettings(ctx context.Context, shopID int64) (*Settings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "owner_id", "returns_enabled").
		From("shops").
		Where(squirrel.Eq{"id": shopID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetSettings - build select query: %v", ErrBuildQuery, err)
	}

	var s Settings
	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.ShopID, &s.OwnerID, &s.ReturnsEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetSettings - scan shop: %v", ErrScanRow, err)
	}

	return &s, nil
}

// IsPayLaterWhitelisted проверяет, разрешена ли клиенту оплата позже в магазине
func (r *Repository) IsPayLaterWhitelisted(ctx context.Context, shopID, customerID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").
		Prefix("SELECT EXISTS (").
		From("pay_later_whitelist").
		Where(squirrel.Eq{"shop_id": shopID, "customer_id": customerID}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: IsPayLaterWhitelisted - build select query: %v", ErrBuildQuery, err)
	}

	var exists bool
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: IsPayLaterWhitelisted - scan: %v", ErrScanRow, err)
	}

	return exists, nil
}
