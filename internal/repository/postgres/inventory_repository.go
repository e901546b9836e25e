package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/jmoiron/sqlx"
)

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) *inventoryRepository {
	return &inventoryRepository{db: db}
}

// LatestInventory returns the most recent stock snapshot per product and country.
// Ties on the same date resolve to the lower stock.
func (r *inventoryRepository) LatestInventory(ctx context.Context, scope domain.Scope) ([]domain.InventoryLevel, error) {
	ranked := sq.Select(
		"account_id",
		"product_code",
		"country",
		"COALESCE(stock, 0) AS stock",
		"ROW_NUMBER() OVER (PARTITION BY account_id, product_code, country ORDER BY date DESC, stock ASC NULLS FIRST) AS rn",
	).
		From("inventory_daily").
		Where(scopePredicate(scope, ""))

	query, args, err := psql.
		Select("account_id", "product_code", "country", "stock").
		FromSelect(ranked, "latest").
		Where(sq.Eq{"rn": 1}).
		OrderBy("product_code", "country").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest inventory query: %w", err)
	}

	var levels []domain.InventoryLevel
	if err := sqlx.SelectContext(ctx, r.db, &levels, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load latest inventory: %w", err)
	}

	return levels, nil
}

// ForecastDemand sums the forecast over [today, today+horizonDays).
func (r *inventoryRepository) ForecastDemand(ctx context.Context, scope domain.Scope, horizonDays int) ([]domain.ForecastDemand, error) {
	query, args, err := psql.
		Select(
			"account_id",
			"product_code",
			"country",
			"COALESCE(SUM(yhat), 0) AS demand_horizon",
			"COALESCE(AVG(NULLIF(yhat, 0)), 0) AS avg_daily",
		).
		From("forecast_product_daily").
		Where(scopePredicate(scope, "")).
		Where("date >= CURRENT_DATE").
		Where(sq.Expr("date < CURRENT_DATE + make_interval(days => ?)", horizonDays)).
		GroupBy("account_id", "product_code", "country").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build forecast demand query: %w", err)
	}

	var demand []domain.ForecastDemand
	if err := sqlx.SelectContext(ctx, r.db, &demand, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load forecast demand: %w", err)
	}

	return demand, nil
}
