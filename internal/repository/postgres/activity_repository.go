package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type activityRepository struct {
	db *DB
}

func NewActivityRepository(db *DB) *activityRepository {
	return &activityRepository{db: db}
}

// ActiveAccounts lists distinct accounts with at least one sales row.
func (r *activityRepository) ActiveAccounts(ctx context.Context, limit int) ([]string, error) {
	builder := psql.
		Select("DISTINCT account_id").
		From("sales_daily").
		Where(sq.NotEq{"account_id": nil}).
		OrderBy("account_id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active accounts query: %w", err)
	}

	accounts := make([]string, 0)
	if err := sqlx.SelectContext(ctx, r.db, &accounts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list active accounts: %w", err)
	}
	return accounts, nil
}

// ActiveProducts lists distinct product codes sold by an account,
// optionally restricted to a country.
func (r *activityRepository) ActiveProducts(ctx context.Context, accountID, country string, limit int) ([]string, error) {
	where := sq.And{
		sq.Eq{"account_id": accountID},
		sq.NotEq{"product_code": nil},
	}
	if country != "" {
		where = append(where, sq.Eq{"country": country})
	}

	builder := psql.
		Select("DISTINCT product_code").
		From("sales_daily").
		Where(where).
		OrderBy("product_code")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active products query: %w", err)
	}

	products := make([]string, 0)
	if err := sqlx.SelectContext(ctx, r.db, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}
	return products, nil
}
