// internal/repository/recommendation_repository.go
package repository

import (
	"context"

	"github.com/eroudini/AiMerchant-sub000/internal/domain"
)

type RecommendationRepository interface {
	List(ctx context.Context, accountID string, filter domain.RecommendationFilter) ([]domain.Recommendation, error)
	ReplaceDrafts(ctx context.Context, scope domain.Scope, recs []domain.Recommendation) (int, error)
	Execute(ctx context.Context, accountID string, ids []string, note, message string) ([]domain.Recommendation, error)
}

type InventoryRepository interface {
	LatestInventory(ctx context.Context, scope domain.Scope) ([]domain.InventoryLevel, error)
	ForecastDemand(ctx context.Context, scope domain.Scope, horizonDays int) ([]domain.ForecastDemand, error)
}

// ActivityRepository discovers what to process from recorded sales.
type ActivityRepository interface {
	ActiveAccounts(ctx context.Context, limit int) ([]string, error)
	ActiveProducts(ctx context.Context, accountID, country string, limit int) ([]string, error)
}
