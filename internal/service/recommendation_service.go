// internal/service/recommendation_service.go
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/eroudini/AiMerchant-sub000/internal/cache"
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/eroudini/AiMerchant-sub000/internal/metrics"
	"github.com/eroudini/AiMerchant-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultHorizonDays  = 14
	defaultMinDaysCover = 7

	// SourceAPI and SourceAuto label who executed a recommendation.
	SourceAPI  = "api"
	SourceAuto = "auto"
	SourceCLI  = "cli"
)

type RecommendationService struct {
	recs      repository.RecommendationRepository
	inventory repository.InventoryRepository
	cache     cache.RecommendationCache
	metrics   *metrics.Metrics
}

func NewRecommendationService(recs repository.RecommendationRepository, inventory repository.InventoryRepository, cacheImpl cache.RecommendationCache, m *metrics.Metrics) *RecommendationService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRecommendationCache()
	}
	return &RecommendationService{recs: recs, inventory: inventory, cache: cacheImpl, metrics: m}
}

// Generate computes purchase-order drafts for the account and replaces the
// drafts previously generated for the same scope.
func (s *RecommendationService) Generate(ctx context.Context, accountID string, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, domain.ErrAccountRequired
	}

	horizon := atLeastOne(req.HorizonDays, defaultHorizonDays)
	minCover := atLeastOne(req.MinDaysCover, defaultMinDaysCover)
	scope := domain.Scope{
		AccountID:    accountID,
		Country:      strings.TrimSpace(req.Country),
		ProductCodes: req.ProductIDs,
	}

	levels, err := s.inventory.LatestInventory(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	demand, err := s.inventory.ForecastDemand(ctx, scope, horizon)
	if err != nil {
		return nil, fmt.Errorf("load forecast: %w", err)
	}

	candidates := planReplenishment(levels, demand, horizon, minCover)
	if len(candidates) == 0 {
		log.Debug().
			Str("account_id", accountID).
			Str("country", scope.Country).
			Int("inventory_rows", len(levels)).
			Msg("no replenishment needed")
		return &domain.GenerateResult{Inserted: 0}, nil
	}

	recs := make([]domain.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		payload, err := domain.NewPayload(c.Payload)
		if err != nil {
			return nil, err
		}
		note := fmt.Sprintf("Replenishment recommended: %d units for %d days of cover", c.Payload.SuggestedQty, minCover)
		recs = append(recs, domain.Recommendation{
			ID:          uuid.NewString(),
			AccountID:   accountID,
			ProductCode: domain.StringPtr(c.ProductCode),
			Country:     c.Country,
			Type:        domain.TypePurchaseOrder,
			Status:      domain.StatusDraft,
			Payload:     payload,
			Note:        &note,
		})
	}

	inserted, err := s.recs.ReplaceDrafts(ctx, scope, recs)
	if err != nil {
		return nil, fmt.Errorf("replace draft recommendations: %w", err)
	}
	s.metrics.RecommendationsGenerated(inserted)
	s.invalidate(ctx, accountID)

	log.Info().
		Str("account_id", accountID).
		Str("country", scope.Country).
		Int("horizon_days", horizon).
		Int("min_days_cover", minCover).
		Int("inserted", inserted).
		Msg("replenishment recommendations generated")

	return &domain.GenerateResult{Inserted: inserted}, nil
}

// List returns the newest recommendations of the account. Unknown status or
// type filters are rejected.
func (s *RecommendationService) List(ctx context.Context, accountID string, status, typ, country string) ([]domain.Recommendation, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, domain.ErrAccountRequired
	}

	var filter domain.RecommendationFilter
	if status != "" {
		parsed, ok := domain.ParseRecommendationStatus(status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, status)
		}
		filter.Status = parsed
	}
	if typ != "" {
		parsed, ok := domain.ParseRecommendationType(typ)
		if !ok {
			return nil, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidArgument, typ)
		}
		filter.Type = parsed
	}
	filter.Country = strings.TrimSpace(country)

	if cached, ok, err := s.cache.GetList(ctx, accountID, filter); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("recommendation cache read failed")
	} else if ok {
		return cached, nil
	}

	recs, err := s.recs.List(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetList(ctx, accountID, filter, recs); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("recommendation cache write failed")
	}

	return recs, nil
}

// pendingDrafts reads the draft purchase orders straight from storage.
func (s *RecommendationService) pendingDrafts(ctx context.Context, accountID, country string) ([]domain.Recommendation, error) {
	return s.recs.List(ctx, accountID, domain.RecommendationFilter{
		Status:  domain.StatusDraft,
		Type:    domain.TypePurchaseOrder,
		Country: country,
	})
}

// Execute transitions the draft recommendations among req.IDs to executed.
func (s *RecommendationService) Execute(ctx context.Context, accountID string, req domain.ExecuteRequest, source string) (*domain.ExecuteResult, error) {
	executed, err := s.execute(ctx, accountID, req, source)
	if err != nil {
		return nil, err
	}
	return &domain.ExecuteResult{Executed: len(executed)}, nil
}

func (s *RecommendationService) execute(ctx context.Context, accountID string, req domain.ExecuteRequest, source string) ([]domain.Recommendation, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, domain.ErrAccountRequired
	}
	if len(req.IDs) == 0 {
		return nil, nil
	}
	if source == "" {
		source = SourceAPI
	}

	executed, err := s.recs.Execute(ctx, accountID, req.IDs, strings.TrimSpace(req.Note), "executed via "+source)
	if err != nil {
		return nil, fmt.Errorf("execute recommendations: %w", err)
	}
	s.metrics.RecommendationsExecuted(source, len(executed))
	if len(executed) > 0 {
		s.invalidate(ctx, accountID)
	}

	log.Info().
		Str("account_id", accountID).
		Str("source", source).
		Int("requested", len(req.IDs)).
		Int("executed", len(executed)).
		Msg("recommendations executed")

	return executed, nil
}

func (s *RecommendationService) invalidate(ctx context.Context, accountID string) {
	if err := s.cache.InvalidateAccount(ctx, accountID); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("recommendation cache invalidation failed")
	}
}

func atLeastOne(v *int, def int) int {
	n := def
	if v != nil {
		n = *v
	}
	if n < 1 {
		return 1
	}
	return n
}
