// internal/service/autoaction_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eroudini/AiMerchant-sub000/internal/cache"
	"github.com/eroudini/AiMerchant-sub000/internal/config"
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/eroudini/AiMerchant-sub000/internal/metrics"
	"github.com/eroudini/AiMerchant-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultProductLimit      = 200
	defaultMaxAccounts       = 50
	defaultAutoExecuteMaxQty = 50
	defaultForecastTimeout   = 60 * time.Second
)

// ErrorPolicy decides what a run does when one account fails.
type ErrorPolicy int

const (
	// ContinueOnError records the failure on the account and moves on.
	ContinueOnError ErrorPolicy = iota
	// StopOnError aborts the run on the first failing account.
	StopOnError
)

// Forecaster refreshes product forecasts before recommendations are computed.
type Forecaster interface {
	Recompute(ctx context.Context, req domain.RecomputeRequest) (*domain.RecomputeResult, error)
}

// Exporter publishes the purchase orders executed during a run.
type Exporter interface {
	Export(ctx context.Context, accountID, runID string, at time.Time, recs []domain.Recommendation) (string, error)
}

type AutoActionService struct {
	cfg             config.AutoActionConfig
	activity        repository.ActivityRepository
	forecaster      Forecaster
	recommendations *RecommendationService
	locker          cache.RunLocker
	exporter        Exporter
	metrics         *metrics.Metrics
	forecastTimeout time.Duration
	now             func() time.Time
}

type AutoActionOption func(*AutoActionService)

// WithExporter uploads executed purchase orders after each account.
func WithExporter(e Exporter) AutoActionOption {
	return func(s *AutoActionService) { s.exporter = e }
}

func WithRunLocker(l cache.RunLocker) AutoActionOption {
	return func(s *AutoActionService) { s.locker = l }
}

func WithMetrics(m *metrics.Metrics) AutoActionOption {
	return func(s *AutoActionService) { s.metrics = m }
}

func WithForecastTimeout(d time.Duration) AutoActionOption {
	return func(s *AutoActionService) {
		if d > 0 {
			s.forecastTimeout = d
		}
	}
}

func NewAutoActionService(
	cfg config.AutoActionConfig,
	activity repository.ActivityRepository,
	forecaster Forecaster,
	recommendations *RecommendationService,
	opts ...AutoActionOption,
) *AutoActionService {
	s := &AutoActionService{
		cfg:             cfg,
		activity:        activity,
		forecaster:      forecaster,
		recommendations: recommendations,
		locker:          cache.NewNoopRunLocker(),
		forecastTimeout: defaultForecastTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve merges request overrides with the configured defaults.
func (s *AutoActionService) Resolve(params domain.RunParams) domain.RunSettings {
	country := s.cfg.Country
	if params.Country != nil {
		country = *params.Country
	}

	autoExecute := s.cfg.AutoExecute
	if params.AutoExecute != nil {
		autoExecute = *params.AutoExecute
	}

	maxQty := orDefault(s.cfg.AutoExecuteMaxQty, defaultAutoExecuteMaxQty)
	if params.AutoExecuteMaxQty != nil {
		maxQty = *params.AutoExecuteMaxQty
	}
	if maxQty < 0 {
		maxQty = 0
	}

	return domain.RunSettings{
		AccountID:         strings.TrimSpace(params.AccountID),
		Country:           strings.TrimSpace(country),
		HorizonDays:       atLeastOne(params.HorizonDays, orDefault(s.cfg.HorizonDays, defaultHorizonDays)),
		MinDaysCover:      atLeastOne(params.MinDaysCover, orDefault(s.cfg.MinDaysCover, defaultMinDaysCover)),
		ProductLimit:      atLeastOne(params.ProductLimit, orDefault(s.cfg.ProductLimit, defaultProductLimit)),
		AutoExecute:       autoExecute,
		AutoExecuteMaxQty: maxQty,
	}
}

// Run processes the target accounts one after another. With ContinueOnError
// a failing account is reported in its result and the run goes on; with
// StopOnError the partial result is returned together with the failure.
// Cancelling ctx stops the run before the next account.
func (s *AutoActionService) Run(ctx context.Context, settings domain.RunSettings, trigger domain.Trigger, policy ErrorPolicy) (*domain.RunResult, error) {
	started := s.now()
	result := &domain.RunResult{
		OK:                true,
		RunID:             uuid.NewString(),
		Trigger:           trigger,
		HorizonDays:       settings.HorizonDays,
		MinDaysCover:      settings.MinDaysCover,
		Country:           domain.StringPtr(settings.Country),
		ProductLimit:      settings.ProductLimit,
		AutoExecute:       settings.AutoExecute,
		AutoExecuteMaxQty: settings.AutoExecuteMaxQty,
		Results:           make([]domain.AccountResult, 0),
		StartedAt:         started,
	}

	s.metrics.RunStarted(trigger)
	logger := log.With().Str("run_id", result.RunID).Str("trigger", string(trigger)).Logger()

	finish := func() {
		result.FinishedAt = s.now()
		s.metrics.RunFinished(trigger, result.FinishedAt.Sub(started))
	}

	accounts, err := s.targetAccounts(ctx, settings.AccountID)
	if err != nil {
		result.OK = false
		finish()
		return result, fmt.Errorf("resolve accounts: %w", err)
	}

	logger.Info().
		Int("accounts", len(accounts)).
		Str("country", settings.Country).
		Int("horizon_days", settings.HorizonDays).
		Int("min_days_cover", settings.MinDaysCover).
		Bool("auto_execute", settings.AutoExecute).
		Msg("auto-action run started")

	for _, accountID := range accounts {
		if err := ctx.Err(); err != nil {
			result.OK = false
			finish()
			logger.Warn().Err(err).Int("processed", len(result.Results)).Msg("auto-action run cancelled")
			return result, err
		}

		res, err := s.processAccount(ctx, result.RunID, trigger, settings, accountID)
		if err != nil {
			res.Status = domain.AccountStatusError
			res.Error = err.Error()
			result.OK = false
			logger.Error().Err(err).Str("account_id", accountID).Msg("auto-action failed for account")
		}
		result.Results = append(result.Results, res)
		s.metrics.AccountProcessed(res.Status)

		if err != nil && policy == StopOnError {
			finish()
			return result, fmt.Errorf("account %s: %w", accountID, err)
		}
	}

	finish()
	logger.Info().
		Int("accounts", len(result.Results)).
		Bool("ok", result.OK).
		Dur("elapsed", result.FinishedAt.Sub(started)).
		Msg("auto-action run finished")

	return result, nil
}

func (s *AutoActionService) targetAccounts(ctx context.Context, accountID string) ([]string, error) {
	if accountID != "" {
		return []string{accountID}, nil
	}
	return s.activity.ActiveAccounts(ctx, orDefault(s.cfg.MaxAccounts, defaultMaxAccounts))
}

func (s *AutoActionService) processAccount(ctx context.Context, runID string, trigger domain.Trigger, settings domain.RunSettings, accountID string) (domain.AccountResult, error) {
	res := domain.AccountResult{
		AccountID: accountID,
		Status:    domain.AccountStatusOK,
		Country:   domain.StringPtr(settings.Country),
	}

	token, acquired, err := s.locker.TryLock(ctx, accountID)
	if err != nil {
		return res, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		res.Status = domain.AccountStatusSkipped
		res.Error = domain.ErrRunInProgress.Error()
		log.Warn().Str("run_id", runID).Str("account_id", accountID).Msg("account locked by another run, skipping")
		return res, nil
	}
	defer func() {
		// released on a fresh context so a cancelled run still frees the lock
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, accountID, token); err != nil {
			log.Warn().Err(err).Str("account_id", accountID).Msg("failed to release run lock")
		}
	}()

	products, err := s.activity.ActiveProducts(ctx, accountID, settings.Country, settings.ProductLimit)
	if err != nil {
		return res, fmt.Errorf("discover products: %w", err)
	}
	res.Products = len(products)
	if len(products) == 0 {
		res.Status = domain.AccountStatusNoProducts
		return res, nil
	}

	forecastCtx, cancel := context.WithTimeout(ctx, s.forecastTimeout)
	_, err = s.forecaster.Recompute(forecastCtx, domain.RecomputeRequest{
		AccountID:   accountID,
		ProductIDs:  products,
		HorizonDays: settings.HorizonDays,
		Country:     domain.StringPtr(settings.Country),
	})
	cancel()
	if err != nil {
		return res, fmt.Errorf("recompute forecast: %w", err)
	}

	horizon, minCover := settings.HorizonDays, settings.MinDaysCover
	generated, err := s.recommendations.Generate(ctx, accountID, domain.GenerateRequest{
		HorizonDays:  &horizon,
		MinDaysCover: &minCover,
		Country:      settings.Country,
	})
	if err != nil {
		return res, fmt.Errorf("generate recommendations: %w", err)
	}
	res.Inserted = generated.Inserted

	if !settings.AutoExecute {
		return res, nil
	}

	executed, err := s.autoExecute(ctx, accountID, trigger, settings)
	if err != nil {
		return res, err
	}
	res.Executed = len(executed)

	if s.exporter != nil && len(executed) > 0 {
		key, err := s.exporter.Export(ctx, accountID, runID, s.now(), executed)
		if err != nil {
			// executions are committed; a missing export is recoverable
			log.Error().Err(err).Str("run_id", runID).Str("account_id", accountID).Msg("purchase order export failed")
		} else {
			res.ExportKey = key
		}
	}

	return res, nil
}

// autoExecute executes the account's draft purchase orders whose suggested
// quantity is within (0, AutoExecuteMaxQty].
func (s *AutoActionService) autoExecute(ctx context.Context, accountID string, trigger domain.Trigger, settings domain.RunSettings) ([]domain.Recommendation, error) {
	drafts, err := s.recommendations.pendingDrafts(ctx, accountID, settings.Country)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	ids := selectAutoExecutable(drafts, settings.AutoExecuteMaxQty)
	if len(ids) == 0 {
		return nil, nil
	}

	executed, err := s.recommendations.execute(ctx, accountID, domain.ExecuteRequest{
		IDs:  ids,
		Note: autoExecuteNote(trigger, settings.AutoExecuteMaxQty),
	}, SourceAuto)
	if err != nil {
		return nil, fmt.Errorf("auto-execute: %w", err)
	}
	return executed, nil
}

// autoExecuteNote documents the cap on executed rows. Runs started by a
// person are marked manual.
func autoExecuteNote(trigger domain.Trigger, maxQty int) string {
	if trigger == domain.TriggerHTTP {
		return fmt.Sprintf("manual-auto-exec<=%d", maxQty)
	}
	return fmt.Sprintf("auto-exec<=%d", maxQty)
}

func selectAutoExecutable(drafts []domain.Recommendation, maxQty int) []string {
	ids := make([]string, 0, len(drafts))
	for _, d := range drafts {
		qty := d.Payload.SuggestedQty()
		if qty > 0 && qty <= float64(maxQty) {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// IsRunInProgress reports whether every account of the run was skipped
// because another run held its lock.
func IsRunInProgress(result *domain.RunResult) bool {
	if result == nil || len(result.Results) == 0 {
		return false
	}
	for _, r := range result.Results {
		if r.Status != domain.AccountStatusSkipped {
			return false
		}
	}
	return true
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
