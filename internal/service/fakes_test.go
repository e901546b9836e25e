package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eroudini/AiMerchant-sub000/internal/domain"
)

// memoryStore is an in-memory recommendation, inventory and forecast store.
type memoryStore struct {
	mu         sync.Mutex
	levels     []domain.InventoryLevel
	demand     []domain.ForecastDemand
	recs       []domain.Recommendation
	replaceErr error
	executeErr error
	executions int
}

func inScope(scope domain.Scope, accountID, product string, country *string) bool {
	if accountID != scope.AccountID {
		return false
	}
	if scope.Country != "" && domain.StringValue(country) != scope.Country {
		return false
	}
	if len(scope.ProductCodes) == 0 {
		return true
	}
	for _, code := range scope.ProductCodes {
		if code == product {
			return true
		}
	}
	return false
}

func (m *memoryStore) LatestInventory(ctx context.Context, scope domain.Scope) ([]domain.InventoryLevel, error) {
	var out []domain.InventoryLevel
	for _, l := range m.levels {
		if inScope(scope, l.AccountID, l.ProductCode, l.Country) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memoryStore) ForecastDemand(ctx context.Context, scope domain.Scope, horizonDays int) ([]domain.ForecastDemand, error) {
	var out []domain.ForecastDemand
	for _, d := range m.demand {
		if inScope(scope, d.AccountID, d.ProductCode, d.Country) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memoryStore) List(ctx context.Context, accountID string, filter domain.RecommendationFilter) ([]domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Recommendation, 0)
	for _, r := range m.recs {
		if r.AccountID != accountID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.Country != "" && domain.StringValue(r.Country) != filter.Country {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryStore) ReplaceDrafts(ctx context.Context, scope domain.Scope, recs []domain.Recommendation) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.replaceErr != nil {
		return 0, m.replaceErr
	}

	kept := m.recs[:0:0]
	for _, r := range m.recs {
		stale := r.Status == domain.StatusDraft &&
			r.Type == domain.TypePurchaseOrder &&
			inScope(scope, r.AccountID, domain.StringValue(r.ProductCode), r.Country)
		if !stale {
			kept = append(kept, r)
		}
	}
	m.recs = append(kept, recs...)
	return len(recs), nil
}

func (m *memoryStore) Execute(ctx context.Context, accountID string, ids []string, note, message string) ([]domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executions++
	if m.executeErr != nil {
		return nil, m.executeErr
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var executed []domain.Recommendation
	for i, r := range m.recs {
		if r.AccountID != accountID || !wanted[r.ID] || r.Status != domain.StatusDraft {
			continue
		}
		m.recs[i].Status = domain.StatusExecuted
		if note != "" {
			if r.Note == nil || *r.Note == "" {
				m.recs[i].Note = domain.StringPtr(note)
			} else {
				m.recs[i].Note = domain.StringPtr(*r.Note + " | " + note)
			}
		}
		executed = append(executed, m.recs[i])
	}
	return executed, nil
}

func (m *memoryStore) drafts(accountID, country string) []domain.Recommendation {
	recs, _ := m.List(context.Background(), accountID, domain.RecommendationFilter{
		Status:  domain.StatusDraft,
		Type:    domain.TypePurchaseOrder,
		Country: country,
	})
	return recs
}

func (m *memoryStore) add(rec domain.Recommendation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
}

type fakeActivity struct {
	accounts    []string
	products    map[string][]string
	accountsErr error
}

func (f *fakeActivity) ActiveAccounts(ctx context.Context, limit int) ([]string, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	if len(f.accounts) > limit {
		return f.accounts[:limit], nil
	}
	return f.accounts, nil
}

func (f *fakeActivity) ActiveProducts(ctx context.Context, accountID, country string, limit int) ([]string, error) {
	products := f.products[accountID]
	if len(products) > limit {
		return products[:limit], nil
	}
	return products, nil
}

type fakeForecaster struct {
	mu       sync.Mutex
	failFor  map[string]error
	requests []domain.RecomputeRequest
}

func (f *fakeForecaster) Recompute(ctx context.Context, req domain.RecomputeRequest) (*domain.RecomputeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err := f.failFor[req.AccountID]; err != nil {
		return nil, err
	}
	return &domain.RecomputeResult{RunID: "forecast-" + req.AccountID}, nil
}

type fakeLocker struct {
	held map[string]bool
}

func (f *fakeLocker) TryLock(ctx context.Context, accountID string) (string, bool, error) {
	if f.held[accountID] {
		return "", false, nil
	}
	return "token-" + accountID, true, nil
}

func (f *fakeLocker) Release(ctx context.Context, accountID, token string) error {
	return nil
}

type fakeExporter struct {
	batches map[string][]domain.Recommendation
	err     error
}

func (f *fakeExporter) Export(ctx context.Context, accountID, runID string, at time.Time, recs []domain.Recommendation) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.batches == nil {
		f.batches = map[string][]domain.Recommendation{}
	}
	f.batches[accountID] = recs
	return "exports/" + accountID + "/" + runID + ".csv", nil
}

var errBoom = errors.New("boom")
