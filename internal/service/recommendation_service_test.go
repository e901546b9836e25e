package service

import (
	"context"
	"testing"

	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func seededStore() *memoryStore {
	return &memoryStore{
		levels: []domain.InventoryLevel{
			level("SKU1", "FR", 10),
			level("SKU2", "FR", 20),
			level("SKU1", "DE", 1),
		},
		demand: []domain.ForecastDemand{
			forecast("SKU1", "FR", 28, 2),
			forecast("SKU2", "FR", 28, 2),
			forecast("SKU1", "DE", 14, 1),
		},
	}
}

func TestGenerateWritesDraftPurchaseOrders(t *testing.T) {
	store := seededStore()
	svc := NewRecommendationService(store, store, nil, nil)

	res, err := svc.Generate(context.Background(), "acc-1", domain.GenerateRequest{Country: "FR"})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	drafts := store.drafts("acc-1", "FR")
	require.Len(t, drafts, 1)
	rec := drafts[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "SKU1", domain.StringValue(rec.ProductCode))
	assert.Equal(t, domain.TypePurchaseOrder, rec.Type)
	assert.Equal(t, domain.StatusDraft, rec.Status)
	assert.Equal(t, "Replenishment recommended: 4 units for 7 days of cover", domain.StringValue(rec.Note))

	po, err := rec.Payload.PurchaseOrder()
	require.NoError(t, err)
	assert.Equal(t, 4, po.SuggestedQty)
	assert.Equal(t, 14, po.HorizonDays)
	assert.Equal(t, 7, po.MinDaysCover)
	assert.Equal(t, 10.0, po.Stock)
}

func TestGenerateIsIdempotentForUnchangedInputs(t *testing.T) {
	store := seededStore()
	svc := NewRecommendationService(store, store, nil, nil)
	req := domain.GenerateRequest{Country: "FR"}

	_, err := svc.Generate(context.Background(), "acc-1", req)
	require.NoError(t, err)
	first := store.drafts("acc-1", "FR")

	_, err = svc.Generate(context.Background(), "acc-1", req)
	require.NoError(t, err)
	second := store.drafts("acc-1", "FR")

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID, "drafts are recreated")
	assert.JSONEq(t, string(first[0].Payload), string(second[0].Payload))
}

func TestGenerateDoesNotTouchOtherCountries(t *testing.T) {
	store := seededStore()
	svc := NewRecommendationService(store, store, nil, nil)

	_, err := svc.Generate(context.Background(), "acc-1", domain.GenerateRequest{Country: "DE"})
	require.NoError(t, err)
	de := store.drafts("acc-1", "DE")
	require.Len(t, de, 1)

	_, err = svc.Generate(context.Background(), "acc-1", domain.GenerateRequest{Country: "FR"})
	require.NoError(t, err)

	assert.Equal(t, de, store.drafts("acc-1", "DE"))
	assert.Len(t, store.drafts("acc-1", "FR"), 1)
}

func TestGenerateWithoutCandidatesKeepsExistingDrafts(t *testing.T) {
	store := seededStore()
	store.add(domain.Recommendation{ID: "old", AccountID: "acc-1", ProductCode: domain.StringPtr("SKU2"), Country: domain.StringPtr("FR"), Type: domain.TypePurchaseOrder, Status: domain.StatusDraft})
	store.replaceErr = errBoom
	svc := NewRecommendationService(store, store, nil, nil)

	res, err := svc.Generate(context.Background(), "acc-1", domain.GenerateRequest{
		Country:    "FR",
		ProductIDs: []string{"SKU2"},
	})

	require.NoError(t, err, "storage must not be called without candidates")
	assert.Equal(t, 0, res.Inserted)
	assert.Len(t, store.drafts("acc-1", "FR"), 1)
}

func TestGenerateFloorsParameters(t *testing.T) {
	store := &memoryStore{
		levels: []domain.InventoryLevel{level("SKU1", "", 0)},
		demand: []domain.ForecastDemand{forecast("SKU1", "", 3, 0)},
	}
	svc := NewRecommendationService(store, store, nil, nil)

	res, err := svc.Generate(context.Background(), "acc-1", domain.GenerateRequest{
		HorizonDays:  intPtr(0),
		MinDaysCover: intPtr(-4),
	})

	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)
	po, err := store.drafts("acc-1", "")[0].Payload.PurchaseOrder()
	require.NoError(t, err)
	assert.Equal(t, 1, po.HorizonDays)
	assert.Equal(t, 1, po.MinDaysCover)
	assert.Equal(t, 3, po.SuggestedQty)
}

func TestGeneratePropagatesStorageErrors(t *testing.T) {
	store := seededStore()
	store.replaceErr = errBoom
	svc := NewRecommendationService(store, store, nil, nil)

	_, err := svc.Generate(context.Background(), "acc-1", domain.GenerateRequest{})

	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
}

func TestGenerateRequiresAccount(t *testing.T) {
	store := seededStore()
	svc := NewRecommendationService(store, store, nil, nil)

	_, err := svc.Generate(context.Background(), " ", domain.GenerateRequest{})

	assert.ErrorIs(t, err, domain.ErrAccountRequired)
}

func TestListRejectsUnknownFilters(t *testing.T) {
	store := seededStore()
	svc := NewRecommendationService(store, store, nil, nil)

	_, err := svc.List(context.Background(), "acc-1", "pending", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.List(context.Background(), "acc-1", "", "discount", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	recs, err := svc.List(context.Background(), "acc-1", "DRAFT", "PO", "FR")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestExecuteOnlyTransitionsDrafts(t *testing.T) {
	store := &memoryStore{}
	for _, r := range []struct {
		id     string
		status domain.RecommendationStatus
	}{
		{"d1", domain.StatusDraft},
		{"d2", domain.StatusDraft},
		{"e1", domain.StatusExecuted},
		{"c1", domain.StatusCancelled},
	} {
		store.add(domain.Recommendation{ID: r.id, AccountID: "acc-1", Type: domain.TypePurchaseOrder, Status: r.status, Note: domain.StringPtr("generated")})
	}
	svc := NewRecommendationService(store, store, nil, nil)

	res, err := svc.Execute(context.Background(), "acc-1", domain.ExecuteRequest{
		IDs:  []string{"d1", "d2", "e1", "c1"},
		Note: "approved by buyer",
	}, SourceAPI)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Executed)

	all, err := svc.List(context.Background(), "acc-1", "", "", "")
	require.NoError(t, err)
	byID := map[string]domain.Recommendation{}
	for _, r := range all {
		byID[r.ID] = r
	}
	assert.Equal(t, domain.StatusExecuted, byID["d1"].Status)
	assert.Equal(t, "generated | approved by buyer", domain.StringValue(byID["d1"].Note))
	assert.Equal(t, domain.StatusExecuted, byID["e1"].Status)
	assert.Equal(t, domain.StatusCancelled, byID["c1"].Status)
	assert.Equal(t, "generated", domain.StringValue(byID["c1"].Note))
}

func TestExecuteWithoutIDsIsNoop(t *testing.T) {
	store := &memoryStore{}
	svc := NewRecommendationService(store, store, nil, nil)

	res, err := svc.Execute(context.Background(), "acc-1", domain.ExecuteRequest{}, SourceAPI)

	require.NoError(t, err)
	assert.Equal(t, 0, res.Executed)
	assert.Zero(t, store.executions)
}

func TestExecutePropagatesStorageErrors(t *testing.T) {
	store := &memoryStore{executeErr: errBoom}
	svc := NewRecommendationService(store, store, nil, nil)

	_, err := svc.Execute(context.Background(), "acc-1", domain.ExecuteRequest{IDs: []string{"x"}}, SourceAPI)

	assert.ErrorIs(t, err, errBoom)
}
