package service

import (
	"testing"

	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func level(product, country string, stock float64) domain.InventoryLevel {
	return domain.InventoryLevel{AccountID: "acc-1", ProductCode: product, Country: domain.StringPtr(country), Stock: stock}
}

func forecast(product, country string, total, avg float64) domain.ForecastDemand {
	return domain.ForecastDemand{AccountID: "acc-1", ProductCode: product, Country: domain.StringPtr(country), DemandHorizon: total, AvgDaily: avg}
}

func TestPlanReplenishmentCoverageThreshold(t *testing.T) {
	tests := []struct {
		name    string
		stock   float64
		avg     float64
		minDays int
		wantQty int
		wantHit bool
	}{
		{name: "below cover", stock: 10, avg: 2, minDays: 7, wantQty: 4, wantHit: true},
		{name: "above cover", stock: 20, avg: 2, minDays: 7},
		{name: "exactly at cover", stock: 14, avg: 2, minDays: 7},
		{name: "empty shelf", stock: 0, avg: 1.5, minDays: 7, wantQty: 11, wantHit: true},
		{name: "fractional demand rounds up", stock: 3, avg: 0.35, minDays: 10, wantQty: 1, wantHit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planReplenishment(
				[]domain.InventoryLevel{level("SKU1", "FR", tt.stock)},
				[]domain.ForecastDemand{forecast("SKU1", "FR", tt.avg*14, tt.avg)},
				14, tt.minDays,
			)
			if !tt.wantHit {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantQty, got[0].Payload.SuggestedQty)
		})
	}
}

func TestPlanReplenishmentFallsBackToHorizonAverage(t *testing.T) {
	got := planReplenishment(
		[]domain.InventoryLevel{level("SKU1", "", 5)},
		[]domain.ForecastDemand{forecast("SKU1", "", 28, 0)},
		14, 7,
	)

	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Payload.AvgDaily)
	assert.Equal(t, 9, got[0].Payload.SuggestedQty)
	assert.Nil(t, got[0].Country)
}

func TestPlanReplenishmentHorizonAverageIsExact(t *testing.T) {
	// 3 units over 7 days is 3/7 per day, which has no finite decimal form.
	tests := []struct {
		name    string
		stock   float64
		wantQty int
		wantHit bool
	}{
		{name: "empty shelf", stock: 0, wantQty: 3, wantHit: true},
		{name: "exactly at cover", stock: 3},
		{name: "one unit short", stock: 2, wantQty: 1, wantHit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planReplenishment(
				[]domain.InventoryLevel{level("SKU1", "FR", tt.stock)},
				[]domain.ForecastDemand{forecast("SKU1", "FR", 3, 0)},
				7, 7,
			)
			if !tt.wantHit {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantQty, got[0].Payload.SuggestedQty)
			assert.Equal(t, 0.43, got[0].Payload.AvgDaily)
		})
	}
}

func TestPlanReplenishmentSkipsProductsWithoutDemand(t *testing.T) {
	got := planReplenishment(
		[]domain.InventoryLevel{
			level("SKU1", "FR", 0),
			level("SKU2", "FR", 0),
			level("SKU3", "FR", 0),
		},
		[]domain.ForecastDemand{
			forecast("SKU1", "FR", 0, 0),
			forecast("SKU2", "FR", -3, -1),
		},
		14, 7,
	)

	assert.Empty(t, got)
}

func TestPlanReplenishmentMatchesOnProductAndCountry(t *testing.T) {
	got := planReplenishment(
		[]domain.InventoryLevel{level("SKU1", "FR", 1), level("SKU1", "DE", 1)},
		[]domain.ForecastDemand{forecast("SKU1", "DE", 70, 5)},
		14, 7,
	)

	require.Len(t, got, 1)
	assert.Equal(t, "DE", domain.StringValue(got[0].Country))
	assert.Equal(t, 34, got[0].Payload.SuggestedQty)
}

func TestPlanReplenishmentRoundsPayloadButNotQuantity(t *testing.T) {
	got := planReplenishment(
		[]domain.InventoryLevel{level("SKU1", "FR", 0)},
		[]domain.ForecastDemand{forecast("SKU1", "FR", 12.345, 1.004)},
		14, 10,
	)

	require.Len(t, got, 1)
	payload := got[0].Payload
	assert.Equal(t, 1.0, payload.AvgDaily)
	assert.Equal(t, 12.35, payload.DemandHorizon)
	// 10 * 1.004 = 10.04 rounds up to 11; the rounded average would give 10.
	assert.Equal(t, 11, payload.SuggestedQty)
	assert.Equal(t, "purchase_order", payload.Kind)
	assert.Equal(t, "units", payload.Unit)
	assert.Equal(t, 14, payload.HorizonDays)
	assert.Equal(t, 10, payload.MinDaysCover)
}
