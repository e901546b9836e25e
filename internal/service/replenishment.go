package service

import (
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	purchaseOrderKind = "purchase_order"
	purchaseOrderUnit = "units"
)

// replenishmentCandidate is a product whose projected cover is below target.
type replenishmentCandidate struct {
	ProductCode string
	Country     *string
	Payload     domain.PurchaseOrderPayload
}

type demandKey struct {
	product string
	country string
}

func keyOf(product string, country *string) demandKey {
	return demandKey{product: product, country: domain.StringValue(country)}
}

// planReplenishment joins the latest stock with the forecast window and
// returns a candidate for every product whose days of cover is below
// minDaysCover. Products without a positive demand signal are skipped.
func planReplenishment(levels []domain.InventoryLevel, demand []domain.ForecastDemand, horizonDays, minDaysCover int) []replenishmentCandidate {
	byKey := make(map[demandKey]domain.ForecastDemand, len(demand))
	for _, d := range demand {
		byKey[keyOf(d.ProductCode, d.Country)] = d
	}

	minCover := decimal.NewFromInt(int64(minDaysCover))
	candidates := make([]replenishmentCandidate, 0)
	for _, level := range levels {
		forecast := byKey[keyOf(level.ProductCode, level.Country)]

		rate := resolveDailyRate(forecast, horizonDays)
		if !rate.positive() {
			continue
		}

		// stock/avg < minCover, compared without dividing
		stock := decimal.NewFromFloat(level.Stock)
		if !rate.covered(stock).LessThan(rate.target(minCover)) {
			continue
		}

		qty := suggestedQuantity(stock, rate, minCover)
		if qty <= 0 {
			continue
		}

		candidates = append(candidates, replenishmentCandidate{
			ProductCode: level.ProductCode,
			Country:     level.Country,
			Payload: domain.PurchaseOrderPayload{
				Kind:          purchaseOrderKind,
				HorizonDays:   horizonDays,
				MinDaysCover:  minDaysCover,
				Stock:         level.Stock,
				DemandHorizon: round2(decimal.NewFromFloat(forecast.DemandHorizon)),
				AvgDaily:      round2(rate.average()),
				SuggestedQty:  qty,
				Unit:          purchaseOrderUnit,
			},
		})
	}

	return candidates
}

// dailyRate is average daily demand kept as total/days so the fallback
// average stays exact.
type dailyRate struct {
	total decimal.Decimal
	days  decimal.Decimal
}

// resolveDailyRate prefers the mean of non-zero forecast days and falls back
// to the horizon total spread over the window.
func resolveDailyRate(forecast domain.ForecastDemand, horizonDays int) dailyRate {
	if forecast.AvgDaily > 0 {
		return dailyRate{total: decimal.NewFromFloat(forecast.AvgDaily), days: decimal.NewFromInt(1)}
	}
	if forecast.DemandHorizon > 0 && horizonDays > 0 {
		return dailyRate{total: decimal.NewFromFloat(forecast.DemandHorizon), days: decimal.NewFromInt(int64(horizonDays))}
	}
	return dailyRate{total: decimal.Zero, days: decimal.NewFromInt(1)}
}

func (r dailyRate) positive() bool {
	return r.total.IsPositive() && r.days.IsPositive()
}

// covered is stock scaled by the rate's day count.
func (r dailyRate) covered(stock decimal.Decimal) decimal.Decimal {
	return stock.Mul(r.days)
}

// target is minCover days of demand scaled by the rate's day count.
func (r dailyRate) target(minCover decimal.Decimal) decimal.Decimal {
	return minCover.Mul(r.total)
}

func (r dailyRate) average() decimal.Decimal {
	return r.total.Div(r.days)
}

// suggestedQuantity is ceil(minCover*avgDaily - stock), floored at zero.
// It is computed as ceil((minCover*total - stock*days) / days).
func suggestedQuantity(stock decimal.Decimal, rate dailyRate, minCover decimal.Decimal) int {
	shortfall := rate.target(minCover).Sub(rate.covered(stock))
	if !shortfall.IsPositive() {
		return 0
	}
	q, rem := shortfall.QuoRem(rate.days, 0)
	if rem.IsPositive() {
		q = q.Add(decimal.NewFromInt(1))
	}
	return int(q.IntPart())
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
