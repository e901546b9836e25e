// internal/domain/models.go
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Recommendation is a persisted suggested action for a product.
type Recommendation struct {
	ID          string               `json:"id" db:"id"`
	AccountID   string               `json:"account_id" db:"account_id"`
	ProductCode *string              `json:"product_code" db:"product_code"`
	Country     *string              `json:"country" db:"country"`
	Type        RecommendationType   `json:"type" db:"type"`
	Status      RecommendationStatus `json:"status" db:"status"`
	Payload     Payload              `json:"payload" db:"payload"`
	Note        *string              `json:"note" db:"note"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
}

// PurchaseOrderPayload captures the inputs and outputs of a replenishment computation.
type PurchaseOrderPayload struct {
	Kind          string  `json:"kind"`
	HorizonDays   int     `json:"horizon_days"`
	MinDaysCover  int     `json:"min_days_cover"`
	Stock         float64 `json:"stock"`
	DemandHorizon float64 `json:"demand_horizon"`
	AvgDaily      float64 `json:"avg_daily"`
	SuggestedQty  int     `json:"suggested_qty"`
	Unit          string  `json:"unit"`
}

// Payload is the raw jsonb payload column. Rows written by other producers
// (price suggestions) keep their own shape, so it is not decoded eagerly.
type Payload json.RawMessage

// NewPayload encodes v as a payload.
func NewPayload(v any) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return Payload(raw), nil
}

// SuggestedQty returns payload.suggested_qty, or 0 when absent or malformed.
func (p Payload) SuggestedQty() float64 {
	if len(p) == 0 {
		return 0
	}
	var fields struct {
		SuggestedQty *float64 `json:"suggested_qty"`
	}
	if err := json.Unmarshal(p, &fields); err != nil || fields.SuggestedQty == nil {
		return 0
	}
	return *fields.SuggestedQty
}

// PurchaseOrder decodes the payload as a purchase order payload.
func (p Payload) PurchaseOrder() (PurchaseOrderPayload, error) {
	var po PurchaseOrderPayload
	if len(p) == 0 {
		return po, nil
	}
	if err := json.Unmarshal(p, &po); err != nil {
		return po, fmt.Errorf("decode purchase order payload: %w", err)
	}
	return po, nil
}

// Value implements driver.Valuer.
func (p Payload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	return string(p), nil
}

// Scan implements sql.Scanner.
func (p *Payload) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = nil
	case []byte:
		*p = append((*p)[:0], v...)
	case string:
		*p = Payload(v)
	default:
		return fmt.Errorf("unsupported payload type %T", src)
	}
	return nil
}

// MarshalJSON keeps the payload nested as an object in API responses.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

// ExecutionLogEntry is an append-only audit record written when a recommendation is executed.
type ExecutionLogEntry struct {
	AccountID   string  `db:"account_id"`
	ProductCode *string `db:"product_code"`
	ActionType  string  `db:"action_type"`
	Payload     Payload `db:"payload"`
	Status      string  `db:"status"`
	Message     string  `db:"message"`
}

// InventoryLevel is the latest known stock of a product in a country.
type InventoryLevel struct {
	AccountID   string  `db:"account_id"`
	ProductCode string  `db:"product_code"`
	Country     *string `db:"country"`
	Stock       float64 `db:"stock"`
}

// ForecastDemand is the forecasted demand of a product over a horizon window.
type ForecastDemand struct {
	AccountID     string  `db:"account_id"`
	ProductCode   string  `db:"product_code"`
	Country       *string `db:"country"`
	DemandHorizon float64 `db:"demand_horizon"`
	AvgDaily      float64 `db:"avg_daily"`
}

// Scope selects the rows a generation run reads and replaces.
type Scope struct {
	AccountID    string
	Country      string
	ProductCodes []string
}

// RecommendationFilter holds the optional equality filters of a listing.
type RecommendationFilter struct {
	Status  RecommendationStatus `json:"status"`
	Type    RecommendationType   `json:"type"`
	Country string               `json:"country"`
}

// GenerateRequest is the input of a recommendation generation.
type GenerateRequest struct {
	ProductIDs   []string `json:"product_ids"`
	HorizonDays  *int     `json:"horizon_days"`
	MinDaysCover *int     `json:"min_days_cover"`
	Country      string   `json:"country"`
}

// GenerateResult reports how many draft recommendations were written.
type GenerateResult struct {
	Inserted int `json:"inserted"`
}

// ExecuteRequest lists the recommendations to execute.
type ExecuteRequest struct {
	IDs  []string `json:"ids"`
	Note string   `json:"note"`
}

// ExecuteResult reports how many recommendations transitioned to executed.
type ExecuteResult struct {
	Executed int `json:"executed"`
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
