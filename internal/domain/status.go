package domain

import "strings"

// RecommendationStatus is the lifecycle state of a recommendation row.
type RecommendationStatus string

const (
	StatusDraft     RecommendationStatus = "draft"
	StatusApproved  RecommendationStatus = "approved"
	StatusExecuted  RecommendationStatus = "executed"
	StatusCancelled RecommendationStatus = "cancelled"
)

// RecommendationType classifies the suggested action.
type RecommendationType string

const (
	TypePurchaseOrder RecommendationType = "po"
	TypePrice         RecommendationType = "price"
)

var recommendationStatuses = map[string]RecommendationStatus{
	"draft":     StatusDraft,
	"approved":  StatusApproved,
	"executed":  StatusExecuted,
	"cancelled": StatusCancelled,
}

var recommendationTypes = map[string]RecommendationType{
	"po":    TypePurchaseOrder,
	"price": TypePrice,
}

// ParseRecommendationStatus returns the status for a given label (case-insensitive).
func ParseRecommendationStatus(label string) (RecommendationStatus, bool) {
	status, ok := recommendationStatuses[strings.ToLower(strings.TrimSpace(label))]

	return status, ok
}

// ParseRecommendationType returns the type for a given label (case-insensitive).
func ParseRecommendationType(label string) (RecommendationType, bool) {
	typ, ok := recommendationTypes[strings.ToLower(strings.TrimSpace(label))]

	return typ, ok
}
