package enums

import "fmt"

// TravelCostStatus tracks a travel claim through review.
type TravelCostStatus string

const (
	TravelCostStatusSubmitted TravelCostStatus = "submitted"
	TravelCostStatusApproved  TravelCostStatus = "approved"
	TravelCostStatusRejected  TravelCostStatus = "rejected"
)

var validTravelCostStatuses = []TravelCostStatus{
	TravelCostStatusSubmitted,
	TravelCostStatusApproved,
	TravelCostStatusRejected,
}

// IsValid reports whether the value is a known TravelCostStatus.
func (t TravelCostStatus) IsValid() bool {
	for _, candidate := range validTravelCostStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTravelCostStatus converts raw input into a TravelCostStatus.
func ParseTravelCostStatus(value string) (TravelCostStatus, error) {
	for _, candidate := range validTravelCostStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid travel cost status %q", value)
}

// StatementStatus tracks a monthly statement.
type StatementStatus string

const (
	StatementStatusDraft StatementStatus = "draft"
	StatementStatusFinal StatementStatus = "final"
)

// IsValid reports whether the value is a known StatementStatus.
func (s StatementStatus) IsValid() bool {
	return s == StatementStatusDraft || s == StatementStatusFinal
}
