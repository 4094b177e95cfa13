package enums

import "fmt"

// NotificationCategory groups notifications behind per-user delivery gates.
type NotificationCategory string

const (
	NotificationCategoryAssignments     NotificationCategory = "assignments"
	NotificationCategoryMatchChanges    NotificationCategory = "match_changes"
	NotificationCategoryTaxDeclarations NotificationCategory = "tax_declarations"
	NotificationCategoryMedical         NotificationCategory = "medical"
	NotificationCategoryBilling         NotificationCategory = "billing"
	NotificationCategorySystem          NotificationCategory = "system"
)

var validNotificationCategories = []NotificationCategory{
	NotificationCategoryAssignments,
	NotificationCategoryMatchChanges,
	NotificationCategoryTaxDeclarations,
	NotificationCategoryMedical,
	NotificationCategoryBilling,
	NotificationCategorySystem,
}

// IsValid reports whether the value is a known NotificationCategory.
func (n NotificationCategory) IsValid() bool {
	for _, candidate := range validNotificationCategories {
		if candidate == n {
			return true
		}
	}
	return false
}

// AlwaysDelivered reports whether the category bypasses user preferences.
// System notices (lockouts, security) cannot be muted.
func (n NotificationCategory) AlwaysDelivered() bool {
	return n == NotificationCategorySystem
}

// ParseNotificationCategory converts raw input into a NotificationCategory.
func ParseNotificationCategory(value string) (NotificationCategory, error) {
	for _, candidate := range validNotificationCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification category %q", value)
}
