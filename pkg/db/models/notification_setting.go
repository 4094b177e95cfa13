package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/pkg/enums"
)

// NotificationSetting stores per-user delivery gates, one row per user.
// A missing row means every category is on.
type NotificationSetting struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	NotifyAssignments     bool `gorm:"column:notify_assignments;not null;default:true"`
	NotifyMatchChanges    bool `gorm:"column:notify_match_changes;not null;default:true"`
	NotifyTaxDeclarations bool `gorm:"column:notify_tax_declarations;not null;default:true"`
	NotifyMedical         bool `gorm:"column:notify_medical;not null;default:true"`
	NotifyBilling         bool `gorm:"column:notify_billing;not null;default:true"`

	EmailEnabled bool `gorm:"column:email_enabled;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Allows reports whether the category should be delivered to this user.
// System notices ignore the gates.
func (s NotificationSetting) Allows(category enums.NotificationCategory) bool {
	if category.AlwaysDelivered() {
		return true
	}
	switch category {
	case enums.NotificationCategoryAssignments:
		return s.NotifyAssignments
	case enums.NotificationCategoryMatchChanges:
		return s.NotifyMatchChanges
	case enums.NotificationCategoryTaxDeclarations:
		return s.NotifyTaxDeclarations
	case enums.NotificationCategoryMedical:
		return s.NotifyMedical
	case enums.NotificationCategoryBilling:
		return s.NotifyBilling
	default:
		return true
	}
}
