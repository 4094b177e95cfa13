package models

import "time"

// SiteSettingsRowID pins the settings table to a single row.
const SiteSettingsRowID = 1

// SiteSettings holds committee-tunable operational knobs. Exactly one row
// exists; services read it through an explicit snapshot per request.
type SiteSettings struct {
	ID                        int       `gorm:"primaryKey"`
	MinCancellationHours      int       `gorm:"column:min_cancellation_hours;not null;default:96"`
	RequireCancellationReason bool      `gorm:"column:require_cancellation_reason;not null;default:true"`
	CreatedAt                 time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                 time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
