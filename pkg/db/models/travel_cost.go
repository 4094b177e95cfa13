package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/enums"
)

// TravelCost is a referee's per-match travel claim.
type TravelCost struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index"`
	MatchID uuid.UUID `gorm:"type:uuid;not null;index"`

	DistanceKM decimal.Decimal `gorm:"column:distance_km;type:numeric(8,1);not null"`
	RatePerKM  decimal.Decimal `gorm:"column:rate_per_km;type:numeric(8,2);not null"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`

	Status     enums.TravelCostStatus `gorm:"type:text;not null;default:'submitted'"`
	ReceiptID  *uuid.UUID             `gorm:"type:uuid;column:receipt_id"`
	ReviewedBy *uuid.UUID             `gorm:"type:uuid;column:reviewed_by"`
	ReviewedAt *time.Time             `gorm:"column:reviewed_at"`
	ReviewNote *string                `gorm:"column:review_note"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
