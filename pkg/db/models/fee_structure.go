package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeStructure sets the per-match net amounts for a competition.
type FeeStructure struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CompetitionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	RefereeFee   decimal.Decimal `gorm:"column:referee_fee;type:numeric(12,2);not null"`
	ReserveFee   decimal.Decimal `gorm:"column:reserve_fee;type:numeric(12,2);not null"`
	InspectorFee decimal.Decimal `gorm:"column:inspector_fee;type:numeric(12,2);not null"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
