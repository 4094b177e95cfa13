package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jaradmin/jar-backend/pkg/enums"
)

// MatchFee is the computed payout for one assignment.
type MatchFee struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AssignmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	MatchID      uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`

	BillingType enums.BillingType `gorm:"column:billing_type;type:text;not null"`
	NetAmount   decimal.Decimal   `gorm:"column:net_amount;type:numeric(12,2);not null"`
	GrossAmount decimal.Decimal   `gorm:"column:gross_amount;type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
