package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jaradmin/jar-backend/pkg/enums"
)

// MonthlyStatement rolls up one user's fees and approved travel costs for a
// calendar month.
type MonthlyStatement struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_statement_user_month,unique"`
	Year   int       `gorm:"column:year;not null;index:idx_statement_user_month,unique"`
	Month  int       `gorm:"column:month;not null;index:idx_statement_user_month,unique"`

	Status      enums.StatementStatus `gorm:"type:text;not null;default:'draft'"`
	Total       decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	FinalizedAt *time.Time            `gorm:"column:finalized_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// StatementLine is a single item on a monthly statement.
type StatementLine struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StatementID uuid.UUID  `gorm:"type:uuid;not null;index"`
	MatchID     *uuid.UUID `gorm:"type:uuid;column:match_id"`

	Kind   string          `gorm:"type:text;not null"`
	Label  string          `gorm:"type:text;not null"`
	Amount decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
