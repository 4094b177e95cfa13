package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/enums"
)

// Match is a scheduled fixture.
type Match struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CompetitionID uuid.UUID  `gorm:"type:uuid;not null;index"`
	PhaseID       *uuid.UUID `gorm:"type:uuid;index"`
	SeasonID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	HomeTeamID    uuid.UUID  `gorm:"type:uuid;not null"`
	AwayTeamID    uuid.UUID  `gorm:"type:uuid;not null"`
	VenueID       uuid.UUID  `gorm:"type:uuid;not null;index"`

	KickoffAt time.Time         `gorm:"column:kickoff_at;not null;index"`
	Round     int               `gorm:"column:round;not null;default:0"`
	Status    enums.MatchStatus `gorm:"type:text;not null;default:'draft'"`

	// Optional per-match override of the competition fee structure.
	RefereeFeeOverride *decimal.Decimal `gorm:"column:referee_fee_override;type:numeric(12,2)"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// KickoffDate returns the kickoff day truncated to midnight UTC.
func (m Match) KickoffDate() time.Time {
	return m.KickoffAt.UTC().Truncate(24 * time.Hour)
}
