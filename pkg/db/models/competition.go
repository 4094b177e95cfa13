package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Competition is a league or cup within a season.
type Competition struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SeasonID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name      string         `gorm:"type:text;not null"`
	AgeGroup  string         `gorm:"column:age_group;type:text"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// CompetitionPhase is a stage of a competition (group stage, playoffs).
type CompetitionPhase struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CompetitionID uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name          string         `gorm:"type:text;not null"`
	Ordinal       int            `gorm:"column:ordinal;not null;default:0"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
