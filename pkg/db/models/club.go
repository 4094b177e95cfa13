package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Club owns teams.
type Club struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string         `gorm:"type:text;not null"`
	ShortName string         `gorm:"column:short_name;type:text"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// Team plays matches for a club within an age group.
type Team struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClubID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name      string         `gorm:"type:text;not null"`
	AgeGroup  string         `gorm:"column:age_group;type:text"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
