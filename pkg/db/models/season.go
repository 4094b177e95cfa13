package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Season groups competitions into a playing year.
type Season struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string         `gorm:"type:text;not null;uniqueIndex"`
	StartDate time.Time      `gorm:"column:start_date;not null"`
	EndDate   time.Time      `gorm:"column:end_date;not null"`
	IsActive  bool           `gorm:"column:is_active;not null;default:false"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
