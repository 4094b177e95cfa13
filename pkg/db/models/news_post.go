package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewsPost is a portal news article, optionally scheduled for later publish.
type NewsPost struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null"`

	Title string `gorm:"type:text;not null"`
	Body  string `gorm:"type:text;not null"`

	IsPublished bool       `gorm:"column:is_published;not null;default:false"`
	ScheduledAt *time.Time `gorm:"column:scheduled_at;index"`
	PublishedAt *time.Time `gorm:"column:published_at"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
