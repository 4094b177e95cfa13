package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KnowledgePost is a knowledge-base entry. Drafts with a scheduled_at in the
// past are published by the scheduler.
type KnowledgePost struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null"`

	Title string `gorm:"type:text;not null"`
	Body  string `gorm:"type:text;not null"`

	IsDraft     bool       `gorm:"column:is_draft;not null;default:true"`
	ScheduledAt *time.Time `gorm:"column:scheduled_at;index"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
