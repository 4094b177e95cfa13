package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MatchFeedback is the inspector's written evaluation of a finished match.
type MatchFeedback struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MatchID     uuid.UUID `gorm:"type:uuid;not null;index:idx_feedback_match_inspector,unique,where:deleted_at IS NULL"`
	InspectorID uuid.UUID `gorm:"type:uuid;not null;index:idx_feedback_match_inspector,unique,where:deleted_at IS NULL"`

	RefereeScore   int    `gorm:"column:referee_score;not null"`
	OrganizerScore int    `gorm:"column:organizer_score;not null"`
	Comments       string `gorm:"type:text"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
