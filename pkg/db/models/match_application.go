package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/enums"
)

// MatchApplication is a referee's self-application for an open match.
type MatchApplication struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MatchID uuid.UUID `gorm:"type:uuid;not null;index:idx_application_user_match,unique,where:deleted_at IS NULL"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index:idx_application_user_match,unique,where:deleted_at IS NULL"`

	Status    enums.ApplicationStatus `gorm:"type:text;not null;default:'pending'"`
	Note      *string                 `gorm:"column:note"`
	DecidedBy *uuid.UUID              `gorm:"type:uuid;column:decided_by"`
	DecidedAt *time.Time              `gorm:"column:decided_at"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
