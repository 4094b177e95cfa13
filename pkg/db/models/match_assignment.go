package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/enums"
)

// MatchAssignment is one staffing slot on a match. A declined row keeps its
// user link on record; a fresh row at the same (match, role, position) carries
// the open position, which is why the unique index excludes declined rows.
type MatchAssignment struct {
	ID       uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MatchID  uuid.UUID            `gorm:"type:uuid;not null;index:idx_assignment_slot,unique,where:deleted_at IS NULL AND response_status <> 'declined'"`
	Role     enums.AssignmentRole `gorm:"type:text;not null;index:idx_assignment_slot,unique,where:deleted_at IS NULL AND response_status <> 'declined'"`
	Position int                  `gorm:"column:position;not null;default:0;index:idx_assignment_slot,unique,where:deleted_at IS NULL AND response_status <> 'declined'"`

	UserID          *uuid.UUID            `gorm:"type:uuid;index"`
	PlaceholderType enums.PlaceholderType `gorm:"column:placeholder_type;type:text;not null;default:'szukseges'"`

	ResponseStatus enums.ResponseStatus `gorm:"column:response_status;type:text;not null;default:'pending'"`
	RespondedAt    *time.Time           `gorm:"column:responded_at"`
	DeclineReason  *string              `gorm:"column:decline_reason"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// IsFilled reports whether a user currently holds the slot.
func (a MatchAssignment) IsFilled() bool {
	return a.UserID != nil
}

// IsSatisfied reports whether the slot blocks full confirmation of its match.
func (a MatchAssignment) IsSatisfied() bool {
	if a.UserID != nil {
		return a.ResponseStatus == enums.ResponseStatusAccepted
	}
	return !a.PlaceholderType.NeedsStaffing()
}
