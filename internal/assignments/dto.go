package assignments

import (
	"time"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
)

// AssignmentDTO is the transport shape of one staffing slot.
type AssignmentDTO struct {
	ID       uuid.UUID            `json:"id"`
	MatchID  uuid.UUID            `json:"match_id"`
	Role     enums.AssignmentRole `json:"role"`
	Position int                  `json:"position"`

	UserID          *uuid.UUID            `json:"user_id,omitempty"`
	PlaceholderType enums.PlaceholderType `json:"placeholder_type"`

	ResponseStatus enums.ResponseStatus `json:"response_status"`
	RespondedAt    *time.Time           `json:"responded_at,omitempty"`
	DeclineReason  *string              `json:"decline_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel converts an assignment row into its transport shape.
func FromModel(a *models.MatchAssignment) *AssignmentDTO {
	if a == nil {
		return nil
	}
	return &AssignmentDTO{
		ID:              a.ID,
		MatchID:         a.MatchID,
		Role:            a.Role,
		Position:        a.Position,
		UserID:          a.UserID,
		PlaceholderType: a.PlaceholderType,
		ResponseStatus:  a.ResponseStatus,
		RespondedAt:     a.RespondedAt,
		DeclineReason:   a.DeclineReason,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// FromModels converts a set of assignment rows.
func FromModels(rows []models.MatchAssignment) []AssignmentDTO {
	out := make([]AssignmentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// AssignInput binds a user to a slot on a match.
type AssignInput struct {
	MatchID  uuid.UUID            `json:"match_id" validate:"required"`
	UserID   uuid.UUID            `json:"user_id" validate:"required"`
	Role     enums.AssignmentRole `json:"role" validate:"required"`
	Position int                  `json:"position" validate:"min=0"`
}

// RespondInput is the assignee's answer.
type RespondInput struct {
	Status enums.ResponseStatus `json:"status" validate:"required"`
	Reason *string              `json:"reason,omitempty"`
}
