package declarations

import (
	"time"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
)

// DeclarationDTO is the transport shape accountants work with.
type DeclarationDTO struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	MatchID      uuid.UUID  `json:"match_id"`
	AssignmentID *uuid.UUID `json:"assignment_id,omitempty"`

	Status      enums.DeclarationStatus `json:"status"`
	BillingType enums.BillingType       `json:"billing_type"`

	DeclaredAt       *time.Time `json:"declared_at,omitempty"`
	DeclaredDate     *time.Time `json:"declared_date,omitempty"`
	DeclaredTime     *string    `json:"declared_time,omitempty"`
	DeclaredReferees []string   `json:"declared_referees,omitempty"`

	AssignmentDeleted bool `json:"assignment_deleted"`
	Declined          bool `json:"declined"`

	// EKHODeadline is only set for EKHO declarations.
	EKHODeadline *time.Time `json:"ekho_deadline,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel converts a declaration row into its transport shape.
func FromModel(d *models.TaxDeclaration) *DeclarationDTO {
	if d == nil {
		return nil
	}
	dto := &DeclarationDTO{
		ID:                d.ID,
		UserID:            d.UserID,
		MatchID:           d.MatchID,
		AssignmentID:      d.AssignmentID,
		Status:            d.Status,
		BillingType:       d.BillingType,
		DeclaredAt:        d.DeclaredAt,
		DeclaredDate:      d.DeclaredDate,
		DeclaredTime:      d.DeclaredTime,
		DeclaredReferees:  d.DeclaredReferees,
		AssignmentDeleted: d.AssignmentDeleted,
		Declined:          d.Declined,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	if d.BillingType == enums.BillingTypeEKHO && d.DeclaredDate != nil {
		deadline := models.EKHODeadline(*d.DeclaredDate)
		dto.EKHODeadline = &deadline
	}
	return dto
}

// FromModels converts a page of declaration rows.
func FromModels(rows []models.TaxDeclaration) []DeclarationDTO {
	out := make([]DeclarationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
