package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
)

// FeeStructureInput sets the per-match net amounts for a competition.
type FeeStructureInput struct {
	CompetitionID uuid.UUID       `json:"competition_id" validate:"required"`
	RefereeFee    decimal.Decimal `json:"referee_fee" validate:"required"`
	ReserveFee    decimal.Decimal `json:"reserve_fee" validate:"required"`
	InspectorFee  decimal.Decimal `json:"inspector_fee" validate:"required"`
}

// MatchFeeDTO is the computed payout for one assignment.
type MatchFeeDTO struct {
	ID           uuid.UUID `json:"id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	MatchID      uuid.UUID `json:"match_id"`
	UserID       uuid.UUID `json:"user_id"`

	BillingType enums.BillingType `json:"billing_type"`
	NetAmount   decimal.Decimal   `json:"net_amount"`
	GrossAmount decimal.Decimal   `json:"gross_amount"`

	CreatedAt time.Time `json:"created_at"`
}

func feeFromModel(f *models.MatchFee) *MatchFeeDTO {
	if f == nil {
		return nil
	}
	return &MatchFeeDTO{
		ID:           f.ID,
		AssignmentID: f.AssignmentID,
		MatchID:      f.MatchID,
		UserID:       f.UserID,
		BillingType:  f.BillingType,
		NetAmount:    f.NetAmount,
		GrossAmount:  f.GrossAmount,
		CreatedAt:    f.CreatedAt,
	}
}

// SubmitTravelCostInput is a referee's travel claim for one match.
type SubmitTravelCostInput struct {
	MatchID    uuid.UUID       `json:"match_id" validate:"required"`
	DistanceKM decimal.Decimal `json:"distance_km" validate:"required"`
	RatePerKM  decimal.Decimal `json:"rate_per_km" validate:"required"`
	ReceiptID  *uuid.UUID      `json:"receipt_id,omitempty"`
}

// TravelCostDTO is the transport shape of a travel claim.
type TravelCostDTO struct {
	ID      uuid.UUID `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	MatchID uuid.UUID `json:"match_id"`

	DistanceKM decimal.Decimal `json:"distance_km"`
	RatePerKM  decimal.Decimal `json:"rate_per_km"`
	Amount     decimal.Decimal `json:"amount"`

	Status     enums.TravelCostStatus `json:"status"`
	ReceiptID  *uuid.UUID             `json:"receipt_id,omitempty"`
	ReviewedBy *uuid.UUID             `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time             `json:"reviewed_at,omitempty"`
	ReviewNote *string                `json:"review_note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func travelCostFromModel(c *models.TravelCost) *TravelCostDTO {
	if c == nil {
		return nil
	}
	return &TravelCostDTO{
		ID:         c.ID,
		UserID:     c.UserID,
		MatchID:    c.MatchID,
		DistanceKM: c.DistanceKM,
		RatePerKM:  c.RatePerKM,
		Amount:     c.Amount,
		Status:     c.Status,
		ReceiptID:  c.ReceiptID,
		ReviewedBy: c.ReviewedBy,
		ReviewedAt: c.ReviewedAt,
		ReviewNote: c.ReviewNote,
		CreatedAt:  c.CreatedAt,
	}
}

func travelCostsFromModels(rows []models.TravelCost) []TravelCostDTO {
	out := make([]TravelCostDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *travelCostFromModel(&rows[i]))
	}
	return out
}

// StatementDTO is one user's monthly rollup.
type StatementDTO struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Year   int       `json:"year"`
	Month  int       `json:"month"`

	Status      enums.StatementStatus `json:"status"`
	Total       decimal.Decimal       `json:"total"`
	FinalizedAt *time.Time            `json:"finalized_at,omitempty"`

	Lines []StatementLineDTO `json:"lines,omitempty"`
}

// StatementLineDTO is a single item on a statement.
type StatementLineDTO struct {
	ID      uuid.UUID  `json:"id"`
	MatchID *uuid.UUID `json:"match_id,omitempty"`

	Kind   string          `json:"kind"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

func statementFromModel(s *models.MonthlyStatement, lines []models.StatementLine) *StatementDTO {
	if s == nil {
		return nil
	}
	dto := &StatementDTO{
		ID:          s.ID,
		UserID:      s.UserID,
		Year:        s.Year,
		Month:       s.Month,
		Status:      s.Status,
		Total:       s.Total,
		FinalizedAt: s.FinalizedAt,
	}
	for i := range lines {
		line := lines[i]
		dto.Lines = append(dto.Lines, StatementLineDTO{
			ID:      line.ID,
			MatchID: line.MatchID,
			Kind:    line.Kind,
			Label:   line.Label,
			Amount:  line.Amount,
		})
	}
	return dto
}
