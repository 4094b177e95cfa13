package matches

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
)

// MatchDTO is the transport shape of a fixture.
type MatchDTO struct {
	ID            uuid.UUID  `json:"id"`
	CompetitionID uuid.UUID  `json:"competition_id"`
	PhaseID       *uuid.UUID `json:"phase_id,omitempty"`
	SeasonID      uuid.UUID  `json:"season_id"`
	HomeTeamID    uuid.UUID  `json:"home_team_id"`
	AwayTeamID    uuid.UUID  `json:"away_team_id"`
	VenueID       uuid.UUID  `json:"venue_id"`

	KickoffAt time.Time         `json:"kickoff_at"`
	Round     int               `json:"round"`
	Status    enums.MatchStatus `json:"status"`

	RefereeFeeOverride *decimal.Decimal `json:"referee_fee_override,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel converts a match row into its transport shape.
func FromModel(m *models.Match) *MatchDTO {
	if m == nil {
		return nil
	}
	return &MatchDTO{
		ID:                 m.ID,
		CompetitionID:      m.CompetitionID,
		PhaseID:            m.PhaseID,
		SeasonID:           m.SeasonID,
		HomeTeamID:         m.HomeTeamID,
		AwayTeamID:         m.AwayTeamID,
		VenueID:            m.VenueID,
		KickoffAt:          m.KickoffAt,
		Round:              m.Round,
		Status:             m.Status,
		RefereeFeeOverride: m.RefereeFeeOverride,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// FromModels converts a page of match rows.
func FromModels(rows []models.Match) []MatchDTO {
	out := make([]MatchDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// CreateMatchInput carries the fields of a new fixture. Matches start in draft.
type CreateMatchInput struct {
	CompetitionID uuid.UUID  `json:"competition_id" validate:"required"`
	PhaseID       *uuid.UUID `json:"phase_id,omitempty"`
	SeasonID      uuid.UUID  `json:"season_id" validate:"required"`
	HomeTeamID    uuid.UUID  `json:"home_team_id" validate:"required"`
	AwayTeamID    uuid.UUID  `json:"away_team_id" validate:"required"`
	VenueID       uuid.UUID  `json:"venue_id" validate:"required"`
	KickoffAt     time.Time  `json:"kickoff_at" validate:"required"`
	Round         int        `json:"round" validate:"min=0"`

	RefereeFeeOverride *decimal.Decimal `json:"referee_fee_override,omitempty"`
}

// UpdateMatchInput is a partial update; nil fields stay untouched.
type UpdateMatchInput struct {
	PhaseID    *uuid.UUID `json:"phase_id,omitempty"`
	HomeTeamID *uuid.UUID `json:"home_team_id,omitempty"`
	AwayTeamID *uuid.UUID `json:"away_team_id,omitempty"`
	VenueID    *uuid.UUID `json:"venue_id,omitempty"`
	KickoffAt  *time.Time `json:"kickoff_at,omitempty"`
	Round      *int       `json:"round,omitempty"`

	RefereeFeeOverride *decimal.Decimal `json:"referee_fee_override,omitempty"`
}

// ListParams configures match listing filters and pagination.
type ListParams struct {
	Limit  int
	Cursor string

	SeasonID      *uuid.UUID
	CompetitionID *uuid.UUID
	VenueID       *uuid.UUID
	Status        *enums.MatchStatus
	From          *time.Time
	To            *time.Time
}

// ListResult is one page of matches.
type ListResult struct {
	Matches    []MatchDTO `json:"matches"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ApplicationDTO is the transport shape of a referee self-application.
type ApplicationDTO struct {
	ID      uuid.UUID `json:"id"`
	MatchID uuid.UUID `json:"match_id"`
	UserID  uuid.UUID `json:"user_id"`

	Status    enums.ApplicationStatus `json:"status"`
	Note      *string                 `json:"note,omitempty"`
	DecidedBy *uuid.UUID              `json:"decided_by,omitempty"`
	DecidedAt *time.Time              `json:"decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func applicationFromModel(a *models.MatchApplication) *ApplicationDTO {
	if a == nil {
		return nil
	}
	return &ApplicationDTO{
		ID:        a.ID,
		MatchID:   a.MatchID,
		UserID:    a.UserID,
		Status:    a.Status,
		Note:      a.Note,
		DecidedBy: a.DecidedBy,
		DecidedAt: a.DecidedAt,
		CreatedAt: a.CreatedAt,
	}
}

func applicationsFromModels(rows []models.MatchApplication) []ApplicationDTO {
	out := make([]ApplicationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *applicationFromModel(&rows[i]))
	}
	return out
}

// FeedbackDTO is the inspector's evaluation of a finished match.
type FeedbackDTO struct {
	ID          uuid.UUID `json:"id"`
	MatchID     uuid.UUID `json:"match_id"`
	InspectorID uuid.UUID `json:"inspector_id"`

	RefereeScore   int    `json:"referee_score"`
	OrganizerScore int    `json:"organizer_score"`
	Comments       string `json:"comments"`

	CreatedAt time.Time `json:"created_at"`
}

func feedbackFromModel(f *models.MatchFeedback) *FeedbackDTO {
	if f == nil {
		return nil
	}
	return &FeedbackDTO{
		ID:             f.ID,
		MatchID:        f.MatchID,
		InspectorID:    f.InspectorID,
		RefereeScore:   f.RefereeScore,
		OrganizerScore: f.OrganizerScore,
		Comments:       f.Comments,
		CreatedAt:      f.CreatedAt,
	}
}

// SubmitFeedbackInput carries the inspector's scores. Scores use the 1-10
// scale of the federation's evaluation sheet.
type SubmitFeedbackInput struct {
	RefereeScore   int    `json:"referee_score" validate:"required,min=1,max=10"`
	OrganizerScore int    `json:"organizer_score" validate:"required,min=1,max=10"`
	Comments       string `json:"comments" validate:"max=4000"`
}
