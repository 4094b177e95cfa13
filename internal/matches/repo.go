package matches

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	"github.com/jaradmin/jar-backend/pkg/pagination"
)

// Repository persists fixtures, applications and inspector feedback.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, match *models.Match) error
	Save(ctx context.Context, match *models.Match) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	List(ctx context.Context, params listMatchesParams) ([]models.Match, *pagination.Cursor, error)
	ListByAssignee(ctx context.Context, userID uuid.UUID, from *time.Time) ([]models.Match, error)
	AssignedUserIDs(ctx context.Context, matchID uuid.UUID) ([]uuid.UUID, error)
	ListWithOpenSlotsOn(ctx context.Context, day time.Time) ([]models.Match, error)

	CreateApplication(ctx context.Context, app *models.MatchApplication) error
	SaveApplication(ctx context.Context, app *models.MatchApplication) error
	FindApplication(ctx context.Context, id uuid.UUID) (*models.MatchApplication, error)
	ListApplications(ctx context.Context, matchID uuid.UUID) ([]models.MatchApplication, error)

	CreateFeedback(ctx context.Context, feedback *models.MatchFeedback) error
	ListFeedback(ctx context.Context, matchID uuid.UUID) ([]models.MatchFeedback, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a matches repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listMatchesParams struct {
	Limit  int
	Cursor *pagination.Cursor

	SeasonID      *uuid.UUID
	CompetitionID *uuid.UUID
	VenueID       *uuid.UUID
	Status        *enums.MatchStatus
	From          *time.Time
	To            *time.Time
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

func (r *repositoryImpl) Save(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Save(match).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listMatchesParams) ([]models.Match, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Match{})
	if params.SeasonID != nil {
		query = query.Where("season_id = ?", *params.SeasonID)
	}
	if params.CompetitionID != nil {
		query = query.Where("competition_id = ?", *params.CompetitionID)
	}
	if params.VenueID != nil {
		query = query.Where("venue_id = ?", *params.VenueID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.From != nil {
		query = query.Where("kickoff_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("kickoff_at < ?", *params.To)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Match
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

// ListByAssignee resolves the fixtures the user is currently bound to,
// soonest first.
func (r *repositoryImpl) ListByAssignee(ctx context.Context, userID uuid.UUID, from *time.Time) ([]models.Match, error) {
	query := r.db.WithContext(ctx).
		Joins("JOIN match_assignments ON match_assignments.match_id = matches.id AND match_assignments.deleted_at IS NULL").
		Where("match_assignments.user_id = ?", userID)
	if from != nil {
		query = query.Where("matches.kickoff_at >= ?", *from)
	}

	var rows []models.Match
	err := query.Order("matches.kickoff_at ASC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) AssignedUserIDs(ctx context.Context, matchID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.MatchAssignment{}).
		Where("match_id = ? AND user_id IS NOT NULL", matchID).
		Distinct().
		Pluck("user_id", &ids).Error
	return ids, err
}

// ListWithOpenSlotsOn finds fixtures kicking off on the given day that still
// carry missing or needed slots.
func (r *repositoryImpl) ListWithOpenSlotsOn(ctx context.Context, day time.Time) ([]models.Match, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var rows []models.Match
	err := r.db.WithContext(ctx).
		Distinct("matches.*").
		Joins("JOIN match_assignments ON match_assignments.match_id = matches.id AND match_assignments.deleted_at IS NULL").
		Where("matches.kickoff_at >= ? AND matches.kickoff_at < ?", start, end).
		Where("matches.status NOT IN ?", []enums.MatchStatus{enums.MatchStatusDraft, enums.MatchStatusCancelled}).
		Where("match_assignments.placeholder_type IN ?", []enums.PlaceholderType{enums.PlaceholderMissing, enums.PlaceholderNeeded}).
		Where("match_assignments.response_status <> ?", enums.ResponseStatusDeclined).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CreateApplication(ctx context.Context, app *models.MatchApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *repositoryImpl) SaveApplication(ctx context.Context, app *models.MatchApplication) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *repositoryImpl) FindApplication(ctx context.Context, id uuid.UUID) (*models.MatchApplication, error) {
	var app models.MatchApplication
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *repositoryImpl) ListApplications(ctx context.Context, matchID uuid.UUID) ([]models.MatchApplication, error) {
	var rows []models.MatchApplication
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CreateFeedback(ctx context.Context, feedback *models.MatchFeedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *repositoryImpl) ListFeedback(ctx context.Context, matchID uuid.UUID) ([]models.MatchFeedback, error) {
	var rows []models.MatchFeedback
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
