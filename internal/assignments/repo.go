package assignments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
)

// Repository persists match assignments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assignment *models.MatchAssignment) error
	Save(ctx context.Context, assignment *models.MatchAssignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MatchAssignment, error)
	FindSlot(ctx context.Context, matchID uuid.UUID, role string, position int) (*models.MatchAssignment, error)
	ListByMatch(ctx context.Context, matchID uuid.UUID) ([]models.MatchAssignment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, upcomingOnly bool) ([]models.MatchAssignment, error)
	GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	SaveMatch(ctx context.Context, match *models.Match) error
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an assignments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, assignment *models.MatchAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repositoryImpl) Save(ctx context.Context, assignment *models.MatchAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.MatchAssignment, error) {
	var assignment models.MatchAssignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindSlot returns the live row for a position. Declined rows are history and
// never block a new assignment.
func (r *repositoryImpl) FindSlot(ctx context.Context, matchID uuid.UUID, role string, position int) (*models.MatchAssignment, error) {
	var assignment models.MatchAssignment
	err := r.db.WithContext(ctx).
		First(&assignment, "match_id = ? AND role = ? AND position = ? AND response_status <> ?",
			matchID, role, position, enums.ResponseStatusDeclined).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *repositoryImpl) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]models.MatchAssignment, error) {
	var rows []models.MatchAssignment
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("role ASC, position ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, upcomingOnly bool) ([]models.MatchAssignment, error) {
	query := r.db.WithContext(ctx).
		Model(&models.MatchAssignment{}).
		Where("match_assignments.user_id = ?", userID)
	if upcomingOnly {
		query = query.
			Joins("JOIN matches ON matches.id = match_assignments.match_id").
			Where("matches.kickoff_at > NOW()")
	}

	var rows []models.MatchAssignment
	err := query.Order("match_assignments.created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) GetMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, "id = ?", matchID).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *repositoryImpl) SaveMatch(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Save(match).Error
}

func (r *repositoryImpl) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
