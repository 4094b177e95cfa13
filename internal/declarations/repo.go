package declarations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	"github.com/jaradmin/jar-backend/pkg/pagination"
)

// Repository persists tax declarations and resolves the live match facts the
// drift detector compares against.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, decl *models.TaxDeclaration) error
	Save(ctx context.Context, decl *models.TaxDeclaration) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.TaxDeclaration, error)
	FindByUserMatch(ctx context.Context, userID, matchID uuid.UUID) (*models.TaxDeclaration, error)
	ListByMatch(ctx context.Context, matchID uuid.UUID) ([]models.TaxDeclaration, error)
	List(ctx context.Context, params listDeclarationsParams) ([]models.TaxDeclaration, *pagination.Cursor, error)
	MatchFacts(ctx context.Context, matchID uuid.UUID) (*MatchFacts, error)
	VenueName(ctx context.Context, venueID uuid.UUID) (string, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a declarations repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listDeclarationsParams struct {
	Limit       int
	Cursor      *pagination.Cursor
	Status      *enums.DeclarationStatus
	BillingType *enums.BillingType
	UserID      *uuid.UUID
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, decl *models.TaxDeclaration) error {
	return r.db.WithContext(ctx).Create(decl).Error
}

func (r *repositoryImpl) Save(ctx context.Context, decl *models.TaxDeclaration) error {
	return r.db.WithContext(ctx).Save(decl).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.TaxDeclaration, error) {
	var decl models.TaxDeclaration
	if err := r.db.WithContext(ctx).First(&decl, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &decl, nil
}

func (r *repositoryImpl) FindByUserMatch(ctx context.Context, userID, matchID uuid.UUID) (*models.TaxDeclaration, error) {
	var decl models.TaxDeclaration
	err := r.db.WithContext(ctx).
		First(&decl, "user_id = ? AND match_id = ?", userID, matchID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &decl, nil
}

func (r *repositoryImpl) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]models.TaxDeclaration, error) {
	var rows []models.TaxDeclaration
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) List(ctx context.Context, params listDeclarationsParams) ([]models.TaxDeclaration, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.TaxDeclaration{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.BillingType != nil {
		query = query.Where("billing_type = ?", *params.BillingType)
	}
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.TaxDeclaration
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

// MatchFacts resolves the live comparison facts: kickoff date and time, venue,
// and the ordered names of users currently bound to confirmation-counting
// slots.
func (r *repositoryImpl) MatchFacts(ctx context.Context, matchID uuid.UUID) (*MatchFacts, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, "id = ?", matchID).Error; err != nil {
		return nil, err
	}

	venueName, err := r.VenueName(ctx, match.VenueID)
	if err != nil {
		return nil, err
	}

	var assignments []models.MatchAssignment
	err = r.db.WithContext(ctx).
		Where("match_id = ? AND user_id IS NOT NULL", matchID).
		Where("role IN ?", []enums.AssignmentRole{enums.AssignmentRoleReferee, enums.AssignmentRoleReserveReferee}).
		Where("response_status <> ?", enums.ResponseStatusDeclined).
		Order("role ASC, position ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	referees := make([]string, 0, len(assignments))
	for _, a := range assignments {
		var user models.User
		if err := r.db.WithContext(ctx).First(&user, "id = ?", *a.UserID).Error; err != nil {
			return nil, err
		}
		referees = append(referees, user.FullName())
	}

	kickoff := match.KickoffAt.UTC()
	return &MatchFacts{
		Date:      kickoff.Truncate(24 * time.Hour),
		Kickoff:   kickoff.Format("15:04"),
		VenueID:   match.VenueID,
		VenueName: venueName,
		Referees:  referees,
	}, nil
}

func (r *repositoryImpl) VenueName(ctx context.Context, venueID uuid.UUID) (string, error) {
	var venue models.Venue
	if err := r.db.WithContext(ctx).First(&venue, "id = ?", venueID).Error; err != nil {
		return "", err
	}
	return venue.Name, nil
}
