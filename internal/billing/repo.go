package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
)

// Repository persists fee structures, match fees, travel claims and monthly
// statements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	SaveFeeStructure(ctx context.Context, structure *models.FeeStructure) error
	FindFeeStructureByCompetition(ctx context.Context, competitionID uuid.UUID) (*models.FeeStructure, error)
	ListFeeStructures(ctx context.Context) ([]models.FeeStructure, error)
	DeleteFeeStructure(ctx context.Context, structure *models.FeeStructure) error

	CreateFee(ctx context.Context, fee *models.MatchFee) error
	FindFeeByAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.MatchFee, error)
	ListFeesForUserMonth(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MatchFee, error)

	CreateTravelCost(ctx context.Context, cost *models.TravelCost) error
	SaveTravelCost(ctx context.Context, cost *models.TravelCost) error
	FindTravelCost(ctx context.Context, id uuid.UUID) (*models.TravelCost, error)
	ListTravelCosts(ctx context.Context, userID *uuid.UUID, status *enums.TravelCostStatus) ([]models.TravelCost, error)
	ListApprovedTravelForUserMonth(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.TravelCost, error)

	FindStatement(ctx context.Context, userID uuid.UUID, year, month int) (*models.MonthlyStatement, error)
	CreateStatement(ctx context.Context, statement *models.MonthlyStatement) error
	SaveStatement(ctx context.Context, statement *models.MonthlyStatement) error
	ReplaceLines(ctx context.Context, statementID uuid.UUID, lines []models.StatementLine) error
	ListLines(ctx context.Context, statementID uuid.UUID) ([]models.StatementLine, error)
	ListStatements(ctx context.Context, userID *uuid.UUID, year *int) ([]models.MonthlyStatement, error)

	GetAssignment(ctx context.Context, id uuid.UUID) (*models.MatchAssignment, error)
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) SaveFeeStructure(ctx context.Context, structure *models.FeeStructure) error {
	return r.db.WithContext(ctx).Save(structure).Error
}

func (r *repositoryImpl) FindFeeStructureByCompetition(ctx context.Context, competitionID uuid.UUID) (*models.FeeStructure, error) {
	var structure models.FeeStructure
	if err := r.db.WithContext(ctx).First(&structure, "competition_id = ?", competitionID).Error; err != nil {
		return nil, err
	}
	return &structure, nil
}

func (r *repositoryImpl) ListFeeStructures(ctx context.Context) ([]models.FeeStructure, error) {
	var rows []models.FeeStructure
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) DeleteFeeStructure(ctx context.Context, structure *models.FeeStructure) error {
	return r.db.WithContext(ctx).Delete(structure).Error
}

func (r *repositoryImpl) CreateFee(ctx context.Context, fee *models.MatchFee) error {
	return r.db.WithContext(ctx).Create(fee).Error
}

func (r *repositoryImpl) FindFeeByAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.MatchFee, error) {
	var fee models.MatchFee
	err := r.db.WithContext(ctx).First(&fee, "assignment_id = ?", assignmentID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &fee, nil
}

// ListFeesForUserMonth resolves the fees whose match kicked off inside the
// given window.
func (r *repositoryImpl) ListFeesForUserMonth(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MatchFee, error) {
	var rows []models.MatchFee
	err := r.db.WithContext(ctx).
		Joins("JOIN matches ON matches.id = match_fees.match_id").
		Where("match_fees.user_id = ?", userID).
		Where("matches.kickoff_at >= ? AND matches.kickoff_at < ?", from, to).
		Order("matches.kickoff_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CreateTravelCost(ctx context.Context, cost *models.TravelCost) error {
	return r.db.WithContext(ctx).Create(cost).Error
}

func (r *repositoryImpl) SaveTravelCost(ctx context.Context, cost *models.TravelCost) error {
	return r.db.WithContext(ctx).Save(cost).Error
}

func (r *repositoryImpl) FindTravelCost(ctx context.Context, id uuid.UUID) (*models.TravelCost, error) {
	var cost models.TravelCost
	if err := r.db.WithContext(ctx).First(&cost, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cost, nil
}

func (r *repositoryImpl) ListTravelCosts(ctx context.Context, userID *uuid.UUID, status *enums.TravelCostStatus) ([]models.TravelCost, error) {
	query := r.db.WithContext(ctx)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.TravelCost
	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListApprovedTravelForUserMonth(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.TravelCost, error) {
	var rows []models.TravelCost
	err := r.db.WithContext(ctx).
		Joins("JOIN matches ON matches.id = travel_costs.match_id").
		Where("travel_costs.user_id = ? AND travel_costs.status = ?", userID, enums.TravelCostStatusApproved).
		Where("matches.kickoff_at >= ? AND matches.kickoff_at < ?", from, to).
		Order("matches.kickoff_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) FindStatement(ctx context.Context, userID uuid.UUID, year, month int) (*models.MonthlyStatement, error) {
	var statement models.MonthlyStatement
	err := r.db.WithContext(ctx).
		First(&statement, "user_id = ? AND year = ? AND month = ?", userID, year, month).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &statement, nil
}

func (r *repositoryImpl) CreateStatement(ctx context.Context, statement *models.MonthlyStatement) error {
	return r.db.WithContext(ctx).Create(statement).Error
}

func (r *repositoryImpl) SaveStatement(ctx context.Context, statement *models.MonthlyStatement) error {
	return r.db.WithContext(ctx).Save(statement).Error
}

// ReplaceLines swaps the statement's lines in one transaction.
func (r *repositoryImpl) ReplaceLines(ctx context.Context, statementID uuid.UUID, lines []models.StatementLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("statement_id = ?", statementID).Delete(&models.StatementLine{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}

func (r *repositoryImpl) ListLines(ctx context.Context, statementID uuid.UUID) ([]models.StatementLine, error) {
	var rows []models.StatementLine
	err := r.db.WithContext(ctx).
		Where("statement_id = ?", statementID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListStatements(ctx context.Context, userID *uuid.UUID, year *int) ([]models.MonthlyStatement, error) {
	query := r.db.WithContext(ctx)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if year != nil {
		query = query.Where("year = ?", *year)
	}
	var rows []models.MonthlyStatement
	err := query.Order("year DESC, month DESC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) GetAssignment(ctx context.Context, id uuid.UUID) (*models.MatchAssignment, error) {
	var assignment models.MatchAssignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repositoryImpl) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *repositoryImpl) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
