package matches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/db/models"
)

// ReferenceRepository persists the scheduling reference data: seasons,
// competitions and their phases, venues, clubs and teams.
type ReferenceRepository interface {
	WithTx(tx *gorm.DB) ReferenceRepository

	CreateSeason(ctx context.Context, season *models.Season) error
	SaveSeason(ctx context.Context, season *models.Season) error
	FindSeason(ctx context.Context, id uuid.UUID) (*models.Season, error)
	ListSeasons(ctx context.Context) ([]models.Season, error)
	DeleteSeason(ctx context.Context, season *models.Season) error
	DeactivateSeasons(ctx context.Context, except uuid.UUID) error

	CreateCompetition(ctx context.Context, competition *models.Competition) error
	SaveCompetition(ctx context.Context, competition *models.Competition) error
	FindCompetition(ctx context.Context, id uuid.UUID) (*models.Competition, error)
	ListCompetitions(ctx context.Context, seasonID *uuid.UUID) ([]models.Competition, error)
	DeleteCompetition(ctx context.Context, competition *models.Competition) error

	CreatePhase(ctx context.Context, phase *models.CompetitionPhase) error
	SavePhase(ctx context.Context, phase *models.CompetitionPhase) error
	FindPhase(ctx context.Context, id uuid.UUID) (*models.CompetitionPhase, error)
	ListPhases(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionPhase, error)
	DeletePhase(ctx context.Context, phase *models.CompetitionPhase) error

	CreateVenue(ctx context.Context, venue *models.Venue) error
	SaveVenue(ctx context.Context, venue *models.Venue) error
	FindVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error)
	ListVenues(ctx context.Context) ([]models.Venue, error)
	DeleteVenue(ctx context.Context, venue *models.Venue) error

	CreateClub(ctx context.Context, club *models.Club) error
	SaveClub(ctx context.Context, club *models.Club) error
	FindClub(ctx context.Context, id uuid.UUID) (*models.Club, error)
	ListClubs(ctx context.Context) ([]models.Club, error)
	DeleteClub(ctx context.Context, club *models.Club) error

	CreateTeam(ctx context.Context, team *models.Team) error
	SaveTeam(ctx context.Context, team *models.Team) error
	FindTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListTeams(ctx context.Context, clubID *uuid.UUID) ([]models.Team, error)
	DeleteTeam(ctx context.Context, team *models.Team) error
}

type referenceRepositoryImpl struct {
	db *gorm.DB
}

// NewReferenceRepository returns a reference-data repository bound to the
// provided database.
func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepositoryImpl{db: db}
}

func (r *referenceRepositoryImpl) WithTx(tx *gorm.DB) ReferenceRepository {
	if tx == nil {
		return r
	}
	return &referenceRepositoryImpl{db: tx}
}

func (r *referenceRepositoryImpl) CreateSeason(ctx context.Context, season *models.Season) error {
	return r.db.WithContext(ctx).Create(season).Error
}

func (r *referenceRepositoryImpl) SaveSeason(ctx context.Context, season *models.Season) error {
	return r.db.WithContext(ctx).Save(season).Error
}

func (r *referenceRepositoryImpl) FindSeason(ctx context.Context, id uuid.UUID) (*models.Season, error) {
	var season models.Season
	if err := r.db.WithContext(ctx).First(&season, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &season, nil
}

func (r *referenceRepositoryImpl) ListSeasons(ctx context.Context) ([]models.Season, error) {
	var rows []models.Season
	err := r.db.WithContext(ctx).Order("start_date DESC").Find(&rows).Error
	return rows, err
}

// DeactivateSeasons clears the active flag everywhere but the given season, so
// exactly one season stays active.
func (r *referenceRepositoryImpl) DeactivateSeasons(ctx context.Context, except uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Season{}).
		Where("id <> ? AND is_active = TRUE", except).
		Update("is_active", false).Error
}

func (r *referenceRepositoryImpl) CreateCompetition(ctx context.Context, competition *models.Competition) error {
	return r.db.WithContext(ctx).Create(competition).Error
}

func (r *referenceRepositoryImpl) SaveCompetition(ctx context.Context, competition *models.Competition) error {
	return r.db.WithContext(ctx).Save(competition).Error
}

func (r *referenceRepositoryImpl) FindCompetition(ctx context.Context, id uuid.UUID) (*models.Competition, error) {
	var competition models.Competition
	if err := r.db.WithContext(ctx).First(&competition, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &competition, nil
}

func (r *referenceRepositoryImpl) ListCompetitions(ctx context.Context, seasonID *uuid.UUID) ([]models.Competition, error) {
	query := r.db.WithContext(ctx)
	if seasonID != nil {
		query = query.Where("season_id = ?", *seasonID)
	}
	var rows []models.Competition
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *referenceRepositoryImpl) CreatePhase(ctx context.Context, phase *models.CompetitionPhase) error {
	return r.db.WithContext(ctx).Create(phase).Error
}

func (r *referenceRepositoryImpl) SavePhase(ctx context.Context, phase *models.CompetitionPhase) error {
	return r.db.WithContext(ctx).Save(phase).Error
}

func (r *referenceRepositoryImpl) FindPhase(ctx context.Context, id uuid.UUID) (*models.CompetitionPhase, error) {
	var phase models.CompetitionPhase
	if err := r.db.WithContext(ctx).First(&phase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &phase, nil
}

func (r *referenceRepositoryImpl) ListPhases(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionPhase, error) {
	var rows []models.CompetitionPhase
	err := r.db.WithContext(ctx).
		Where("competition_id = ?", competitionID).
		Order("ordinal ASC").
		Find(&rows).Error
	return rows, err
}

func (r *referenceRepositoryImpl) CreateVenue(ctx context.Context, venue *models.Venue) error {
	return r.db.WithContext(ctx).Create(venue).Error
}

func (r *referenceRepositoryImpl) SaveVenue(ctx context.Context, venue *models.Venue) error {
	return r.db.WithContext(ctx).Save(venue).Error
}

func (r *referenceRepositoryImpl) FindVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	var venue models.Venue
	if err := r.db.WithContext(ctx).First(&venue, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &venue, nil
}

func (r *referenceRepositoryImpl) ListVenues(ctx context.Context) ([]models.Venue, error) {
	var rows []models.Venue
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *referenceRepositoryImpl) CreateClub(ctx context.Context, club *models.Club) error {
	return r.db.WithContext(ctx).Create(club).Error
}

func (r *referenceRepositoryImpl) SaveClub(ctx context.Context, club *models.Club) error {
	return r.db.WithContext(ctx).Save(club).Error
}

func (r *referenceRepositoryImpl) FindClub(ctx context.Context, id uuid.UUID) (*models.Club, error) {
	var club models.Club
	if err := r.db.WithContext(ctx).First(&club, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *referenceRepositoryImpl) ListClubs(ctx context.Context) ([]models.Club, error) {
	var rows []models.Club
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *referenceRepositoryImpl) CreateTeam(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *referenceRepositoryImpl) SaveTeam(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Save(team).Error
}

func (r *referenceRepositoryImpl) FindTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).First(&team, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *referenceRepositoryImpl) ListTeams(ctx context.Context, clubID *uuid.UUID) ([]models.Team, error) {
	query := r.db.WithContext(ctx)
	if clubID != nil {
		query = query.Where("club_id = ?", *clubID)
	}
	var rows []models.Team
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *referenceRepositoryImpl) DeleteSeason(ctx context.Context, season *models.Season) error {
	return r.db.WithContext(ctx).Delete(season).Error
}

func (r *referenceRepositoryImpl) DeleteCompetition(ctx context.Context, competition *models.Competition) error {
	return r.db.WithContext(ctx).Delete(competition).Error
}

func (r *referenceRepositoryImpl) DeletePhase(ctx context.Context, phase *models.CompetitionPhase) error {
	return r.db.WithContext(ctx).Delete(phase).Error
}

func (r *referenceRepositoryImpl) DeleteVenue(ctx context.Context, venue *models.Venue) error {
	return r.db.WithContext(ctx).Delete(venue).Error
}

func (r *referenceRepositoryImpl) DeleteClub(ctx context.Context, club *models.Club) error {
	return r.db.WithContext(ctx).Delete(club).Error
}

func (r *referenceRepositoryImpl) DeleteTeam(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Delete(team).Error
}
