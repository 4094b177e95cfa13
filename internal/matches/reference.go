package matches

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
)

// SeasonInput carries the editable fields of a season.
type SeasonInput struct {
	Name      string    `json:"name" validate:"required,max=120"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	IsActive  bool      `json:"is_active"`
}

// CompetitionInput carries the editable fields of a competition.
type CompetitionInput struct {
	SeasonID uuid.UUID `json:"season_id" validate:"required"`
	Name     string    `json:"name" validate:"required,max=200"`
	AgeGroup string    `json:"age_group" validate:"max=60"`
}

// PhaseInput carries the editable fields of a competition phase.
type PhaseInput struct {
	CompetitionID uuid.UUID `json:"competition_id" validate:"required"`
	Name          string    `json:"name" validate:"required,max=200"`
	Ordinal       int       `json:"ordinal" validate:"min=0"`
}

// VenueInput carries the editable fields of a venue.
type VenueInput struct {
	Name      string   `json:"name" validate:"required,max=200"`
	Address   string   `json:"address" validate:"max=300"`
	City      string   `json:"city" validate:"max=120"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// ClubInput carries the editable fields of a club.
type ClubInput struct {
	Name      string `json:"name" validate:"required,max=200"`
	ShortName string `json:"short_name" validate:"max=60"`
}

// TeamInput carries the editable fields of a team.
type TeamInput struct {
	ClubID   uuid.UUID `json:"club_id" validate:"required"`
	Name     string    `json:"name" validate:"required,max=200"`
	AgeGroup string    `json:"age_group" validate:"max=60"`
}

// ReferenceService owns the scheduling reference data.
type ReferenceService interface {
	CreateSeason(ctx context.Context, actorID uuid.UUID, input SeasonInput) (*models.Season, error)
	UpdateSeason(ctx context.Context, actorID, id uuid.UUID, input SeasonInput) (*models.Season, error)
	ListSeasons(ctx context.Context) ([]models.Season, error)
	DeleteSeason(ctx context.Context, actorID, id uuid.UUID) error

	CreateCompetition(ctx context.Context, actorID uuid.UUID, input CompetitionInput) (*models.Competition, error)
	UpdateCompetition(ctx context.Context, actorID, id uuid.UUID, input CompetitionInput) (*models.Competition, error)
	ListCompetitions(ctx context.Context, seasonID *uuid.UUID) ([]models.Competition, error)
	DeleteCompetition(ctx context.Context, actorID, id uuid.UUID) error

	CreatePhase(ctx context.Context, actorID uuid.UUID, input PhaseInput) (*models.CompetitionPhase, error)
	UpdatePhase(ctx context.Context, actorID, id uuid.UUID, input PhaseInput) (*models.CompetitionPhase, error)
	ListPhases(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionPhase, error)
	DeletePhase(ctx context.Context, actorID, id uuid.UUID) error

	CreateVenue(ctx context.Context, actorID uuid.UUID, input VenueInput) (*models.Venue, error)
	UpdateVenue(ctx context.Context, actorID, id uuid.UUID, input VenueInput) (*models.Venue, error)
	ListVenues(ctx context.Context) ([]models.Venue, error)
	DeleteVenue(ctx context.Context, actorID, id uuid.UUID) error

	CreateClub(ctx context.Context, actorID uuid.UUID, input ClubInput) (*models.Club, error)
	UpdateClub(ctx context.Context, actorID, id uuid.UUID, input ClubInput) (*models.Club, error)
	ListClubs(ctx context.Context) ([]models.Club, error)
	DeleteClub(ctx context.Context, actorID, id uuid.UUID) error

	CreateTeam(ctx context.Context, actorID uuid.UUID, input TeamInput) (*models.Team, error)
	UpdateTeam(ctx context.Context, actorID, id uuid.UUID, input TeamInput) (*models.Team, error)
	ListTeams(ctx context.Context, clubID *uuid.UUID) ([]models.Team, error)
	DeleteTeam(ctx context.Context, actorID, id uuid.UUID) error
}

type referenceService struct {
	repo  ReferenceRepository
	audit audit.Service
}

// ReferenceParams wires reference-data dependencies.
type ReferenceParams struct {
	Repo  ReferenceRepository
	Audit audit.Service
}

// NewReferenceService wires the reference-data service.
func NewReferenceService(p ReferenceParams) (ReferenceService, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reference repository required")
	}
	if p.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit service required")
	}
	return &referenceService{repo: p.Repo, audit: p.Audit}, nil
}

func (s *referenceService) CreateSeason(ctx context.Context, actorID uuid.UUID, input SeasonInput) (*models.Season, error) {
	if err := validateSeason(input); err != nil {
		return nil, err
	}
	season := &models.Season{
		Name:      strings.TrimSpace(input.Name),
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		IsActive:  input.IsActive,
	}
	if err := s.repo.CreateSeason(ctx, season); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create season")
	}
	if season.IsActive {
		if err := s.repo.DeactivateSeasons(ctx, season.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate other seasons")
		}
	}
	s.record(ctx, actorID, "season.create", "season", season.ID, season.Name)
	return season, nil
}

func (s *referenceService) UpdateSeason(ctx context.Context, actorID, id uuid.UUID, input SeasonInput) (*models.Season, error) {
	if err := validateSeason(input); err != nil {
		return nil, err
	}
	season, err := s.repo.FindSeason(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "season not found", "lookup season")
	}
	season.Name = strings.TrimSpace(input.Name)
	season.StartDate = input.StartDate
	season.EndDate = input.EndDate
	season.IsActive = input.IsActive
	if err := s.repo.SaveSeason(ctx, season); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save season")
	}
	if season.IsActive {
		if err := s.repo.DeactivateSeasons(ctx, season.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate other seasons")
		}
	}
	s.record(ctx, actorID, "season.update", "season", season.ID, season.Name)
	return season, nil
}

func (s *referenceService) ListSeasons(ctx context.Context) ([]models.Season, error) {
	rows, err := s.repo.ListSeasons(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seasons")
	}
	return rows, nil
}

func (s *referenceService) DeleteSeason(ctx context.Context, actorID, id uuid.UUID) error {
	season, err := s.repo.FindSeason(ctx, id)
	if err != nil {
		return notFoundOr(err, "season not found", "lookup season")
	}
	if err := s.repo.DeleteSeason(ctx, season); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete season")
	}
	s.record(ctx, actorID, "season.delete", "season", season.ID, season.Name)
	return nil
}

func (s *referenceService) CreateCompetition(ctx context.Context, actorID uuid.UUID, input CompetitionInput) (*models.Competition, error) {
	if input.SeasonID == uuid.Nil || strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "season and name required")
	}
	if _, err := s.repo.FindSeason(ctx, input.SeasonID); err != nil {
		return nil, notFoundOr(err, "season not found", "lookup season")
	}
	competition := &models.Competition{
		SeasonID: input.SeasonID,
		Name:     strings.TrimSpace(input.Name),
		AgeGroup: input.AgeGroup,
	}
	if err := s.repo.CreateCompetition(ctx, competition); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create competition")
	}
	s.record(ctx, actorID, "competition.create", "competition", competition.ID, competition.Name)
	return competition, nil
}

func (s *referenceService) UpdateCompetition(ctx context.Context, actorID, id uuid.UUID, input CompetitionInput) (*models.Competition, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	competition, err := s.repo.FindCompetition(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "competition not found", "lookup competition")
	}
	competition.Name = strings.TrimSpace(input.Name)
	competition.AgeGroup = input.AgeGroup
	if err := s.repo.SaveCompetition(ctx, competition); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save competition")
	}
	s.record(ctx, actorID, "competition.update", "competition", competition.ID, competition.Name)
	return competition, nil
}

func (s *referenceService) ListCompetitions(ctx context.Context, seasonID *uuid.UUID) ([]models.Competition, error) {
	rows, err := s.repo.ListCompetitions(ctx, seasonID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list competitions")
	}
	return rows, nil
}

func (s *referenceService) DeleteCompetition(ctx context.Context, actorID, id uuid.UUID) error {
	competition, err := s.repo.FindCompetition(ctx, id)
	if err != nil {
		return notFoundOr(err, "competition not found", "lookup competition")
	}
	if err := s.repo.DeleteCompetition(ctx, competition); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete competition")
	}
	s.record(ctx, actorID, "competition.delete", "competition", competition.ID, competition.Name)
	return nil
}

func (s *referenceService) CreatePhase(ctx context.Context, actorID uuid.UUID, input PhaseInput) (*models.CompetitionPhase, error) {
	if input.CompetitionID == uuid.Nil || strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "competition and name required")
	}
	if _, err := s.repo.FindCompetition(ctx, input.CompetitionID); err != nil {
		return nil, notFoundOr(err, "competition not found", "lookup competition")
	}
	phase := &models.CompetitionPhase{
		CompetitionID: input.CompetitionID,
		Name:          strings.TrimSpace(input.Name),
		Ordinal:       input.Ordinal,
	}
	if err := s.repo.CreatePhase(ctx, phase); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create phase")
	}
	s.record(ctx, actorID, "phase.create", "competition_phase", phase.ID, phase.Name)
	return phase, nil
}

func (s *referenceService) UpdatePhase(ctx context.Context, actorID, id uuid.UUID, input PhaseInput) (*models.CompetitionPhase, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	phase, err := s.repo.FindPhase(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "phase not found", "lookup phase")
	}
	phase.Name = strings.TrimSpace(input.Name)
	phase.Ordinal = input.Ordinal
	if err := s.repo.SavePhase(ctx, phase); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save phase")
	}
	s.record(ctx, actorID, "phase.update", "competition_phase", phase.ID, phase.Name)
	return phase, nil
}

func (s *referenceService) ListPhases(ctx context.Context, competitionID uuid.UUID) ([]models.CompetitionPhase, error) {
	rows, err := s.repo.ListPhases(ctx, competitionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list phases")
	}
	return rows, nil
}

func (s *referenceService) DeletePhase(ctx context.Context, actorID, id uuid.UUID) error {
	phase, err := s.repo.FindPhase(ctx, id)
	if err != nil {
		return notFoundOr(err, "phase not found", "lookup phase")
	}
	if err := s.repo.DeletePhase(ctx, phase); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete phase")
	}
	s.record(ctx, actorID, "phase.delete", "competition_phase", phase.ID, phase.Name)
	return nil
}

func (s *referenceService) CreateVenue(ctx context.Context, actorID uuid.UUID, input VenueInput) (*models.Venue, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	venue := &models.Venue{
		Name:      strings.TrimSpace(input.Name),
		Address:   input.Address,
		City:      input.City,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	}
	if err := s.repo.CreateVenue(ctx, venue); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create venue")
	}
	s.record(ctx, actorID, "venue.create", "venue", venue.ID, venue.Name)
	return venue, nil
}

func (s *referenceService) UpdateVenue(ctx context.Context, actorID, id uuid.UUID, input VenueInput) (*models.Venue, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	venue, err := s.repo.FindVenue(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "venue not found", "lookup venue")
	}
	venue.Name = strings.TrimSpace(input.Name)
	venue.Address = input.Address
	venue.City = input.City
	venue.Latitude = input.Latitude
	venue.Longitude = input.Longitude
	if err := s.repo.SaveVenue(ctx, venue); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save venue")
	}
	s.record(ctx, actorID, "venue.update", "venue", venue.ID, venue.Name)
	return venue, nil
}

func (s *referenceService) ListVenues(ctx context.Context) ([]models.Venue, error) {
	rows, err := s.repo.ListVenues(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list venues")
	}
	return rows, nil
}

func (s *referenceService) DeleteVenue(ctx context.Context, actorID, id uuid.UUID) error {
	venue, err := s.repo.FindVenue(ctx, id)
	if err != nil {
		return notFoundOr(err, "venue not found", "lookup venue")
	}
	if err := s.repo.DeleteVenue(ctx, venue); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete venue")
	}
	s.record(ctx, actorID, "venue.delete", "venue", venue.ID, venue.Name)
	return nil
}

func (s *referenceService) CreateClub(ctx context.Context, actorID uuid.UUID, input ClubInput) (*models.Club, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	club := &models.Club{
		Name:      strings.TrimSpace(input.Name),
		ShortName: input.ShortName,
	}
	if err := s.repo.CreateClub(ctx, club); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create club")
	}
	s.record(ctx, actorID, "club.create", "club", club.ID, club.Name)
	return club, nil
}

func (s *referenceService) UpdateClub(ctx context.Context, actorID, id uuid.UUID, input ClubInput) (*models.Club, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	club, err := s.repo.FindClub(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "club not found", "lookup club")
	}
	club.Name = strings.TrimSpace(input.Name)
	club.ShortName = input.ShortName
	if err := s.repo.SaveClub(ctx, club); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save club")
	}
	s.record(ctx, actorID, "club.update", "club", club.ID, club.Name)
	return club, nil
}

func (s *referenceService) ListClubs(ctx context.Context) ([]models.Club, error) {
	rows, err := s.repo.ListClubs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clubs")
	}
	return rows, nil
}

func (s *referenceService) DeleteClub(ctx context.Context, actorID, id uuid.UUID) error {
	club, err := s.repo.FindClub(ctx, id)
	if err != nil {
		return notFoundOr(err, "club not found", "lookup club")
	}
	if err := s.repo.DeleteClub(ctx, club); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete club")
	}
	s.record(ctx, actorID, "club.delete", "club", club.ID, club.Name)
	return nil
}

func (s *referenceService) CreateTeam(ctx context.Context, actorID uuid.UUID, input TeamInput) (*models.Team, error) {
	if input.ClubID == uuid.Nil || strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "club and name required")
	}
	if _, err := s.repo.FindClub(ctx, input.ClubID); err != nil {
		return nil, notFoundOr(err, "club not found", "lookup club")
	}
	team := &models.Team{
		ClubID:   input.ClubID,
		Name:     strings.TrimSpace(input.Name),
		AgeGroup: input.AgeGroup,
	}
	if err := s.repo.CreateTeam(ctx, team); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create team")
	}
	s.record(ctx, actorID, "team.create", "team", team.ID, team.Name)
	return team, nil
}

func (s *referenceService) UpdateTeam(ctx context.Context, actorID, id uuid.UUID, input TeamInput) (*models.Team, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	team, err := s.repo.FindTeam(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "team not found", "lookup team")
	}
	team.Name = strings.TrimSpace(input.Name)
	team.AgeGroup = input.AgeGroup
	if err := s.repo.SaveTeam(ctx, team); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save team")
	}
	s.record(ctx, actorID, "team.update", "team", team.ID, team.Name)
	return team, nil
}

func (s *referenceService) ListTeams(ctx context.Context, clubID *uuid.UUID) ([]models.Team, error) {
	rows, err := s.repo.ListTeams(ctx, clubID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list teams")
	}
	return rows, nil
}

func (s *referenceService) DeleteTeam(ctx context.Context, actorID, id uuid.UUID) error {
	team, err := s.repo.FindTeam(ctx, id)
	if err != nil {
		return notFoundOr(err, "team not found", "lookup team")
	}
	if err := s.repo.DeleteTeam(ctx, team); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete team")
	}
	s.record(ctx, actorID, "team.delete", "team", team.ID, team.Name)
	return nil
}

func (s *referenceService) record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, summary string) {
	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
		Summary:    summary,
	})
}

func validateSeason(input SeasonInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if !input.EndDate.After(input.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "season end must be after start")
	}
	return nil
}

func notFoundOr(err error, notFound, wrapMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, wrapMsg)
}
