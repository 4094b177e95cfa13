package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/api/responses"
	"github.com/jaradmin/jar-backend/api/validators"
	"github.com/jaradmin/jar-backend/internal/matches"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

// The reference-data surface is six near-identical CRUD families, so the
// handlers are stamped out from three generic shapes.

func createReference[I, M any](create func(r *http.Request, actor uuid.UUID, input I) (*M, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body I
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := create(r, actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

func updateReference[I, M any](param string, update func(r *http.Request, actor, id uuid.UUID, input I) (*M, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body I
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := update(r, actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func deleteReference(param string, remove func(r *http.Request, actor, id uuid.UUID) error, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := remove(r, actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func optionalQueryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name)
	}
	return &id, nil
}

func CreateSeason(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return createReference(func(r *http.Request, actor uuid.UUID, input matches.SeasonInput) (*models.Season, error) {
		return svc.CreateSeason(r.Context(), actor, input)
	}, logg)
}

func UpdateSeason(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return updateReference("seasonId", func(r *http.Request, actor, id uuid.UUID, input matches.SeasonInput) (*models.Season, error) {
		return svc.UpdateSeason(r.Context(), actor, id, input)
	}, logg)
}

func ListSeasons(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListSeasons(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func DeleteSeason(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return deleteReference("seasonId", func(r *http.Request, actor, id uuid.UUID) error {
		return svc.DeleteSeason(r.Context(), actor, id)
	}, logg)
}

func CreateCompetition(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return createReference(func(r *http.Request, actor uuid.UUID, input matches.CompetitionInput) (*models.Competition, error) {
		return svc.CreateCompetition(r.Context(), actor, input)
	}, logg)
}

func UpdateCompetition(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return updateReference("competitionId", func(r *http.Request, actor, id uuid.UUID, input matches.CompetitionInput) (*models.Competition, error) {
		return svc.UpdateCompetition(r.Context(), actor, id, input)
	}, logg)
}

func ListCompetitions(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seasonID, err := optionalQueryUUID(r, "seasonId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListCompetitions(r.Context(), seasonID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func DeleteCompetition(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return deleteReference("competitionId", func(r *http.Request, actor, id uuid.UUID) error {
		return svc.DeleteCompetition(r.Context(), actor, id)
	}, logg)
}

func CreatePhase(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return createReference(func(r *http.Request, actor uuid.UUID, input matches.PhaseInput) (*models.CompetitionPhase, error) {
		return svc.CreatePhase(r.Context(), actor, input)
	}, logg)
}

func UpdatePhase(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return updateReference("phaseId", func(r *http.Request, actor, id uuid.UUID, input matches.PhaseInput) (*models.CompetitionPhase, error) {
		return svc.UpdatePhase(r.Context(), actor, id, input)
	}, logg)
}

func ListPhases(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		competitionID, err := pathUUID(r, "competitionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListPhases(r.Context(), competitionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func DeletePhase(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return deleteReference("phaseId", func(r *http.Request, actor, id uuid.UUID) error {
		return svc.DeletePhase(r.Context(), actor, id)
	}, logg)
}

func CreateVenue(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return createReference(func(r *http.Request, actor uuid.UUID, input matches.VenueInput) (*models.Venue, error) {
		return svc.CreateVenue(r.Context(), actor, input)
	}, logg)
}

func UpdateVenue(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return updateReference("venueId", func(r *http.Request, actor, id uuid.UUID, input matches.VenueInput) (*models.Venue, error) {
		return svc.UpdateVenue(r.Context(), actor, id, input)
	}, logg)
}

func ListVenues(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListVenues(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func DeleteVenue(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return deleteReference("venueId", func(r *http.Request, actor, id uuid.UUID) error {
		return svc.DeleteVenue(r.Context(), actor, id)
	}, logg)
}

func CreateClub(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return createReference(func(r *http.Request, actor uuid.UUID, input matches.ClubInput) (*models.Club, error) {
		return svc.CreateClub(r.Context(), actor, input)
	}, logg)
}

func UpdateClub(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return updateReference("clubId", func(r *http.Request, actor, id uuid.UUID, input matches.ClubInput) (*models.Club, error) {
		return svc.UpdateClub(r.Context(), actor, id, input)
	}, logg)
}

func ListClubs(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListClubs(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func DeleteClub(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return deleteReference("clubId", func(r *http.Request, actor, id uuid.UUID) error {
		return svc.DeleteClub(r.Context(), actor, id)
	}, logg)
}

func CreateTeam(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return createReference(func(r *http.Request, actor uuid.UUID, input matches.TeamInput) (*models.Team, error) {
		return svc.CreateTeam(r.Context(), actor, input)
	}, logg)
}

func UpdateTeam(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return updateReference("teamId", func(r *http.Request, actor, id uuid.UUID, input matches.TeamInput) (*models.Team, error) {
		return svc.UpdateTeam(r.Context(), actor, id, input)
	}, logg)
}

func ListTeams(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubID, err := optionalQueryUUID(r, "clubId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListTeams(r.Context(), clubID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func DeleteTeam(svc matches.ReferenceService, logg *logger.Logger) http.HandlerFunc {
	return deleteReference("teamId", func(r *http.Request, actor, id uuid.UUID) error {
		return svc.DeleteTeam(r.Context(), actor, id)
	}, logg)
}
