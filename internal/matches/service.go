package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/assignments"
	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/internal/declarations"
	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/pkg/db"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
	"github.com/jaradmin/jar-backend/pkg/pagination"
)

// Service owns the match lifecycle: scheduling, status transitions, referee
// applications and inspector feedback.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, input CreateMatchInput) (*MatchDTO, error)
	Get(ctx context.Context, matchID uuid.UUID) (*MatchDTO, error)
	Update(ctx context.Context, actorID, matchID uuid.UUID, input UpdateMatchInput) (*MatchDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ListMine(ctx context.Context, userID uuid.UUID, upcomingOnly bool) ([]MatchDTO, error)

	Transition(ctx context.Context, actorID, matchID uuid.UUID, target enums.MatchStatus) (*MatchDTO, error)
	IsAllConfirmed(ctx context.Context, matchID uuid.UUID) (bool, error)

	Apply(ctx context.Context, actorID, matchID uuid.UUID, note *string) (*ApplicationDTO, error)
	ApproveApplication(ctx context.Context, actorID, applicationID uuid.UUID, role enums.AssignmentRole, position int) (*ApplicationDTO, error)
	RejectApplication(ctx context.Context, actorID, applicationID uuid.UUID) (*ApplicationDTO, error)
	ListApplications(ctx context.Context, matchID uuid.UUID) ([]ApplicationDTO, error)

	SubmitFeedback(ctx context.Context, inspectorID, matchID uuid.UUID, input SubmitFeedbackInput) (*FeedbackDTO, error)
	ListFeedback(ctx context.Context, matchID uuid.UUID) ([]FeedbackDTO, error)
}

type service struct {
	repo        Repository
	assignments assignments.Service
	decls       declarations.Service
	notify      notifications.Service
	audit       audit.Service
	logg        *logger.Logger
	now         func() time.Time
}

type Params struct {
	Repo         Repository
	Assignments  assignments.Service
	Declarations declarations.Service
	Notify       notifications.Service
	Audit        audit.Service
	Logger       *logger.Logger
	Now          func() time.Time
}

// NewService wires match dependencies.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "matches repository required")
	}
	if p.Assignments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assignments service required")
	}
	if p.Declarations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "declarations service required")
	}
	if p.Notify == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification service required")
	}
	if p.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit service required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &service{
		repo:        p.Repo,
		assignments: p.Assignments,
		decls:       p.Declarations,
		notify:      p.Notify,
		audit:       p.Audit,
		logg:        p.Logger,
		now:         p.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, input CreateMatchInput) (*MatchDTO, error) {
	if input.KickoffAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kickoff time required")
	}
	if input.HomeTeamID == input.AwayTeamID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "home and away teams must differ")
	}
	if input.CompetitionID == uuid.Nil || input.SeasonID == uuid.Nil || input.VenueID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "competition, season and venue required")
	}

	match := &models.Match{
		CompetitionID:      input.CompetitionID,
		PhaseID:            input.PhaseID,
		SeasonID:           input.SeasonID,
		HomeTeamID:         input.HomeTeamID,
		AwayTeamID:         input.AwayTeamID,
		VenueID:            input.VenueID,
		KickoffAt:          input.KickoffAt.UTC(),
		Round:              input.Round,
		Status:             enums.MatchStatusDraft,
		RefereeFeeOverride: input.RefereeFeeOverride,
	}
	if err := s.repo.Create(ctx, match); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create match")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "match.create",
		EntityType: "match",
		EntityID:   &match.ID,
		Summary:    match.KickoffAt.Format("2006-01-02 15:04"),
	})
	return FromModel(match), nil
}

func (s *service) Get(ctx context.Context, matchID uuid.UUID) (*MatchDTO, error) {
	match, err := s.find(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return FromModel(match), nil
}

// Update applies a partial edit. Moving the kickoff or the venue re-runs the
// declaration drift check and tells every assigned user.
func (s *service) Update(ctx context.Context, actorID, matchID uuid.UUID, input UpdateMatchInput) (*MatchDTO, error) {
	match, err := s.find(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "match is cancelled")
	}

	rescheduled := false
	if input.KickoffAt != nil && !input.KickoffAt.UTC().Equal(match.KickoffAt) {
		match.KickoffAt = input.KickoffAt.UTC()
		rescheduled = true
	}
	if input.VenueID != nil && *input.VenueID != match.VenueID {
		match.VenueID = *input.VenueID
		rescheduled = true
	}
	if input.PhaseID != nil {
		match.PhaseID = input.PhaseID
	}
	if input.HomeTeamID != nil {
		match.HomeTeamID = *input.HomeTeamID
	}
	if input.AwayTeamID != nil {
		match.AwayTeamID = *input.AwayTeamID
	}
	if input.Round != nil {
		match.Round = *input.Round
	}
	if input.RefereeFeeOverride != nil {
		match.RefereeFeeOverride = input.RefereeFeeOverride
	}
	if match.HomeTeamID == match.AwayTeamID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "home and away teams must differ")
	}

	if err := s.repo.Save(ctx, match); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save match")
	}

	if rescheduled {
		s.notifyAssigned(ctx, match.ID, "Mérkőzés módosítva",
			fmt.Sprintf("A mérkőzés adatai megváltoztak, új kezdés: %s.", match.KickoffAt.Format("2006-01-02 15:04")))
		if err := s.decls.Reconcile(ctx, match.ID); err != nil {
			s.logg.Error(ctx, "reconcile declarations after update", err)
		}
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "match.update",
		EntityType: "match",
		EntityID:   &match.ID,
	})
	return FromModel(match), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.List(ctx, listMatchesParams{
		Limit:         params.Limit,
		Cursor:        cursor,
		SeasonID:      params.SeasonID,
		CompetitionID: params.CompetitionID,
		VenueID:       params.VenueID,
		Status:        params.Status,
		From:          params.From,
		To:            params.To,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list matches")
	}

	result := &ListResult{Matches: FromModels(rows)}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, upcomingOnly bool) ([]MatchDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	var from *time.Time
	if upcomingOnly {
		now := s.now().UTC()
		from = &now
	}
	rows, err := s.repo.ListByAssignee(ctx, userID, from)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list matches")
	}
	return FromModels(rows), nil
}

// Transition moves a match along its lifecycle. Confirming requires every
// counting slot to be satisfied; postponing or cancelling fans out to the
// assigned users and re-runs the declaration drift check.
func (s *service) Transition(ctx context.Context, actorID, matchID uuid.UUID, target enums.MatchStatus) (*MatchDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid match status")
	}

	match, err := s.find(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == target {
		return FromModel(match), nil
	}
	if !match.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move match from %s to %s", match.Status, target))
	}

	if target == enums.MatchStatusConfirmed {
		confirmed, err := s.assignments.AllConfirmed(ctx, match.ID)
		if err != nil {
			return nil, err
		}
		if !confirmed {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "not every assignment is confirmed")
		}
	}

	previous := match.Status
	match.Status = target
	if err := s.repo.Save(ctx, match); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save match")
	}

	switch target {
	case enums.MatchStatusPostponed:
		s.notifyAssigned(ctx, match.ID, "Mérkőzés elhalasztva",
			fmt.Sprintf("A(z) %s kezdésű mérkőzést elhalasztották.", match.KickoffAt.Format("2006-01-02 15:04")))
		if err := s.decls.Reconcile(ctx, match.ID); err != nil {
			s.logg.Error(ctx, "reconcile declarations after postpone", err)
		}
	case enums.MatchStatusCancelled:
		s.notifyAssigned(ctx, match.ID, "Mérkőzés törölve",
			fmt.Sprintf("A(z) %s kezdésű mérkőzést törölték.", match.KickoffAt.Format("2006-01-02 15:04")))
		if err := s.decls.Reconcile(ctx, match.ID); err != nil {
			s.logg.Error(ctx, "reconcile declarations after cancel", err)
		}
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "match.transition",
		EntityType: "match",
		EntityID:   &match.ID,
		Summary:    fmt.Sprintf("%s -> %s", previous, target),
	})
	return FromModel(match), nil
}

func (s *service) IsAllConfirmed(ctx context.Context, matchID uuid.UUID) (bool, error) {
	if _, err := s.find(ctx, matchID); err != nil {
		return false, err
	}
	return s.assignments.AllConfirmed(ctx, matchID)
}

// Apply records a referee's self-application for an open match.
func (s *service) Apply(ctx context.Context, actorID, matchID uuid.UUID, note *string) (*ApplicationDTO, error) {
	match, err := s.find(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "match is cancelled")
	}
	if !match.KickoffAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "match already kicked off")
	}

	app := &models.MatchApplication{
		MatchID: matchID,
		UserID:  actorID,
		Status:  enums.ApplicationStatusPending,
		Note:    note,
	}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "already applied to this match")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "application.create",
		EntityType: "match_application",
		EntityID:   &app.ID,
	})
	return applicationFromModel(app), nil
}

// ApproveApplication turns an application into an assignment on the given slot.
func (s *service) ApproveApplication(ctx context.Context, actorID, applicationID uuid.UUID, role enums.AssignmentRole, position int) (*ApplicationDTO, error) {
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != enums.ApplicationStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "application already decided")
	}

	if _, err := s.assignments.Assign(ctx, actorID, assignments.AssignInput{
		MatchID:  app.MatchID,
		UserID:   app.UserID,
		Role:     role,
		Position: position,
	}); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	app.Status = enums.ApplicationStatusApproved
	app.DecidedBy = &actorID
	app.DecidedAt = &now
	if err := s.repo.SaveApplication(ctx, app); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save application")
	}

	if err := s.notify.Notify(ctx, notifications.NotifyInput{
		UserID:   app.UserID,
		Category: enums.NotificationCategoryAssignments,
		Title:    "Jelentkezés elfogadva",
		Message:  "A bizottság elfogadta a jelentkezését, a küldés létrejött.",
	}); err != nil {
		s.logg.Error(ctx, "notify applicant", err)
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "application.approve",
		EntityType: "match_application",
		EntityID:   &app.ID,
	})
	return applicationFromModel(app), nil
}

func (s *service) RejectApplication(ctx context.Context, actorID, applicationID uuid.UUID) (*ApplicationDTO, error) {
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != enums.ApplicationStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "application already decided")
	}

	now := s.now().UTC()
	app.Status = enums.ApplicationStatusRejected
	app.DecidedBy = &actorID
	app.DecidedAt = &now
	if err := s.repo.SaveApplication(ctx, app); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save application")
	}

	if err := s.notify.Notify(ctx, notifications.NotifyInput{
		UserID:   app.UserID,
		Category: enums.NotificationCategoryAssignments,
		Title:    "Jelentkezés elutasítva",
		Message:  "A bizottság elutasította a jelentkezését.",
	}); err != nil {
		s.logg.Error(ctx, "notify applicant", err)
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "application.reject",
		EntityType: "match_application",
		EntityID:   &app.ID,
	})
	return applicationFromModel(app), nil
}

func (s *service) ListApplications(ctx context.Context, matchID uuid.UUID) ([]ApplicationDTO, error) {
	rows, err := s.repo.ListApplications(ctx, matchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}
	return applicationsFromModels(rows), nil
}

// SubmitFeedback records the inspector's evaluation, once per match.
func (s *service) SubmitFeedback(ctx context.Context, inspectorID, matchID uuid.UUID, input SubmitFeedbackInput) (*FeedbackDTO, error) {
	if input.RefereeScore < 1 || input.RefereeScore > 10 || input.OrganizerScore < 1 || input.OrganizerScore > 10 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scores must be between 1 and 10")
	}
	if _, err := s.find(ctx, matchID); err != nil {
		return nil, err
	}

	feedback := &models.MatchFeedback{
		MatchID:        matchID,
		InspectorID:    inspectorID,
		RefereeScore:   input.RefereeScore,
		OrganizerScore: input.OrganizerScore,
		Comments:       input.Comments,
	}
	if err := s.repo.CreateFeedback(ctx, feedback); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "feedback already submitted for this match")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create feedback")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &inspectorID,
		Action:     "feedback.create",
		EntityType: "match_feedback",
		EntityID:   &feedback.ID,
	})
	return feedbackFromModel(feedback), nil
}

func (s *service) ListFeedback(ctx context.Context, matchID uuid.UUID) ([]FeedbackDTO, error) {
	rows, err := s.repo.ListFeedback(ctx, matchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list feedback")
	}
	out := make([]FeedbackDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *feedbackFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) notifyAssigned(ctx context.Context, matchID uuid.UUID, title, message string) {
	ids, err := s.repo.AssignedUserIDs(ctx, matchID)
	if err != nil {
		s.logg.Error(ctx, "list assigned users for notification", err)
		return
	}
	if len(ids) == 0 {
		return
	}
	err = s.notify.NotifyMany(ctx, ids, notifications.NotifyInput{
		Category: enums.NotificationCategoryMatchChanges,
		Title:    title,
		Message:  message,
	})
	if err != nil {
		s.logg.Error(ctx, "notify assigned users", err)
	}
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "match id required")
	}
	match, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "match not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup match")
	}
	return match, nil
}

func (s *service) findApplication(ctx context.Context, id uuid.UUID) (*models.MatchApplication, error) {
	app, err := s.repo.FindApplication(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup application")
	}
	return app, nil
}
