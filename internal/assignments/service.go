package assignments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/internal/declarations"
	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/internal/settings"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

// CommitteeDirectory resolves the users who manage staffing.
type CommitteeDirectory interface {
	ListCommittee(ctx context.Context) ([]uuid.UUID, error)
}

// Service owns the staffing slots and the assignee response workflow.
type Service interface {
	Assign(ctx context.Context, actorID uuid.UUID, input AssignInput) (*AssignmentDTO, error)
	Respond(ctx context.Context, actorID, assignmentID uuid.UUID, input RespondInput) (*AssignmentDTO, error)
	Remove(ctx context.Context, actorID, assignmentID uuid.UUID) (*AssignmentDTO, error)
	SetPlaceholder(ctx context.Context, actorID, assignmentID uuid.UUID, placeholder enums.PlaceholderType) (*AssignmentDTO, error)
	ListByMatch(ctx context.Context, matchID uuid.UUID) ([]AssignmentDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, upcomingOnly bool) ([]AssignmentDTO, error)
	AllConfirmed(ctx context.Context, matchID uuid.UUID) (bool, error)
}

type service struct {
	repo      Repository
	settings  settings.Service
	decls     declarations.Service
	notify    notifications.Service
	committee CommitteeDirectory
	audit     audit.Service
	logg      *logger.Logger
	now       func() time.Time
}

type Params struct {
	Repo         Repository
	Settings     settings.Service
	Declarations declarations.Service
	Notify       notifications.Service
	Committee    CommitteeDirectory
	Audit        audit.Service
	Logger       *logger.Logger
	Now          func() time.Time
}

// NewService wires assignment dependencies.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assignments repository required")
	}
	if p.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings service required")
	}
	if p.Declarations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "declarations service required")
	}
	if p.Notify == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification service required")
	}
	if p.Committee == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "committee directory required")
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
		repo:      p.Repo,
		settings:  p.Settings,
		decls:     p.Declarations,
		notify:    p.Notify,
		committee: p.Committee,
		audit:     p.Audit,
		logg:      p.Logger,
		now:       p.Now,
	}, nil
}

// Assign binds a user to a slot, creating the slot when it does not exist yet.
func (s *service) Assign(ctx context.Context, actorID uuid.UUID, input AssignInput) (*AssignmentDTO, error) {
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid assignment role")
	}
	if input.Position < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "position cannot be negative")
	}

	match, err := s.repo.GetMatch(ctx, input.MatchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "match not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup match")
	}
	if match.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "match is cancelled")
	}

	user, err := s.repo.GetUser(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if user.Archived || user.LoginDisabled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "user cannot take assignments")
	}

	slot, err := s.repo.FindSlot(ctx, input.MatchID, string(input.Role), input.Position)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup slot")
	}
	if slot == nil {
		slot = &models.MatchAssignment{
			MatchID:  input.MatchID,
			Role:     input.Role,
			Position: input.Position,
		}
	} else if slot.UserID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "slot already filled")
	}

	userID := input.UserID
	slot.UserID = &userID
	slot.PlaceholderType = enums.PlaceholderNotNeeded
	slot.ResponseStatus = enums.ResponseStatusPending
	slot.RespondedAt = nil
	slot.DeclineReason = nil

	if slot.ID == uuid.Nil {
		err = s.repo.Create(ctx, slot)
	} else {
		err = s.repo.Save(ctx, slot)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save assignment")
	}

	billing := enums.BillingTypeEFO
	if user.BillingType != nil {
		billing = *user.BillingType
	}
	err = s.decls.EnsurePending(ctx, declarations.EnsurePendingInput{
		UserID:       input.UserID,
		MatchID:      input.MatchID,
		AssignmentID: slot.ID,
		BillingType:  billing,
	})
	if err != nil {
		return nil, err
	}

	if err := s.notify.Notify(ctx, notifications.NotifyInput{
		UserID:   input.UserID,
		Category: enums.NotificationCategoryAssignments,
		Title:    "Új küldés",
		Message:  fmt.Sprintf("Kiírtak egy mérkőzésre (%s).", match.KickoffAt.UTC().Format("2006-01-02 15:04")),
	}); err != nil {
		s.logg.Error(ctx, "notify assignee", err)
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "assignment.assign",
		EntityType: "match_assignment",
		EntityID:   &slot.ID,
		Summary:    fmt.Sprintf("user %s match %s %s#%d", input.UserID, input.MatchID, input.Role, input.Position),
	})
	return FromModel(slot), nil
}

// Respond handles accept and decline, including the cancellation-window rule
// for declining an already accepted assignment.
func (s *service) Respond(ctx context.Context, actorID, assignmentID uuid.UUID, input RespondInput) (*AssignmentDTO, error) {
	if input.Status != enums.ResponseStatusAccepted && input.Status != enums.ResponseStatusDeclined {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "response must be accepted or declined")
	}

	slot, err := s.find(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if slot.UserID == nil || *slot.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "assignment belongs to another user")
	}

	// A second response with the same answer is rejected, not absorbed.
	if slot.ResponseStatus == input.Status {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "erre a kijelölésre már válaszoltál")
	}

	switch input.Status {
	case enums.ResponseStatusAccepted:
		return s.accept(ctx, slot)
	default:
		return s.decline(ctx, slot, input.Reason)
	}
}

func (s *service) accept(ctx context.Context, slot *models.MatchAssignment) (*AssignmentDTO, error) {
	if slot.ResponseStatus != enums.ResponseStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending assignments can be accepted")
	}

	now := s.now().UTC()
	slot.ResponseStatus = enums.ResponseStatusAccepted
	slot.RespondedAt = &now
	slot.DeclineReason = nil
	if err := s.repo.Save(ctx, slot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save response")
	}
	if err := s.syncMatchStatus(ctx, slot.MatchID); err != nil {
		return nil, err
	}

	s.notifyCommittee(ctx, "Küldés elfogadva", fmt.Sprintf("A játékvezető elfogadta a küldést (mérkőzés: %s).", slot.MatchID))

	userID := *slot.UserID
	s.audit.Record(ctx, audit.Entry{
		ActorID:    &userID,
		Action:     "assignment.accept",
		EntityType: "match_assignment",
		EntityID:   &slot.ID,
	})
	return FromModel(slot), nil
}

func (s *service) decline(ctx context.Context, slot *models.MatchAssignment, reason *string) (*AssignmentDTO, error) {
	snapshot, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if slot.ResponseStatus == enums.ResponseStatusAccepted {
		match, err := s.repo.GetMatch(ctx, slot.MatchID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup match")
		}
		window := time.Duration(snapshot.MinCancellationHours) * time.Hour
		if match.KickoffAt.Sub(s.now()) <= window {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				"a lemondási határidő lejárt, kérjük egyeztessen a játékvezetői koordinátorral")
		}
	}

	if snapshot.RequireCancellationReason && (reason == nil || strings.TrimSpace(*reason) == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decline reason required")
	}

	declinedBy := *slot.UserID
	now := s.now().UTC()

	// The user link stays on record; the placeholder makes the open position
	// visible on the admin board.
	slot.PlaceholderType = enums.PlaceholderMissing
	slot.ResponseStatus = enums.ResponseStatusDeclined
	slot.RespondedAt = &now
	slot.DeclineReason = reason
	if err := s.repo.Save(ctx, slot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save decline")
	}

	// A fresh row carries the position from here on; the declined row is
	// history.
	replacement := &models.MatchAssignment{
		MatchID:         slot.MatchID,
		Role:            slot.Role,
		Position:        slot.Position,
		PlaceholderType: enums.PlaceholderMissing,
		ResponseStatus:  enums.ResponseStatusPending,
	}
	if err := s.repo.Create(ctx, replacement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open replacement slot")
	}

	if err := s.syncMatchStatus(ctx, slot.MatchID); err != nil {
		return nil, err
	}

	if err := s.decls.FlagDeclined(ctx, declinedBy, slot.MatchID); err != nil {
		return nil, err
	}

	s.notifyCommittee(ctx, "Küldés lemondva", fmt.Sprintf("A játékvezető lemondta a küldést (mérkőzés: %s).", slot.MatchID))

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &declinedBy,
		Action:     "assignment.decline",
		EntityType: "match_assignment",
		EntityID:   &slot.ID,
	})
	return FromModel(slot), nil
}

// Remove clears the user from a slot on behalf of the committee.
func (s *service) Remove(ctx context.Context, actorID, assignmentID uuid.UUID) (*AssignmentDTO, error) {
	slot, err := s.find(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if slot.UserID == nil {
		return FromModel(slot), nil
	}

	removedUser := *slot.UserID
	slot.UserID = nil
	slot.PlaceholderType = enums.PlaceholderMissing
	slot.ResponseStatus = enums.ResponseStatusPending
	slot.RespondedAt = nil
	slot.DeclineReason = nil
	if err := s.repo.Save(ctx, slot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save removal")
	}
	if err := s.syncMatchStatus(ctx, slot.MatchID); err != nil {
		return nil, err
	}

	if err := s.decls.FlagAssignmentRemoved(ctx, removedUser, slot.MatchID); err != nil {
		return nil, err
	}

	if err := s.notify.Notify(ctx, notifications.NotifyInput{
		UserID:   removedUser,
		Category: enums.NotificationCategoryAssignments,
		Title:    "Küldés visszavonva",
		Message:  "A bizottság visszavonta a küldését.",
	}); err != nil {
		s.logg.Error(ctx, "notify removed assignee", err)
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "assignment.remove",
		EntityType: "match_assignment",
		EntityID:   &slot.ID,
		Summary:    fmt.Sprintf("user %s", removedUser),
	})
	return FromModel(slot), nil
}

// SetPlaceholder lets the committee flag an empty slot as needed or not.
func (s *service) SetPlaceholder(ctx context.Context, actorID, assignmentID uuid.UUID, placeholder enums.PlaceholderType) (*AssignmentDTO, error) {
	if !placeholder.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid placeholder type")
	}

	slot, err := s.find(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if slot.UserID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "slot has an assignee")
	}

	slot.PlaceholderType = placeholder
	if err := s.repo.Save(ctx, slot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save placeholder")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "assignment.placeholder",
		EntityType: "match_assignment",
		EntityID:   &slot.ID,
		Summary:    string(placeholder),
	})
	return FromModel(slot), nil
}

func (s *service) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]AssignmentDTO, error) {
	rows, err := s.repo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return FromModels(rows), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, upcomingOnly bool) ([]AssignmentDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListByUser(ctx, userID, upcomingOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return FromModels(rows), nil
}

// AllConfirmed reports whether every confirmation-counting slot is satisfied.
// Declined rows are history and do not count; at least one referee must be
// bound or explicitly marked not needed.
func (s *service) AllConfirmed(ctx context.Context, matchID uuid.UUID) (bool, error) {
	rows, err := s.repo.ListByMatch(ctx, matchID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}

	present := 0
	for _, slot := range rows {
		if !slot.Role.CountsTowardConfirmation() {
			continue
		}
		if slot.ResponseStatus == enums.ResponseStatusDeclined {
			continue
		}
		if !slot.IsSatisfied() {
			return false, nil
		}
		if slot.IsFilled() || slot.PlaceholderType == enums.PlaceholderNotNeeded {
			present++
		}
	}
	return present > 0, nil
}

// syncMatchStatus re-evaluates the hosting match after a response or removal:
// the last acceptance confirms a scheduled match, and losing an acceptance
// drops a confirmed match back to scheduled.
func (s *service) syncMatchStatus(ctx context.Context, matchID uuid.UUID) error {
	match, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup match")
	}

	confirmed, err := s.AllConfirmed(ctx, matchID)
	if err != nil {
		return err
	}

	var target enums.MatchStatus
	switch {
	case confirmed && match.Status == enums.MatchStatusScheduled:
		target = enums.MatchStatusConfirmed
	case !confirmed && match.Status == enums.MatchStatusConfirmed:
		target = enums.MatchStatusScheduled
	default:
		return nil
	}

	previous := match.Status
	match.Status = target
	if err := s.repo.SaveMatch(ctx, match); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save match status")
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "match.transition",
		EntityType: "match",
		EntityID:   &match.ID,
		Summary:    fmt.Sprintf("%s -> %s", previous, target),
	})
	return nil
}

func (s *service) notifyCommittee(ctx context.Context, title, message string) {
	ids, err := s.committee.ListCommittee(ctx)
	if err != nil {
		s.logg.Error(ctx, "list committee for notification", err)
		return
	}
	err = s.notify.NotifyMany(ctx, ids, notifications.NotifyInput{
		Category: enums.NotificationCategoryAssignments,
		Title:    title,
		Message:  message,
	})
	if err != nil {
		s.logg.Error(ctx, "notify committee", err)
	}
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.MatchAssignment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup assignment")
	}
	return slot, nil
}
