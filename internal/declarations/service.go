package declarations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	dbtypes "github.com/jaradmin/jar-backend/pkg/db/types"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
	"github.com/jaradmin/jar-backend/pkg/pagination"
)

// AccountantDirectory resolves the users who should hear about declaration
// drift.
type AccountantDirectory interface {
	ListAccountants(ctx context.Context) ([]uuid.UUID, error)
}

// Service owns the tax declaration lifecycle and the drift detector.
type Service interface {
	MarkDeclared(ctx context.Context, actorID, declarationID uuid.UUID) (*DeclarationDTO, error)
	Get(ctx context.Context, declarationID uuid.UUID) (*DeclarationDTO, []string, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Reconcile(ctx context.Context, matchID uuid.UUID) error
	EnsurePending(ctx context.Context, input EnsurePendingInput) error
	FlagAssignmentRemoved(ctx context.Context, userID, matchID uuid.UUID) error
	FlagDeclined(ctx context.Context, userID, matchID uuid.UUID) error
}

// EnsurePendingInput links a declaration to a (re-)assigned user.
type EnsurePendingInput struct {
	UserID       uuid.UUID
	MatchID      uuid.UUID
	AssignmentID uuid.UUID
	BillingType  enums.BillingType
}

// ListParams configures pagination and filters for accountants.
type ListParams struct {
	Limit       int
	Cursor      string
	Status      *enums.DeclarationStatus
	BillingType *enums.BillingType
	UserID      *uuid.UUID
}

// ListResult wraps a page of declarations and the cursor for the next page.
type ListResult struct {
	Items  []DeclarationDTO `json:"items"`
	Cursor string           `json:"cursor"`
}

type service struct {
	repo        Repository
	notify      notifications.Service
	accountants AccountantDirectory
	audit       audit.Service
	logg        *logger.Logger
}

type Params struct {
	Repo        Repository
	Notify      notifications.Service
	Accountants AccountantDirectory
	Audit       audit.Service
	Logger      *logger.Logger
}

// NewService wires declaration dependencies.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "declarations repository required")
	}
	if p.Notify == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification service required")
	}
	if p.Accountants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "accountant directory required")
	}
	if p.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit service required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:        p.Repo,
		notify:      p.Notify,
		accountants: p.Accountants,
		audit:       p.Audit,
		logg:        p.Logger,
	}, nil
}

// MarkDeclared snapshots the live match facts onto the declaration so later
// edits can be detected as drift.
func (s *service) MarkDeclared(ctx context.Context, actorID, declarationID uuid.UUID) (*DeclarationDTO, error) {
	decl, err := s.find(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if decl.Status == enums.DeclarationStatusDeclared {
		return FromModel(decl), nil
	}
	if decl.Status == enums.DeclarationStatusModified {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "declaration has unresolved changes")
	}

	facts, err := s.repo.MatchFacts(ctx, decl.MatchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve match facts")
	}

	now := time.Now().UTC()
	date := facts.Date
	kickoff := facts.Kickoff
	venueID := facts.VenueID

	decl.Status = enums.DeclarationStatusDeclared
	decl.DeclaredAt = &now
	decl.DeclaredDate = &date
	decl.DeclaredTime = &kickoff
	decl.DeclaredVenueID = &venueID
	decl.DeclaredReferees = dbtypes.StringList(facts.Referees)
	decl.AssignmentDeleted = false
	decl.Declined = false

	if err := s.repo.Save(ctx, decl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save declaration")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "declaration.declared",
		EntityType: "tax_declaration",
		EntityID:   &decl.ID,
		Summary:    fmt.Sprintf("match %s user %s", decl.MatchID, decl.UserID),
	})
	return FromModel(decl), nil
}

func (s *service) Get(ctx context.Context, declarationID uuid.UUID) (*DeclarationDTO, []string, error) {
	decl, err := s.find(ctx, declarationID)
	if err != nil {
		return nil, nil, err
	}

	changes, err := s.changesFor(ctx, decl)
	if err != nil {
		return nil, nil, err
	}
	return FromModel(decl), changes, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listDeclarationsParams{
		Limit:       pagination.LimitWithBuffer(params.Limit),
		Status:      params.Status,
		BillingType: params.BillingType,
		UserID:      params.UserID,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list declarations")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: FromModels(rows), Cursor: cursor}, nil
}

// Reconcile re-evaluates every declaration on the match against the live
// facts. Declared declarations that drifted flip to modified and the
// accountants hear about it exactly once per transition.
func (s *service) Reconcile(ctx context.Context, matchID uuid.UUID) error {
	decls, err := s.repo.ListByMatch(ctx, matchID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list declarations for match")
	}
	if len(decls) == 0 {
		return nil
	}

	facts, err := s.repo.MatchFacts(ctx, matchID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve match facts")
	}

	for i := range decls {
		decl := &decls[i]
		if decl.Status != enums.DeclarationStatusDeclared {
			continue
		}

		changes, err := s.changesAgainst(ctx, decl, facts)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			continue
		}

		decl.Status = enums.DeclarationStatusModified
		if err := s.repo.Save(ctx, decl); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save modified declaration")
		}
		s.notifyAccountants(ctx, decl, changes)
	}
	return nil
}

// EnsurePending creates the pending declaration for a fresh assignment, or
// re-links an orphaned one when the same user returns to the match.
func (s *service) EnsurePending(ctx context.Context, input EnsurePendingInput) error {
	if input.UserID == uuid.Nil || input.MatchID == uuid.Nil || input.AssignmentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user, match and assignment ids required")
	}
	if !input.BillingType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid billing type")
	}

	existing, err := s.repo.FindByUserMatch(ctx, input.UserID, input.MatchID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup declaration")
	}

	if existing == nil {
		assignmentID := input.AssignmentID
		decl := models.TaxDeclaration{
			UserID:       input.UserID,
			MatchID:      input.MatchID,
			AssignmentID: &assignmentID,
			Status:       enums.DeclarationStatusPending,
			BillingType:  input.BillingType,
		}
		if err := s.repo.Create(ctx, &decl); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create declaration")
		}
		return nil
	}

	// Re-link the orphan and clear the removal flags. If removal was the only
	// drift, the declaration silently reverts to declared.
	assignmentID := input.AssignmentID
	existing.AssignmentID = &assignmentID
	existing.AssignmentDeleted = false
	existing.Declined = false

	if existing.Status == enums.DeclarationStatusModified {
		changes, err := s.changesFor(ctx, existing)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			existing.Status = enums.DeclarationStatusDeclared
		}
	}

	if err := s.repo.Save(ctx, existing); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "relink declaration")
	}
	return nil
}

// FlagAssignmentRemoved detaches the declaration from its assignment and
// records the removal as drift.
func (s *service) FlagAssignmentRemoved(ctx context.Context, userID, matchID uuid.UUID) error {
	return s.flag(ctx, userID, matchID, func(decl *models.TaxDeclaration) {
		decl.AssignmentID = nil
		decl.AssignmentDeleted = true
	}, changeAssignmentRemoved)
}

// FlagDeclined records a decline as drift on the declaration.
func (s *service) FlagDeclined(ctx context.Context, userID, matchID uuid.UUID) error {
	return s.flag(ctx, userID, matchID, func(decl *models.TaxDeclaration) {
		decl.AssignmentID = nil
		decl.Declined = true
	}, changeDeclined)
}

func (s *service) flag(ctx context.Context, userID, matchID uuid.UUID, mutate func(*models.TaxDeclaration), change string) error {
	decl, err := s.repo.FindByUserMatch(ctx, userID, matchID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup declaration")
	}
	if decl == nil {
		return nil
	}

	mutate(decl)

	wasDeclared := decl.Status == enums.DeclarationStatusDeclared
	if wasDeclared {
		decl.Status = enums.DeclarationStatusModified
	}
	if err := s.repo.Save(ctx, decl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag declaration")
	}

	if wasDeclared {
		s.notifyAccountants(ctx, decl, []string{change})
	}
	return nil
}

func (s *service) notifyAccountants(ctx context.Context, decl *models.TaxDeclaration, changes []string) {
	ids, err := s.accountants.ListAccountants(ctx)
	if err != nil {
		s.logg.Error(ctx, "list accountants for drift notification", err)
		return
	}
	err = s.notify.NotifyMany(ctx, ids, notifications.NotifyInput{
		Category: enums.NotificationCategoryTaxDeclarations,
		Title:    "Bejelentett mérkőzés módosult",
		Message:  strings.Join(changes, "\n"),
	})
	if err != nil {
		s.logg.Error(ctx, "notify accountants about drift", err)
	}
}

func (s *service) changesFor(ctx context.Context, decl *models.TaxDeclaration) ([]string, error) {
	facts, err := s.repo.MatchFacts(ctx, decl.MatchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve match facts")
	}
	return s.changesAgainst(ctx, decl, facts)
}

func (s *service) changesAgainst(ctx context.Context, decl *models.TaxDeclaration, facts *MatchFacts) ([]string, error) {
	declaredVenueName := ""
	if decl.DeclaredVenueID != nil && *decl.DeclaredVenueID != facts.VenueID {
		name, err := s.repo.VenueName(ctx, *decl.DeclaredVenueID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve declared venue")
		}
		declaredVenueName = name
	}
	return Changes(*decl, declaredVenueName, *facts), nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.TaxDeclaration, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "declaration id required")
	}
	decl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "declaration not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup declaration")
	}
	return decl, nil
}
