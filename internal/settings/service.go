package settings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
)

// Snapshot is a point-in-time copy of the operational knobs. Every workflow
// decision reads one snapshot so a mid-request settings change cannot split a
// single evaluation.
type Snapshot struct {
	MinCancellationHours      int  `json:"min_cancellation_hours"`
	RequireCancellationReason bool `json:"require_cancellation_reason"`
}

// UpdateInput carries the committee-editable values.
type UpdateInput struct {
	MinCancellationHours      int  `json:"min_cancellation_hours" validate:"required,min=0,max=720"`
	RequireCancellationReason bool `json:"require_cancellation_reason"`
}

// Service exposes site settings reads and committee updates.
type Service interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Update(ctx context.Context, actorID uuid.UUID, input UpdateInput) (Snapshot, error)
}

type service struct {
	repo  Repository
	audit audit.Service
}

type Params struct {
	Repo  Repository
	Audit audit.Service
}

// NewService wires settings dependencies.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings repository required")
	}
	if p.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit service required")
	}
	return &service{repo: p.Repo, audit: p.Audit}, nil
}

func (s *service) Snapshot(ctx context.Context) (Snapshot, error) {
	row, err := s.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		MinCancellationHours:      row.MinCancellationHours,
		RequireCancellationReason: row.RequireCancellationReason,
	}, nil
}

// load returns the singleton row, seeding the defaults when the migration seed
// is missing.
func (s *service) load(ctx context.Context) (*models.SiteSettings, error) {
	row, err := s.repo.Get(ctx)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load site settings")
	}

	seeded := &models.SiteSettings{
		ID:                        models.SiteSettingsRowID,
		MinCancellationHours:      96,
		RequireCancellationReason: true,
	}
	if err := s.repo.Save(ctx, seeded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed site settings")
	}
	return seeded, nil
}

func (s *service) Update(ctx context.Context, actorID uuid.UUID, input UpdateInput) (Snapshot, error) {
	if input.MinCancellationHours < 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "cancellation window cannot be negative")
	}

	row, err := s.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	row.MinCancellationHours = input.MinCancellationHours
	row.RequireCancellationReason = input.RequireCancellationReason
	if err := s.repo.Save(ctx, row); err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save site settings")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "settings.update",
		EntityType: "site_settings",
		Summary:    "operational settings changed",
		Metadata: map[string]any{
			"min_cancellation_hours":      input.MinCancellationHours,
			"require_cancellation_reason": input.RequireCancellationReason,
		},
	})
	return Snapshot{
		MinCancellationHours:      row.MinCancellationHours,
		RequireCancellationReason: row.RequireCancellationReason,
	}, nil
}
