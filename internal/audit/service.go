package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	dbtypes "github.com/jaradmin/jar-backend/pkg/db/types"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
	"github.com/jaradmin/jar-backend/pkg/pagination"
)

// Service records and queries the audit trail.
type Service interface {
	Record(ctx context.Context, entry Entry)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

// Entry is one audit event. ActorID is nil for system actions.
type Entry struct {
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Summary    string
	Metadata   map[string]any
}

// ListParams configures pagination and filters for the audit trail.
type ListParams struct {
	Limit      int
	Cursor     string
	EntityType string
	Action     string
}

// ListResult wraps returned entries and the cursor for the next page.
type ListResult struct {
	Items  []models.AuditLog `json:"items"`
	Cursor string            `json:"cursor"`
}

type service struct {
	repo Repository
	logg *logger.Logger
}

type Params struct {
	Repo   Repository
	Logger *logger.Logger
}

// NewService wires audit dependencies.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit repository required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: p.Repo, logg: p.Logger}, nil
}

// Record is best effort: a failed audit write is logged and never blocks the
// operation that produced it.
func (s *service) Record(ctx context.Context, entry Entry) {
	row := models.AuditLog{
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Summary:    entry.Summary,
		Metadata:   dbtypes.JSONMap(entry.Metadata),
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		s.logg.Error(ctx, "audit write failed", err)
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listAuditParams{
		Limit:      pagination.LimitWithBuffer(params.Limit),
		EntityType: params.EntityType,
		Action:     params.Action,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}
