package education

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
	"github.com/jaradmin/jar-backend/pkg/logger"
	"github.com/jaradmin/jar-backend/pkg/pagination"
)

// PostInput carries the editable fields of a news or knowledge post. A nil
// ScheduledAt with PublishNow false leaves the post unpublished.
type PostInput struct {
	Title       string     `json:"title" validate:"required,max=300"`
	Body        string     `json:"body" validate:"required"`
	PublishNow  bool       `json:"publish_now"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// ListPostsParams configures listing.
type ListPostsParams struct {
	Limit         int
	Cursor        string
	PublishedOnly bool
}

// NewsListResult is one page of news articles.
type NewsListResult struct {
	Posts      []models.NewsPost `json:"posts"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// KnowledgeListResult is one page of knowledge posts.
type KnowledgeListResult struct {
	Posts      []models.KnowledgePost `json:"posts"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// Service owns the portal's news and knowledge base.
type Service interface {
	CreateNews(ctx context.Context, actorID uuid.UUID, input PostInput) (*models.NewsPost, error)
	UpdateNews(ctx context.Context, actorID, id uuid.UUID, input PostInput) (*models.NewsPost, error)
	GetNews(ctx context.Context, id uuid.UUID) (*models.NewsPost, error)
	ListNews(ctx context.Context, params ListPostsParams) (*NewsListResult, error)
	DeleteNews(ctx context.Context, actorID, id uuid.UUID) error

	CreateKnowledge(ctx context.Context, actorID uuid.UUID, input PostInput) (*models.KnowledgePost, error)
	UpdateKnowledge(ctx context.Context, actorID, id uuid.UUID, input PostInput) (*models.KnowledgePost, error)
	GetKnowledge(ctx context.Context, id uuid.UUID) (*models.KnowledgePost, error)
	ListKnowledge(ctx context.Context, params ListPostsParams) (*KnowledgeListResult, error)
	DeleteKnowledge(ctx context.Context, actorID, id uuid.UUID) error

	// PublishDue flips everything whose schedule has passed; the scheduler
	// calls it every cycle it runs.
	PublishDue(ctx context.Context, now time.Time) (int64, error)
}

type service struct {
	repo  Repository
	audit audit.Service
	logg  *logger.Logger
	now   func() time.Time
}

type Params struct {
	Repo   Repository
	Audit  audit.Service
	Logger *logger.Logger
	Now    func() time.Time
}

// NewService wires education dependencies.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "education repository required")
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
	return &service{repo: p.Repo, audit: p.Audit, logg: p.Logger, now: p.Now}, nil
}

func validatePost(input PostInput) error {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Body) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title and body required")
	}
	if input.PublishNow && input.ScheduledAt != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "choose publish now or a schedule, not both")
	}
	return nil
}

func (s *service) CreateNews(ctx context.Context, actorID uuid.UUID, input PostInput) (*models.NewsPost, error) {
	if err := validatePost(input); err != nil {
		return nil, err
	}
	post := &models.NewsPost{
		AuthorID:    actorID,
		Title:       strings.TrimSpace(input.Title),
		Body:        input.Body,
		ScheduledAt: input.ScheduledAt,
	}
	if input.PublishNow {
		now := s.now().UTC()
		post.IsPublished = true
		post.PublishedAt = &now
	}
	if err := s.repo.CreateNews(ctx, post); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create news")
	}
	s.record(ctx, actorID, "news.create", "news_post", post.ID, post.Title)
	return post, nil
}

func (s *service) UpdateNews(ctx context.Context, actorID, id uuid.UUID, input PostInput) (*models.NewsPost, error) {
	if err := validatePost(input); err != nil {
		return nil, err
	}
	post, err := s.repo.FindNews(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "news post not found", "lookup news")
	}
	post.Title = strings.TrimSpace(input.Title)
	post.Body = input.Body
	post.ScheduledAt = input.ScheduledAt
	if input.PublishNow && !post.IsPublished {
		now := s.now().UTC()
		post.IsPublished = true
		post.PublishedAt = &now
	}
	if err := s.repo.SaveNews(ctx, post); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save news")
	}
	s.record(ctx, actorID, "news.update", "news_post", post.ID, post.Title)
	return post, nil
}

func (s *service) GetNews(ctx context.Context, id uuid.UUID) (*models.NewsPost, error) {
	post, err := s.repo.FindNews(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "news post not found", "lookup news")
	}
	return post, nil
}

func (s *service) ListNews(ctx context.Context, params ListPostsParams) (*NewsListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListNews(ctx, listPostsParams{
		Limit:         params.Limit,
		Cursor:        cursor,
		PublishedOnly: params.PublishedOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list news")
	}
	result := &NewsListResult{Posts: rows}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) DeleteNews(ctx context.Context, actorID, id uuid.UUID) error {
	post, err := s.repo.FindNews(ctx, id)
	if err != nil {
		return notFoundOr(err, "news post not found", "lookup news")
	}
	if err := s.repo.DeleteNews(ctx, post); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete news")
	}
	s.record(ctx, actorID, "news.delete", "news_post", post.ID, post.Title)
	return nil
}

func (s *service) CreateKnowledge(ctx context.Context, actorID uuid.UUID, input PostInput) (*models.KnowledgePost, error) {
	if err := validatePost(input); err != nil {
		return nil, err
	}
	post := &models.KnowledgePost{
		AuthorID:    actorID,
		Title:       strings.TrimSpace(input.Title),
		Body:        input.Body,
		IsDraft:     !input.PublishNow,
		ScheduledAt: input.ScheduledAt,
	}
	if err := s.repo.CreateKnowledge(ctx, post); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create knowledge post")
	}
	s.record(ctx, actorID, "knowledge.create", "knowledge_post", post.ID, post.Title)
	return post, nil
}

func (s *service) UpdateKnowledge(ctx context.Context, actorID, id uuid.UUID, input PostInput) (*models.KnowledgePost, error) {
	if err := validatePost(input); err != nil {
		return nil, err
	}
	post, err := s.repo.FindKnowledge(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "knowledge post not found", "lookup knowledge post")
	}
	post.Title = strings.TrimSpace(input.Title)
	post.Body = input.Body
	post.ScheduledAt = input.ScheduledAt
	if input.PublishNow {
		post.IsDraft = false
	}
	if err := s.repo.SaveKnowledge(ctx, post); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save knowledge post")
	}
	s.record(ctx, actorID, "knowledge.update", "knowledge_post", post.ID, post.Title)
	return post, nil
}

func (s *service) GetKnowledge(ctx context.Context, id uuid.UUID) (*models.KnowledgePost, error) {
	post, err := s.repo.FindKnowledge(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "knowledge post not found", "lookup knowledge post")
	}
	return post, nil
}

func (s *service) ListKnowledge(ctx context.Context, params ListPostsParams) (*KnowledgeListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListKnowledge(ctx, listPostsParams{
		Limit:         params.Limit,
		Cursor:        cursor,
		PublishedOnly: params.PublishedOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list knowledge posts")
	}
	result := &KnowledgeListResult{Posts: rows}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) DeleteKnowledge(ctx context.Context, actorID, id uuid.UUID) error {
	post, err := s.repo.FindKnowledge(ctx, id)
	if err != nil {
		return notFoundOr(err, "knowledge post not found", "lookup knowledge post")
	}
	if err := s.repo.DeleteKnowledge(ctx, post); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete knowledge post")
	}
	s.record(ctx, actorID, "knowledge.delete", "knowledge_post", post.ID, post.Title)
	return nil
}

func (s *service) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	news, err := s.repo.PublishDueNews(ctx, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish due news")
	}
	knowledge, err := s.repo.PublishDueKnowledge(ctx, now)
	if err != nil {
		return news, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish due knowledge posts")
	}
	return news + knowledge, nil
}

func (s *service) record(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, summary string) {
	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
		Summary:    summary,
	})
}

func notFoundOr(err error, notFound, wrapMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, wrapMsg)
}
