package education

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/pagination"
)

// Repository persists news articles and knowledge-base posts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateNews(ctx context.Context, post *models.NewsPost) error
	SaveNews(ctx context.Context, post *models.NewsPost) error
	FindNews(ctx context.Context, id uuid.UUID) (*models.NewsPost, error)
	ListNews(ctx context.Context, params listPostsParams) ([]models.NewsPost, *pagination.Cursor, error)
	DeleteNews(ctx context.Context, post *models.NewsPost) error
	PublishDueNews(ctx context.Context, now time.Time) (int64, error)

	CreateKnowledge(ctx context.Context, post *models.KnowledgePost) error
	SaveKnowledge(ctx context.Context, post *models.KnowledgePost) error
	FindKnowledge(ctx context.Context, id uuid.UUID) (*models.KnowledgePost, error)
	ListKnowledge(ctx context.Context, params listPostsParams) ([]models.KnowledgePost, *pagination.Cursor, error)
	DeleteKnowledge(ctx context.Context, post *models.KnowledgePost) error
	PublishDueKnowledge(ctx context.Context, now time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an education repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listPostsParams struct {
	Limit         int
	Cursor        *pagination.Cursor
	PublishedOnly bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateNews(ctx context.Context, post *models.NewsPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *repositoryImpl) SaveNews(ctx context.Context, post *models.NewsPost) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *repositoryImpl) FindNews(ctx context.Context, id uuid.UUID) (*models.NewsPost, error) {
	var post models.NewsPost
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repositoryImpl) ListNews(ctx context.Context, params listPostsParams) ([]models.NewsPost, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.NewsPost{})
	if params.PublishedOnly {
		query = query.Where("is_published = TRUE")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.NewsPost
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) DeleteNews(ctx context.Context, post *models.NewsPost) error {
	return r.db.WithContext(ctx).Delete(post).Error
}

// PublishDueNews flips every scheduled article whose time has come.
func (r *repositoryImpl) PublishDueNews(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.NewsPost{}).
		Where("is_published = FALSE AND scheduled_at IS NOT NULL AND scheduled_at <= ?", now).
		Updates(map[string]any{
			"is_published": true,
			"published_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CreateKnowledge(ctx context.Context, post *models.KnowledgePost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *repositoryImpl) SaveKnowledge(ctx context.Context, post *models.KnowledgePost) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *repositoryImpl) FindKnowledge(ctx context.Context, id uuid.UUID) (*models.KnowledgePost, error) {
	var post models.KnowledgePost
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repositoryImpl) ListKnowledge(ctx context.Context, params listPostsParams) ([]models.KnowledgePost, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.KnowledgePost{})
	if params.PublishedOnly {
		query = query.Where("is_draft = FALSE")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.KnowledgePost
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) DeleteKnowledge(ctx context.Context, post *models.KnowledgePost) error {
	return r.db.WithContext(ctx).Delete(post).Error
}

// PublishDueKnowledge clears the draft flag on every post whose time has come.
func (r *repositoryImpl) PublishDueKnowledge(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.KnowledgePost{}).
		Where("is_draft = TRUE AND scheduled_at IS NOT NULL AND scheduled_at <= ?", now).
		Update("is_draft", false)
	return result.RowsAffected, result.Error
}
