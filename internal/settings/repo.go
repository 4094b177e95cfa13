package settings

import (
	"context"

	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/db/models"
)

// Repository reads and writes the single site settings row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context) (*models.SiteSettings, error)
	Save(ctx context.Context, settings *models.SiteSettings) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a settings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Get(ctx context.Context) (*models.SiteSettings, error) {
	var row models.SiteSettings
	if err := r.db.WithContext(ctx).First(&row, "id = ?", models.SiteSettingsRowID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) Save(ctx context.Context, settings *models.SiteSettings) error {
	settings.ID = models.SiteSettingsRowID
	return r.db.WithContext(ctx).Save(settings).Error
}
