package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	"github.com/jaradmin/jar-backend/pkg/pagination"
)

// Repository exposes user-related persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, params listUsersParams) ([]models.User, *pagination.Cursor, error)
	ListByCapabilityFlag(ctx context.Context, role enums.Role, flagColumn string) ([]models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
	ListByRoles(ctx context.Context, roles []enums.Role) ([]models.User, error)
	ListWithMedicalExpiringOn(ctx context.Context, day time.Time) ([]models.User, error)
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordFailedLogin(ctx context.Context, id uuid.UUID, attempts int, lockedUntil *time.Time) error
	ResetFailedLogins(ctx context.Context, id uuid.UUID) error
	GetSetting(ctx context.Context, userID uuid.UUID) (*models.NotificationSetting, error)
	SaveSetting(ctx context.Context, setting *models.NotificationSetting) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listUsersParams struct {
	Limit    int
	Cursor   *pagination.Cursor
	Role     *enums.Role
	Archived *bool
	Search   string
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repositoryImpl) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listUsersParams) ([]models.User, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.User{})
	if params.Role != nil {
		query = query.Where("role = ?", *params.Role)
	}
	if params.Archived != nil {
		query = query.Where("archived = ?", *params.Archived)
	}
	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where(
			"email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?",
			like, like, like,
		)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.User
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

// ListByCapabilityFlag returns active users holding the role or the matching
// override flag. flagColumn must be one of the is_*_flag columns.
func (r *repositoryImpl) ListByCapabilityFlag(ctx context.Context, role enums.Role, flagColumn string) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("archived = FALSE").
		Where("role = ? OR "+flagColumn+" = TRUE OR role = ?", role, enums.RoleAdmin).
		Find(&rows).Error
	return rows, err
}

// ListByRoles returns every non-archived user holding one of the roles.
func (r *repositoryImpl) ListByRoles(ctx context.Context, roles []enums.Role) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("archived = FALSE AND role IN ?", roles).
		Find(&rows).Error
	return rows, err
}

// ListAdmins returns every non-archived admin account.
func (r *repositoryImpl) ListAdmins(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("archived = FALSE AND role = ?", enums.RoleAdmin).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListWithMedicalExpiringOn(ctx context.Context, day time.Time) ([]models.User, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("archived = FALSE").
		Where("medical_expires_at >= ? AND medical_expires_at < ?", start, end).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Delete(user).Error
}

func (r *repositoryImpl) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *repositoryImpl) RecordFailedLogin(ctx context.Context, id uuid.UUID, attempts int, lockedUntil *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"failed_login_attempts": attempts,
			"locked_until":          lockedUntil,
		}).Error
}

func (r *repositoryImpl) ResetFailedLogins(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"failed_login_attempts": 0,
			"locked_until":          nil,
		}).Error
}

func (r *repositoryImpl) GetSetting(ctx context.Context, userID uuid.UUID) (*models.NotificationSetting, error) {
	var setting models.NotificationSetting
	err := r.db.WithContext(ctx).First(&setting, "user_id = ?", userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (r *repositoryImpl) SaveSetting(ctx context.Context, setting *models.NotificationSetting) error {
	return r.db.WithContext(ctx).Save(setting).Error
}
