package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/pkg/config"
	"github.com/jaradmin/jar-backend/pkg/db"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
	"github.com/jaradmin/jar-backend/pkg/pagination"
	"github.com/jaradmin/jar-backend/pkg/security"
)

// Service exposes user administration and self-service profile operations.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, input CreateUserInput) (*UserDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, actorID, id uuid.UUID, input UpdateUserInput) (*UserDTO, error)
	SetArchived(ctx context.Context, actorID, id uuid.UUID, archived bool) (*UserDTO, error)
	SetLoginDisabled(ctx context.Context, actorID, id uuid.UUID, disabled bool) (*UserDTO, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	GetNotificationSetting(ctx context.Context, userID uuid.UUID) (*NotificationSettingDTO, error)
	UpdateNotificationSetting(ctx context.Context, userID uuid.UUID, input NotificationSettingDTO) (*NotificationSettingDTO, error)
}

// ListParams configures pagination and filters for the user directory.
type ListParams struct {
	Limit    int
	Cursor   string
	Role     *enums.Role
	Archived *bool
	Search   string
}

// ListResult wraps a page of users and the cursor for the next page.
type ListResult struct {
	Items  []UserDTO `json:"items"`
	Cursor string    `json:"cursor"`
}

type service struct {
	repo        Repository
	audit       audit.Service
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

type Params struct {
	Repo           Repository
	Audit          audit.Service
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService wires user administration dependencies.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if p.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit service required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:        p.Repo,
		audit:       p.Audit,
		passwordCfg: p.PasswordConfig,
		logg:        p.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, input CreateUserInput) (*UserDTO, error) {
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if input.BillingType != nil && !input.BillingType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid billing type")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := models.User{
		Email:            strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash:     hash,
		FirstName:        strings.TrimSpace(input.FirstName),
		LastName:         strings.TrimSpace(input.LastName),
		Phone:            input.Phone,
		Role:             input.Role,
		IsRefereeFlag:    input.IsRefereeFlag,
		IsInspectorFlag:  input.IsInspectorFlag,
		IsAccountantFlag: input.IsAccountantFlag,
		BillingType:      input.BillingType,
		TaxNumber:        input.TaxNumber,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "user.create",
		EntityType: "user",
		EntityID:   &user.ID,
		Summary:    user.Email,
	})
	return FromModel(&user), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listUsersParams{
		Limit:    pagination.LimitWithBuffer(params.Limit),
		Role:     params.Role,
		Archived: params.Archived,
		Search:   strings.TrimSpace(params.Search),
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: FromModels(rows), Cursor: cursor}, nil
}

func (s *service) Update(ctx context.Context, actorID, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		user.Role = *input.Role
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.IsRefereeFlag != nil {
		user.IsRefereeFlag = *input.IsRefereeFlag
	}
	if input.IsInspectorFlag != nil {
		user.IsInspectorFlag = *input.IsInspectorFlag
	}
	if input.IsAccountantFlag != nil {
		user.IsAccountantFlag = *input.IsAccountantFlag
	}
	if input.MedicalExpiresAt != nil {
		user.MedicalExpiresAt = input.MedicalExpiresAt
	}
	if input.BillingType != nil {
		if !input.BillingType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid billing type")
		}
		user.BillingType = input.BillingType
	}
	if input.TaxNumber != nil {
		user.TaxNumber = input.TaxNumber
	}

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "user.update",
		EntityType: "user",
		EntityID:   &user.ID,
		Summary:    user.Email,
	})
	return FromModel(user), nil
}

func (s *service) SetArchived(ctx context.Context, actorID, id uuid.UUID, archived bool) (*UserDTO, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsSuperAdmin && archived {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "super admin cannot be archived")
	}

	user.Archived = archived
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive user")
	}

	action := "user.archive"
	if !archived {
		action = "user.unarchive"
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     action,
		EntityType: "user",
		EntityID:   &user.ID,
		Summary:    user.Email,
	})
	return FromModel(user), nil
}

func (s *service) SetLoginDisabled(ctx context.Context, actorID, id uuid.UUID, disabled bool) (*UserDTO, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsSuperAdmin && disabled {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "super admin login cannot be disabled")
	}

	user.LoginDisabled = disabled
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update login flag")
	}

	action := "user.disable_login"
	if !disabled {
		action = "user.enable_login"
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     action,
		EntityType: "user",
		EntityID:   &user.ID,
		Summary:    user.Email,
	})
	return FromModel(user), nil
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if user.IsSuperAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "super admin cannot be deleted")
	}

	if err := s.repo.Delete(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actorID,
		Action:     "user.delete",
		EntityType: "user",
		EntityID:   &user.ID,
		Summary:    user.Email,
	})
	return nil
}

func (s *service) GetNotificationSetting(ctx context.Context, userID uuid.UUID) (*NotificationSettingDTO, error) {
	setting, err := s.loadOrDefaultSetting(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := settingFromModel(setting)
	return &dto, nil
}

func (s *service) UpdateNotificationSetting(ctx context.Context, userID uuid.UUID, input NotificationSettingDTO) (*NotificationSettingDTO, error) {
	setting, err := s.loadOrDefaultSetting(ctx, userID)
	if err != nil {
		return nil, err
	}

	setting.NotifyAssignments = input.NotifyAssignments
	setting.NotifyMatchChanges = input.NotifyMatchChanges
	setting.NotifyTaxDeclarations = input.NotifyTaxDeclarations
	setting.NotifyMedical = input.NotifyMedical
	setting.NotifyBilling = input.NotifyBilling
	setting.EmailEnabled = input.EmailEnabled

	if err := s.repo.SaveSetting(ctx, setting); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save notification settings")
	}
	dto := settingFromModel(setting)
	return &dto, nil
}

// loadOrDefaultSetting returns the stored row or an unsaved all-on default.
func (s *service) loadOrDefaultSetting(ctx context.Context, userID uuid.UUID) (*models.NotificationSetting, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	setting, err := s.repo.GetSetting(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification settings")
	}
	if setting == nil {
		setting = &models.NotificationSetting{
			UserID:                userID,
			NotifyAssignments:     true,
			NotifyMatchChanges:    true,
			NotifyTaxDeclarations: true,
			NotifyMedical:         true,
			NotifyBilling:         true,
			EmailEnabled:          true,
		}
	}
	return setting, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	return user, nil
}
