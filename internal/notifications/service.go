package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	pkgerrors "github.com/jaradmin/jar-backend/pkg/errors"
	"github.com/jaradmin/jar-backend/pkg/logger"
	"github.com/jaradmin/jar-backend/pkg/mailer"
	"github.com/jaradmin/jar-backend/pkg/pagination"
)

// Service fans notifications out to users and exposes the inbox operations.
type Service interface {
	Notify(ctx context.Context, input NotifyInput) error
	NotifyMany(ctx context.Context, userIDs []uuid.UUID, input NotifyInput) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type service struct {
	repo Repository
	mail mailer.Mailer
	logg *logger.Logger
}

// Params wires notification dependencies. Mailer is optional; without it
// notifications are in-app only.
type Params struct {
	Repo   Repository
	Mailer mailer.Mailer
	Logger *logger.Logger
}

// NotifyInput describes one notification to deliver.
type NotifyInput struct {
	UserID   uuid.UUID
	Category enums.NotificationCategory
	Title    string
	Message  string
	Link     *string
}

// ListParams configures pagination for the inbox.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: p.Repo, mail: p.Mailer, logg: p.Logger}, nil
}

func (s *service) Notify(ctx context.Context, input NotifyInput) error {
	if err := validateNotifyInput(input); err != nil {
		return err
	}

	setting, err := s.repo.GetSetting(ctx, input.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification settings")
	}
	if setting != nil && !setting.Allows(input.Category) {
		return nil
	}

	notification := models.Notification{
		UserID:   input.UserID,
		Category: input.Category,
		Title:    input.Title,
		Message:  input.Message,
		Link:     input.Link,
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	s.sendEmail(ctx, input, setting)
	return nil
}

func (s *service) NotifyMany(ctx context.Context, userIDs []uuid.UUID, input NotifyInput) error {
	if input.Category == "" || !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "valid notification category required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}

	for _, userID := range userIDs {
		perUser := input
		perUser.UserID = userID
		if err := s.Notify(ctx, perUser); err != nil {
			// One bad recipient must not starve the rest of the fan-out.
			s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "notification fan-out failed for recipient", err)
		}
	}
	return nil
}

// sendEmail is best effort: failures are logged and never surfaced to the
// caller, per the delivery contract.
func (s *service) sendEmail(ctx context.Context, input NotifyInput, setting *models.NotificationSetting) {
	if s.mail == nil {
		return
	}
	if setting != nil && !setting.EmailEnabled {
		return
	}

	recipient, err := s.repo.GetRecipient(ctx, input.UserID)
	if err != nil {
		s.logg.Error(ctx, "load notification recipient", err)
		return
	}

	err = s.mail.Send(ctx, mailer.Message{
		ToName:  recipient.FullName(),
		ToEmail: recipient.Email,
		Subject: input.Title,
		Text:    input.Message,
	})
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, input.UserID.String()), "notification email failed", err)
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnreadOnly: params.UnreadOnly,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	count, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete old notifications")
	}
	return count, nil
}

func validateNotifyInput(input NotifyInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Category == "" || !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "valid notification category required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}
	return nil
}
