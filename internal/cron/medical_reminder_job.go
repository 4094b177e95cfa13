package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

// Reminders go out twice per expiry: a month ahead and a week ahead.
var medicalReminderDays = []int{30, 7}

// MedicalReminderJobParams configure the medical-expiry reminder job.
type MedicalReminderJobParams struct {
	Logger    *logger.Logger
	Users     medicalDirectory
	Notify    singleNotifier
	Ledger    Ledger
	DailyHour int
}

type medicalDirectory interface {
	ListWithMedicalExpiringOn(ctx context.Context, day time.Time) ([]models.User, error)
}

type singleNotifier interface {
	Notify(ctx context.Context, input notifications.NotifyInput) error
}

// NewMedicalReminderJob warns users whose medical exam is about to lapse.
func NewMedicalReminderJob(params MedicalReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	return &medicalReminderJob{
		logg:      params.Logger,
		users:     params.Users,
		notify:    params.Notify,
		ledger:    params.Ledger,
		dailyHour: params.DailyHour,
	}, nil
}

type medicalReminderJob struct {
	logg      *logger.Logger
	users     medicalDirectory
	notify    singleNotifier
	ledger    Ledger
	dailyHour int
}

func (j *medicalReminderJob) Name() string { return "medical-reminders" }

func (j *medicalReminderJob) Due(now time.Time) bool {
	return now.Hour() == j.dailyHour && now.Minute() == 0
}

func (j *medicalReminderJob) Run(ctx context.Context, now time.Time) error {
	var sent int
	for _, days := range medicalReminderDays {
		day := now.AddDate(0, 0, days)
		users, err := j.users.ListWithMedicalExpiringOn(ctx, day)
		if err != nil {
			return fmt.Errorf("list expiring medicals (%d days): %w", days, err)
		}
		for i := range users {
			user := users[i]
			key := fmt.Sprintf("medical:%s:%d:%s", user.ID, days, day.Format("2006-01-02"))
			first, err := j.ledger.MarkRun(ctx, j.Name(), key, now)
			if err != nil {
				return fmt.Errorf("ledger mark %s: %w", key, err)
			}
			if !first {
				continue
			}
			err = j.notify.Notify(ctx, notifications.NotifyInput{
				UserID:   user.ID,
				Category: enums.NotificationCategoryMedical,
				Title:    "Sportorvosi engedély lejár",
				Message:  fmt.Sprintf("A sportorvosi engedélyed %d nap múlva lejár. Kérjük, gondoskodj a megújításáról.", days),
			})
			if err != nil {
				logCtx := j.logg.WithField(ctx, "user_id", user.ID.String())
				j.logg.Error(logCtx, "medical reminder delivery failed", err)
				continue
			}
			sent++
		}
	}
	if sent > 0 {
		j.logg.Info(j.logg.WithField(ctx, "reminders_sent", sent), "medical reminders delivered")
	}
	return nil
}
