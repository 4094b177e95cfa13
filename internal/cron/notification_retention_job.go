package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/jaradmin/jar-backend/pkg/logger"
)

const defaultRetentionDays = 90

// NotificationRetentionJobParams configure the inbox pruning job.
type NotificationRetentionJobParams struct {
	Logger        *logger.Logger
	Notifications notificationPruner
	RetentionDays int
	DailyHour     int
}

type notificationPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewNotificationRetentionJob hard-deletes read notifications past the TTL.
func NewNotificationRetentionJob(params NotificationRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultRetentionDays
	}
	return &notificationRetentionJob{
		logg:      params.Logger,
		notifs:    params.Notifications,
		retention: retention,
		dailyHour: params.DailyHour,
	}, nil
}

type notificationRetentionJob struct {
	logg      *logger.Logger
	notifs    notificationPruner
	retention int
	dailyHour int
}

func (j *notificationRetentionJob) Name() string { return "notification-retention" }

func (j *notificationRetentionJob) Due(now time.Time) bool {
	return now.Hour() == j.dailyHour && now.Minute() == 0
}

func (j *notificationRetentionJob) Run(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.notifs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "notification retention sweep complete")
	return nil
}
