package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

// The committee is nagged on a tightening cadence as kickoff approaches.
var unfilledReminderDays = []int{5, 3, 2, 1}

// MatchReminderJobParams configure the unfilled-position reminder job.
type MatchReminderJobParams struct {
	Logger    *logger.Logger
	Matches   openSlotSource
	Committee committeeDirectory
	Notify    bulkNotifier
	Ledger    Ledger
	DailyHour int
}

type openSlotSource interface {
	ListWithOpenSlotsOn(ctx context.Context, day time.Time) ([]models.Match, error)
}

type committeeDirectory interface {
	ListCommittee(ctx context.Context) ([]uuid.UUID, error)
}

type bulkNotifier interface {
	NotifyMany(ctx context.Context, userIDs []uuid.UUID, input notifications.NotifyInput) error
}

// NewMatchReminderJob warns the committee about fixtures that still have
// missing or needed slots close to kickoff.
func NewMatchReminderJob(params MatchReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Matches == nil {
		return nil, fmt.Errorf("matches repository required")
	}
	if params.Committee == nil {
		return nil, fmt.Errorf("committee directory required")
	}
	if params.Notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	return &matchReminderJob{
		logg:      params.Logger,
		matches:   params.Matches,
		committee: params.Committee,
		notify:    params.Notify,
		ledger:    params.Ledger,
		dailyHour: params.DailyHour,
	}, nil
}

type matchReminderJob struct {
	logg      *logger.Logger
	matches   openSlotSource
	committee committeeDirectory
	notify    bulkNotifier
	ledger    Ledger
	dailyHour int
}

func (j *matchReminderJob) Name() string { return "unfilled-position-reminders" }

func (j *matchReminderJob) Due(now time.Time) bool {
	return now.Hour() == j.dailyHour && now.Minute() == 0
}

func (j *matchReminderJob) Run(ctx context.Context, now time.Time) error {
	committee, err := j.committee.ListCommittee(ctx)
	if err != nil {
		return fmt.Errorf("list committee: %w", err)
	}
	if len(committee) == 0 {
		j.logg.Warn(ctx, "no committee members to remind about unfilled positions")
		return nil
	}

	for _, days := range unfilledReminderDays {
		day := now.AddDate(0, 0, days)
		fixtures, err := j.matches.ListWithOpenSlotsOn(ctx, day)
		if err != nil {
			return fmt.Errorf("list open-slot matches (%d days): %w", days, err)
		}
		for i := range fixtures {
			match := fixtures[i]
			key := fmt.Sprintf("unfilled:%s:%d", match.ID, days)
			first, err := j.ledger.MarkRun(ctx, j.Name(), key, now)
			if err != nil {
				return fmt.Errorf("ledger mark %s: %w", key, err)
			}
			if !first {
				continue
			}
			link := "/matches/" + match.ID.String()
			err = j.notify.NotifyMany(ctx, committee, notifications.NotifyInput{
				Category: enums.NotificationCategoryAssignments,
				Title:    "Betöltetlen pozíciók",
				Message: fmt.Sprintf("A %s kezdetű mérkőzésen %d nappal a kezdés előtt még van betöltetlen pozíció.",
					match.KickoffAt.Format("2006-01-02 15:04"), days),
				Link: &link,
			})
			if err != nil {
				logCtx := j.logg.WithField(ctx, "match_id", match.ID.String())
				j.logg.Error(logCtx, "unfilled-position reminder delivery failed", err)
			}
		}
	}
	return nil
}
