package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/jaradmin/jar-backend/pkg/logger"
)

const defaultPublishEveryMinutes = 5

// PublishContentJobParams configure the scheduled-content publisher.
type PublishContentJobParams struct {
	Logger       *logger.Logger
	Education    contentPublisher
	EveryMinutes int
}

type contentPublisher interface {
	PublishDue(ctx context.Context, now time.Time) (int64, error)
}

// NewPublishContentJob flips due news and knowledge posts to published.
// The flip itself is idempotent, so the job carries no ledger.
func NewPublishContentJob(params PublishContentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Education == nil {
		return nil, fmt.Errorf("education service required")
	}
	every := params.EveryMinutes
	if every <= 0 {
		every = defaultPublishEveryMinutes
	}
	return &publishContentJob{
		logg:  params.Logger,
		edu:   params.Education,
		every: every,
	}, nil
}

type publishContentJob struct {
	logg  *logger.Logger
	edu   contentPublisher
	every int
}

func (j *publishContentJob) Name() string { return "publish-content" }

func (j *publishContentJob) Due(now time.Time) bool {
	return now.Minute()%j.every == 0
}

func (j *publishContentJob) Run(ctx context.Context, now time.Time) error {
	published, err := j.edu.PublishDue(ctx, now)
	if err != nil {
		return fmt.Errorf("publish due content: %w", err)
	}
	if published > 0 {
		logCtx := j.logg.WithField(ctx, "rows_published", published)
		j.logg.Info(logCtx, "scheduled content published")
	}
	return nil
}
