package cron

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/db"
	"github.com/jaradmin/jar-backend/pkg/db/models"
)

// Ledger is the durable record of which (job, target) pairs already ran.
// MarkRun returns false when the target was handled by an earlier cycle,
// which is what makes re-delivery after a crash or a second worker safe.
type Ledger interface {
	MarkRun(ctx context.Context, jobName, targetKey string, ranAt time.Time) (bool, error)
}

type ledgerImpl struct {
	db *gorm.DB
}

// NewLedger builds a job-run ledger bound to the provided database.
func NewLedger(gdb *gorm.DB) Ledger {
	return &ledgerImpl{db: gdb}
}

func (l *ledgerImpl) MarkRun(ctx context.Context, jobName, targetKey string, ranAt time.Time) (bool, error) {
	run := models.JobRun{
		JobName:   jobName,
		TargetKey: targetKey,
		RanAt:     ranAt,
	}
	if err := l.db.WithContext(ctx).Create(&run).Error; err != nil {
		if db.IsUniqueViolation(err, "idx_job_run_target") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
