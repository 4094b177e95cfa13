package models

import (
	"time"

	"github.com/google/uuid"
)

// JobRun is the durable scheduler ledger. One row per (job, target key);
// the unique index makes re-running a target a detectable no-op.
type JobRun struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	JobName   string    `gorm:"column:job_name;not null;index:idx_job_run_target,unique"`
	TargetKey string    `gorm:"column:target_key;not null;index:idx_job_run_target,unique"`
	RanAt     time.Time `gorm:"column:ran_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
