package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/jaradmin/jar-backend/pkg/db/types"
)

// AuditLog is an append-only record of privileged actions.
type AuditLog struct {
	ID      uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID *uuid.UUID `gorm:"type:uuid;index"`

	Action     string     `gorm:"type:text;not null"`
	EntityType string     `gorm:"column:entity_type;type:text;not null"`
	EntityID   *uuid.UUID `gorm:"type:uuid;column:entity_id"`

	Summary  string          `gorm:"type:text"`
	Metadata dbtypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}
