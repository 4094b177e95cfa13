package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/enums"
)

// Document is metadata for a file stored on local disk.
type Document struct {
	ID      uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Kind    enums.DocumentKind `gorm:"type:text;not null"`

	FileName  string `gorm:"column:file_name;not null"`
	Path      string `gorm:"type:text;not null"`
	MimeType  string `gorm:"column:mime_type;not null"`
	SizeBytes int64  `gorm:"column:size_bytes;not null"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
