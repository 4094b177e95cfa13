package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/jaradmin/jar-backend/pkg/db/types"
	"github.com/jaradmin/jar-backend/pkg/enums"
)

// TaxDeclaration snapshots the match facts an accountant declared to the tax
// authority, so later edits to the match can be detected as drift.
type TaxDeclaration struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index:idx_declaration_user_match,unique"`
	MatchID uuid.UUID `gorm:"type:uuid;not null;index:idx_declaration_user_match,unique"`

	// AssignmentID goes nil when the underlying assignment is removed; the
	// declaration itself survives as an orphan until re-linked.
	AssignmentID *uuid.UUID `gorm:"type:uuid;index"`

	Status      enums.DeclarationStatus `gorm:"type:text;not null;default:'pending'"`
	BillingType enums.BillingType       `gorm:"column:billing_type;type:text;not null"`

	DeclaredAt       *time.Time         `gorm:"column:declared_at"`
	DeclaredDate     *time.Time         `gorm:"column:declared_date"`
	DeclaredTime     *string            `gorm:"column:declared_time"`
	DeclaredVenueID  *uuid.UUID         `gorm:"type:uuid;column:declared_venue_id"`
	DeclaredReferees dbtypes.StringList `gorm:"column:declared_referees;type:jsonb"`

	AssignmentDeleted bool `gorm:"column:assignment_deleted;not null;default:false"`
	Declined          bool `gorm:"column:declined;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EKHODeadline returns the filing deadline for EKHO billing: the 7th of the
// month after the match.
func EKHODeadline(matchDate time.Time) time.Time {
	d := matchDate.UTC()
	firstOfNext := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, 6)
}
