package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jaradmin/jar-backend/pkg/enums"
)

// User is the canonical identity entity for every portal participant.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FirstName    string     `gorm:"column:first_name;not null"`
	LastName     string     `gorm:"column:last_name;not null"`
	Phone        *string    `gorm:"column:phone"`
	Role         enums.Role `gorm:"type:text;not null;default:'referee'"`

	// Capability overrides on top of the primary role.
	IsRefereeFlag    bool `gorm:"column:is_referee_flag;not null;default:false"`
	IsInspectorFlag  bool `gorm:"column:is_inspector_flag;not null;default:false"`
	IsAccountantFlag bool `gorm:"column:is_accountant_flag;not null;default:false"`

	IsSuperAdmin  bool `gorm:"column:is_super_admin;not null;default:false"`
	Archived      bool `gorm:"column:archived;not null;default:false"`
	LoginDisabled bool `gorm:"column:login_disabled;not null;default:false"`

	FailedLoginAttempts int        `gorm:"column:failed_login_attempts;not null;default:0"`
	LockedUntil         *time.Time `gorm:"column:locked_until"`
	LastLoginAt         *time.Time `gorm:"column:last_login_at"`

	MedicalExpiresAt *time.Time         `gorm:"column:medical_expires_at"`
	BillingType      *enums.BillingType `gorm:"column:billing_type;type:text"`
	TaxNumber        *string            `gorm:"column:tax_number"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// FullName renders the display name used in notifications and declarations.
func (u User) FullName() string {
	return u.LastName + " " + u.FirstName
}

// Capabilities derives the effective capability set from the primary role and
// the per-user override flags.
func (u User) Capabilities() enums.CapabilitySet {
	set := enums.CapabilitiesForRole(u.Role)
	if u.IsRefereeFlag {
		set[enums.CapRefereeing] = struct{}{}
	}
	if u.IsInspectorFlag {
		set[enums.CapInspection] = struct{}{}
	}
	if u.IsAccountantFlag {
		set[enums.CapAccounting] = struct{}{}
	}
	return set
}

// BeforeSave keeps the super-admin account operable no matter what the caller
// tried to write.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.IsSuperAdmin {
		u.Archived = false
		u.LoginDisabled = false
	}
	return nil
}

// BeforeDelete refuses to remove the super-admin account.
func (u *User) BeforeDelete(tx *gorm.DB) error {
	if u.IsSuperAdmin {
		return fmt.Errorf("super admin cannot be deleted")
	}
	return nil
}
