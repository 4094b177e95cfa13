package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/pkg/db/models"
	"github.com/jaradmin/jar-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	FullName  string     `json:"full_name"`
	Phone     *string    `json:"phone,omitempty"`
	Role      enums.Role `json:"role"`

	Capabilities []string `json:"capabilities"`

	IsRefereeFlag    bool `json:"is_referee_flag"`
	IsInspectorFlag  bool `json:"is_inspector_flag"`
	IsAccountantFlag bool `json:"is_accountant_flag"`

	Archived      bool       `json:"archived"`
	LoginDisabled bool       `json:"login_disabled"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`

	MedicalExpiresAt *time.Time         `json:"medical_expires_at,omitempty"`
	BillingType      *enums.BillingType `json:"billing_type,omitempty"`
	TaxNumber        *string            `json:"tax_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModel converts a user row into its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		FullName:         u.FullName(),
		Phone:            u.Phone,
		Role:             u.Role,
		Capabilities:     u.Capabilities().Strings(),
		IsRefereeFlag:    u.IsRefereeFlag,
		IsInspectorFlag:  u.IsInspectorFlag,
		IsAccountantFlag: u.IsAccountantFlag,
		Archived:         u.Archived,
		LoginDisabled:    u.LoginDisabled,
		LastLoginAt:      u.LastLoginAt,
		MedicalExpiresAt: u.MedicalExpiresAt,
		BillingType:      u.BillingType,
		TaxNumber:        u.TaxNumber,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// FromModels converts a page of user rows.
func FromModels(rows []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// CreateUserInput holds the data an administrator supplies for a new account.
type CreateUserInput struct {
	Email     string     `json:"email" validate:"required,email"`
	Password  string     `json:"password" validate:"required,min=8"`
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name" validate:"required"`
	Phone     *string    `json:"phone,omitempty"`
	Role      enums.Role `json:"role" validate:"required"`

	IsRefereeFlag    bool `json:"is_referee_flag"`
	IsInspectorFlag  bool `json:"is_inspector_flag"`
	IsAccountantFlag bool `json:"is_accountant_flag"`

	BillingType *enums.BillingType `json:"billing_type,omitempty"`
	TaxNumber   *string            `json:"tax_number,omitempty"`
}

// UpdateUserInput carries partial profile updates; nil fields stay unchanged.
type UpdateUserInput struct {
	FirstName *string     `json:"first_name,omitempty"`
	LastName  *string     `json:"last_name,omitempty"`
	Phone     *string     `json:"phone,omitempty"`
	Role      *enums.Role `json:"role,omitempty"`

	IsRefereeFlag    *bool `json:"is_referee_flag,omitempty"`
	IsInspectorFlag  *bool `json:"is_inspector_flag,omitempty"`
	IsAccountantFlag *bool `json:"is_accountant_flag,omitempty"`

	MedicalExpiresAt *time.Time         `json:"medical_expires_at,omitempty"`
	BillingType      *enums.BillingType `json:"billing_type,omitempty"`
	TaxNumber        *string            `json:"tax_number,omitempty"`
}

// NotificationSettingDTO is the transport shape for per-user delivery gates.
type NotificationSettingDTO struct {
	NotifyAssignments     bool `json:"notify_assignments"`
	NotifyMatchChanges    bool `json:"notify_match_changes"`
	NotifyTaxDeclarations bool `json:"notify_tax_declarations"`
	NotifyMedical         bool `json:"notify_medical"`
	NotifyBilling         bool `json:"notify_billing"`
	EmailEnabled          bool `json:"email_enabled"`
}

func settingFromModel(s *models.NotificationSetting) NotificationSettingDTO {
	return NotificationSettingDTO{
		NotifyAssignments:     s.NotifyAssignments,
		NotifyMatchChanges:    s.NotifyMatchChanges,
		NotifyTaxDeclarations: s.NotifyTaxDeclarations,
		NotifyMedical:         s.NotifyMedical,
		NotifyBilling:         s.NotifyBilling,
		EmailEnabled:          s.EmailEnabled,
	}
}
