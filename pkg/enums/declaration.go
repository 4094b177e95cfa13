package enums

import "fmt"

// DeclarationStatus tracks the lifecycle of a tax declaration.
type DeclarationStatus string

const (
	DeclarationStatusPending  DeclarationStatus = "pending"
	DeclarationStatusDeclared DeclarationStatus = "declared"
	DeclarationStatusModified DeclarationStatus = "modified"
)

var validDeclarationStatuses = []DeclarationStatus{
	DeclarationStatusPending,
	DeclarationStatusDeclared,
	DeclarationStatusModified,
}

// IsValid reports whether the value is a known DeclarationStatus.
func (d DeclarationStatus) IsValid() bool {
	for _, candidate := range validDeclarationStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeclarationStatus converts raw input into a DeclarationStatus.
func ParseDeclarationStatus(value string) (DeclarationStatus, error) {
	for _, candidate := range validDeclarationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid declaration status %q", value)
}

// BillingType selects the tax regime a referee bills under.
type BillingType string

const (
	BillingTypeEFO  BillingType = "efo"
	BillingTypeEKHO BillingType = "ekho"
)

var validBillingTypes = []BillingType{BillingTypeEFO, BillingTypeEKHO}

// IsValid reports whether the value is a known BillingType.
func (b BillingType) IsValid() bool {
	for _, candidate := range validBillingTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBillingType converts raw input into a BillingType.
func ParseBillingType(value string) (BillingType, error) {
	for _, candidate := range validBillingTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing type %q", value)
}
