package enums

import "fmt"

// DocumentKind classifies uploaded files.
type DocumentKind string

const (
	DocumentKindProfilePicture DocumentKind = "profile_picture"
	DocumentKindMedicalCert    DocumentKind = "medical_certificate"
	DocumentKindTravelReceipt  DocumentKind = "travel_receipt"
	DocumentKindOther          DocumentKind = "other"
)

var validDocumentKinds = []DocumentKind{
	DocumentKindProfilePicture,
	DocumentKindMedicalCert,
	DocumentKindTravelReceipt,
	DocumentKindOther,
}

// IsValid reports whether the value is a known DocumentKind.
func (d DocumentKind) IsValid() bool {
	for _, candidate := range validDocumentKinds {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentKind converts raw input into a DocumentKind.
func ParseDocumentKind(value string) (DocumentKind, error) {
	for _, candidate := range validDocumentKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document kind %q", value)
}
