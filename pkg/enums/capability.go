package enums

import (
	"fmt"
	"sort"
	"strings"
)

// Capability is a single permission a user holds. Capabilities are derived
// from the primary role plus the per-user override flags, never stored.
type Capability string

const (
	CapRefereeing Capability = "refereeing"
	CapInspection Capability = "inspection"
	CapAccounting Capability = "accounting"
	CapMatchAdmin Capability = "match_admin"
	CapUserAdmin  Capability = "user_admin"
	CapCommittee  Capability = "committee"
)

var validCapabilities = []Capability{
	CapRefereeing,
	CapInspection,
	CapAccounting,
	CapMatchAdmin,
	CapUserAdmin,
	CapCommittee,
}

// IsValid reports whether the value is a known Capability.
func (c Capability) IsValid() bool {
	for _, candidate := range validCapabilities {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCapability converts raw input into a Capability.
func ParseCapability(value string) (Capability, error) {
	for _, candidate := range validCapabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid capability %q", value)
}

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has reports whether the capability is present.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Slice returns the capabilities in stable order.
func (s CapabilitySet) Slice() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the capabilities as plain strings in stable order.
func (s CapabilitySet) Strings() []string {
	caps := s.Slice()
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}

// String renders the set for logs.
func (s CapabilitySet) String() string {
	return strings.Join(s.Strings(), ",")
}

// roleCapabilities maps each primary role to the capabilities it implies.
var roleCapabilities = map[Role][]Capability{
	RoleReferee:    {CapRefereeing},
	RoleInspector:  {CapInspection},
	RoleAccountant: {CapAccounting},
	RoleVBMember:   {CapCommittee, CapMatchAdmin},
	RoleJTAdmin:    {CapCommittee, CapMatchAdmin, CapUserAdmin},
	RoleAdmin:      {CapCommittee, CapMatchAdmin, CapUserAdmin, CapAccounting, CapInspection, CapRefereeing},
}

// CapabilitiesForRole returns the capability set implied by the role alone.
func CapabilitiesForRole(role Role) CapabilitySet {
	return NewCapabilitySet(roleCapabilities[role]...)
}
