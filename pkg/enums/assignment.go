package enums

import "fmt"

// AssignmentRole identifies the duty a slot covers on a match.
type AssignmentRole string

const (
	AssignmentRoleReferee            AssignmentRole = "referee"
	AssignmentRoleReserveReferee     AssignmentRole = "reserve_referee"
	AssignmentRoleInspector          AssignmentRole = "inspector"
	AssignmentRoleTournamentDirector AssignmentRole = "tournament_director"
)

var validAssignmentRoles = []AssignmentRole{
	AssignmentRoleReferee,
	AssignmentRoleReserveReferee,
	AssignmentRoleInspector,
	AssignmentRoleTournamentDirector,
}

// IsValid reports whether the value is a known AssignmentRole.
func (a AssignmentRole) IsValid() bool {
	for _, candidate := range validAssignmentRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// CountsTowardConfirmation reports whether slots of this role participate in
// the all-confirmed calculation. Only on-field referee slots do; reserve
// referees, inspectors and tournament directors never block confirmation.
func (a AssignmentRole) CountsTowardConfirmation() bool {
	return a == AssignmentRoleReferee
}

// ParseAssignmentRole converts raw input into an AssignmentRole.
func ParseAssignmentRole(value string) (AssignmentRole, error) {
	for _, candidate := range validAssignmentRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment role %q", value)
}

// ResponseStatus is the assignee's answer on an assignment.
type ResponseStatus string

const (
	ResponseStatusPending  ResponseStatus = "pending"
	ResponseStatusAccepted ResponseStatus = "accepted"
	ResponseStatusDeclined ResponseStatus = "declined"
)

var validResponseStatuses = []ResponseStatus{
	ResponseStatusPending,
	ResponseStatusAccepted,
	ResponseStatusDeclined,
}

// IsValid reports whether the value is a known ResponseStatus.
func (r ResponseStatus) IsValid() bool {
	for _, candidate := range validResponseStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseResponseStatus converts raw input into a ResponseStatus.
func ParseResponseStatus(value string) (ResponseStatus, error) {
	for _, candidate := range validResponseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid response status %q", value)
}

// PlaceholderType marks the staffing state of a slot without a bound user.
//
// The wire values keep the Hungarian terms the committee uses day to day.
type PlaceholderType string

const (
	// PlaceholderMissing marks a slot that lost its assignee and needs a
	// replacement.
	PlaceholderMissing PlaceholderType = "hianyzik"
	// PlaceholderNeeded marks a slot the committee still has to fill.
	PlaceholderNeeded PlaceholderType = "szukseges"
	// PlaceholderNotNeeded marks a slot that requires nobody; it counts as
	// satisfied when confirming a match.
	PlaceholderNotNeeded PlaceholderType = "nincs"
)

var validPlaceholderTypes = []PlaceholderType{
	PlaceholderMissing,
	PlaceholderNeeded,
	PlaceholderNotNeeded,
}

// IsValid reports whether the value is a known PlaceholderType.
func (p PlaceholderType) IsValid() bool {
	for _, candidate := range validPlaceholderTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// NeedsStaffing reports whether a slot with this placeholder still blocks the
// match from being fully confirmed.
func (p PlaceholderType) NeedsStaffing() bool {
	return p == PlaceholderMissing || p == PlaceholderNeeded
}

// ParsePlaceholderType converts raw input into a PlaceholderType.
func ParsePlaceholderType(value string) (PlaceholderType, error) {
	for _, candidate := range validPlaceholderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid placeholder type %q", value)
}
