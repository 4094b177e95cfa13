package enums

import "fmt"

// MatchStatus tracks the lifecycle of a scheduled match.
type MatchStatus string

const (
	MatchStatusDraft     MatchStatus = "draft"
	MatchStatusCreated   MatchStatus = "created"
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusPostponed MatchStatus = "postponed"
	MatchStatusCancelled MatchStatus = "cancelled"
)

var validMatchStatuses = []MatchStatus{
	MatchStatusDraft,
	MatchStatusCreated,
	MatchStatusScheduled,
	MatchStatusConfirmed,
	MatchStatusPostponed,
	MatchStatusCancelled,
}

// String implements fmt.Stringer.
func (m MatchStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MatchStatus.
func (m MatchStatus) IsValid() bool {
	for _, candidate := range validMatchStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (m MatchStatus) IsTerminal() bool {
	return m == MatchStatusCancelled
}

// ParseMatchStatus converts raw input into a MatchStatus.
func ParseMatchStatus(value string) (MatchStatus, error) {
	for _, candidate := range validMatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid match status %q", value)
}

// matchTransitions lists the allowed forward edges of the match lifecycle.
var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusDraft:     {MatchStatusCreated, MatchStatusCancelled},
	MatchStatusCreated:   {MatchStatusScheduled, MatchStatusPostponed, MatchStatusCancelled},
	MatchStatusScheduled: {MatchStatusConfirmed, MatchStatusPostponed, MatchStatusCancelled},
	MatchStatusConfirmed: {MatchStatusScheduled, MatchStatusPostponed, MatchStatusCancelled},
	MatchStatusPostponed: {MatchStatusScheduled, MatchStatusCancelled},
}

// CanTransitionTo reports whether the status may move to the target.
func (m MatchStatus) CanTransitionTo(target MatchStatus) bool {
	for _, allowed := range matchTransitions[m] {
		if allowed == target {
			return true
		}
	}
	return false
}
