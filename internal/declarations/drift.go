package declarations

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jaradmin/jar-backend/pkg/db/models"
)

// Hungarian change lines shown to accountants; the wording matches what the
// committee files with the tax authority.
const (
	changeAssignmentRemoved = "A játékvezetőt eltávolították a mérkőzésről"
	changeDeclined          = "A játékvezető lemondta a mérkőzést"
)

// MatchFacts is the live state of a match resolved for drift comparison.
type MatchFacts struct {
	Date      time.Time
	Kickoff   string
	VenueID   uuid.UUID
	VenueName string
	Referees  []string
}

// Changes compares a declared snapshot against the live match facts and
// returns the human-readable drift lines. An empty slice means the
// declaration still matches reality.
func Changes(decl models.TaxDeclaration, declaredVenueName string, live MatchFacts) []string {
	var lines []string

	if decl.AssignmentDeleted {
		lines = append(lines, changeAssignmentRemoved)
	}
	if decl.Declined {
		lines = append(lines, changeDeclined)
	}

	if decl.DeclaredDate != nil {
		was := decl.DeclaredDate.UTC().Format("2006-01-02")
		now := live.Date.UTC().Format("2006-01-02")
		if was != now {
			lines = append(lines, fmt.Sprintf("Dátum: %s → %s", was, now))
		}
	}
	if decl.DeclaredTime != nil && *decl.DeclaredTime != live.Kickoff {
		lines = append(lines, fmt.Sprintf("Kezdés: %s → %s", *decl.DeclaredTime, live.Kickoff))
	}
	if decl.DeclaredVenueID != nil && *decl.DeclaredVenueID != live.VenueID {
		lines = append(lines, fmt.Sprintf("Helyszín: %s → %s", declaredVenueName, live.VenueName))
	}
	if decl.DeclaredReferees != nil && !equalStrings(decl.DeclaredReferees, live.Referees) {
		lines = append(lines, fmt.Sprintf(
			"Játékvezetők: %s → %s",
			strings.Join(decl.DeclaredReferees, ", "),
			strings.Join(live.Referees, ", "),
		))
	}

	return lines
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
