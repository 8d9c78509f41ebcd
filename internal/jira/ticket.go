package jira

import (
	"slices"
	"time"

	"flowdash/internal/stages"
)

// StageTiming is a ticket's lifetime record for one stage.
type StageTiming struct {
	Start *time.Time `json:"start,omitempty"`
	Days  float64    `json:"days"`
}

// End returns Start plus Days, or nil when the stage has no start.
func (st StageTiming) End() *time.Time {
	if st.Start == nil {
		return nil
	}
	end := st.Start.Add(time.Duration(st.Days * float64(24*time.Hour)))
	return &end
}

// SprintField holds the decoded sprint membership of a ticket. Names,
// Starts and Ends are index-aligned when the export is well formed.
type SprintField struct {
	Names  []string `json:"names"`
	Starts []string `json:"starts,omitempty"`
	Ends   []string `json:"ends,omitempty"`
	Multi  bool     `json:"multi,omitempty"`
}

// Ticket is one workflow item from the metrics export.
type Ticket struct {
	ID          string                       `json:"id"`
	Link        string                       `json:"link,omitempty"`
	Name        string                       `json:"name"`
	Type        string                       `json:"type"`
	Project     string                       `json:"project"`
	Squad       string                       `json:"squad,omitempty"`
	Squad2      string                       `json:"squad2,omitempty"`
	Priority    string                       `json:"priority,omitempty"`
	Stage       string                       `json:"stage"`
	Sprint      SprintField                  `json:"sprint"`
	Created     time.Time                    `json:"created"`
	Updated     time.Time                    `json:"updated"`
	Components  []string                     `json:"components,omitempty"`
	StoryPoints float64                      `json:"story_points,omitempty"`
	FixVersions string                       `json:"fix_versions,omitempty"`
	Assignee    string                       `json:"assignee,omitempty"`
	ParentType  string                       `json:"parent_type,omitempty"`
	ParentName  string                       `json:"parent_name,omitempty"`
	Stages      map[stages.Stage]StageTiming `json:"stages,omitempty"`
}

// SprintNames returns the sprints the ticket belonged to, skipping empty
// and null placeholders.
func (t Ticket) SprintNames() []string {
	out := make([]string, 0, len(t.Sprint.Names))
	for _, n := range t.Sprint.Names {
		if n != "" && n != "null" {
			out = append(out, n)
		}
	}
	return out
}

// InSprint reports whether the ticket belonged to the named sprint. It
// agrees with SprintNames, so placeholders never match.
func (t Ticket) InSprint(name string) bool {
	return slices.Contains(t.SprintNames(), name)
}

// HasSprint reports whether the ticket was ever assigned to a sprint.
func (t Ticket) HasSprint() bool {
	return len(t.SprintNames()) > 0
}

// HasFixVersion reports whether the ticket shipped in a release.
func (t Ticket) HasFixVersion() bool {
	return t.FixVersions != "" && t.FixVersions != "null" && t.FixVersions != "[]"
}

// IsIncident reports whether the ticket is treated as a production incident.
func (t Ticket) IsIncident() bool {
	return t.HasFixVersion() && stages.IsIncidentPriority(t.Priority)
}

// InSquad reports whether either squad field matches one of squads.
func (t Ticket) InSquad(squads []string) bool {
	return slices.Contains(squads, t.Squad) || (t.Squad2 != "" && slices.Contains(squads, t.Squad2))
}

// Days returns the lifetime days spent in s, zero when absent.
func (t Ticket) Days(s stages.Stage) float64 {
	return t.Stages[s].Days
}
