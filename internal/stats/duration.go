package stats

import (
	"time"

	"flowdash/internal/jira"
	"flowdash/internal/stages"

	"github.com/rs/zerolog/log"
)

// SprintTicket is a ticket annotated with its business days per tracked
// stage while one sprint was open.
type SprintTicket struct {
	jira.Ticket
	Window       *SprintWindow        `json:"window,omitempty"`
	InSprintDays map[stages.Stage]int `json:"in_sprint_days"`
}

// DaysIn sums the in-sprint days over the given stages.
func (st SprintTicket) DaysIn(members []stages.Stage) int {
	total := 0
	for _, s := range members {
		total += st.InSprintDays[s]
	}
	return total
}

// DurationEngine computes in-sprint stage durations.
type DurationEngine struct {
	tracked  []stages.Stage
	terminal []stages.Stage
}

// NewDurationEngine creates an engine over the tracked stage vocabulary.
func NewDurationEngine() *DurationEngine {
	return &DurationEngine{
		tracked:  stages.Tracked(),
		terminal: stages.TerminalStages(),
	}
}

// InSprint annotates tickets with business days spent per tracked stage
// inside the named sprint's window.
//
// Tickets whose window cannot be resolved pass through with zero days.
// Tickets created after the sprint ended, or that reached a terminal stage
// before it started, are dropped.
func (e *DurationEngine) InSprint(tickets []jira.Ticket, sprint string) []SprintTicket {
	present := e.presentStages(tickets)

	out := make([]SprintTicket, 0, len(tickets))
	for _, t := range tickets {
		st := SprintTicket{Ticket: t, InSprintDays: e.zeroDays()}

		w := ResolveSprintWindow(t, sprint)
		if w == nil {
			log.Debug().Str("ticket", t.ID).Str("sprint", sprint).Msg("Sprint window unresolved, reporting zero days")
			out = append(out, st)
			continue
		}
		st.Window = w

		// 1. Eligibility: created on or before the sprint's end.
		if t.Created.IsZero() || t.Created.After(w.End) {
			continue
		}

		// 2. Still active: no terminal stage ended before the sprint began.
		if e.terminatedBefore(t, w.Start) {
			continue
		}

		// 3. Overlap of each stage's [start, end] with the sprint window.
		for _, s := range e.tracked {
			if !present[s] {
				continue
			}
			timing, ok := t.Stages[s]
			if !ok || timing.Start == nil {
				continue
			}
			st.InSprintDays[s] = OverlapBusinessDays(*timing.Start, *timing.End(), w.Start, w.End)
		}
		out = append(out, st)
	}
	return out
}

func (e *DurationEngine) terminatedBefore(t jira.Ticket, sprintStart time.Time) bool {
	for _, s := range e.terminal {
		if end := t.Stages[s].End(); end != nil && end.Before(sprintStart) {
			return true
		}
	}
	return false
}

func (e *DurationEngine) zeroDays() map[stages.Stage]int {
	days := make(map[stages.Stage]int, len(e.tracked))
	for _, s := range e.tracked {
		days[s] = 0
	}
	return days
}

// presentStages reports which tracked stages have columns in the dataset.
// Absent stages are logged once per computation and skipped.
func (e *DurationEngine) presentStages(tickets []jira.Ticket) map[stages.Stage]bool {
	present := make(map[stages.Stage]bool, len(e.tracked))
	for _, t := range tickets {
		for s := range t.Stages {
			present[s] = true
		}
	}
	if len(tickets) == 0 {
		return present
	}
	for _, s := range e.tracked {
		if !present[s] {
			log.Warn().Str("stage", s.String()).Msg("Stage columns not present in dataset, skipping")
		}
	}
	return present
}
