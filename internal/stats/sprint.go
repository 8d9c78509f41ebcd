package stats

import (
	"slices"

	"flowdash/internal/jira"

	"github.com/rs/zerolog/log"
)

// ResolveSprintWindow returns the window of the named sprint as recorded on
// ticket t. Unknown sprints, cardinality mismatches and unparseable dates
// yield nil.
func ResolveSprintWindow(t jira.Ticket, sprint string) *SprintWindow {
	f := t.Sprint

	idx := 0
	if f.Multi {
		idx = slices.Index(f.Names, sprint)
		if idx < 0 {
			return nil
		}
	}
	if idx >= len(f.Starts) || idx >= len(f.Ends) {
		log.Debug().Str("ticket", t.ID).Str("sprint", sprint).Msg("Sprint has no matching date pair")
		return nil
	}

	start, ok := jira.ParseTimestamp(f.Starts[idx])
	if !ok {
		return nil
	}
	end, ok := jira.ParseTimestamp(f.Ends[idx])
	if !ok {
		return nil
	}
	return &SprintWindow{Start: start, End: end}
}

// ResolveSprint returns the window of the named sprint from the first ticket
// that belongs to it and records resolvable dates.
func ResolveSprint(tickets []jira.Ticket, sprint string) *SprintWindow {
	for _, t := range tickets {
		if !t.InSprint(sprint) {
			continue
		}
		if w := ResolveSprintWindow(t, sprint); w != nil {
			return w
		}
	}
	return nil
}
