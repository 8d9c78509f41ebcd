package stats

import (
	"sort"

	"flowdash/internal/jira"
	"flowdash/internal/stages"
)

// SprintDefects returns Bug and Defect tickets raised while the named sprint
// was open, ordered by priority. Without a resolvable window there are none.
func SprintDefects(tickets []jira.Ticket, sprint string) []jira.Ticket {
	out := make([]jira.Ticket, 0)
	w := ResolveSprint(tickets, sprint)
	if w == nil {
		return out
	}
	for _, t := range tickets {
		if t.Type != "Bug" && t.Type != "Defect" {
			continue
		}
		if t.Created.IsZero() || !w.Contains(t.Created) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return stages.PriorityRank(out[i].Priority) < stages.PriorityRank(out[j].Priority)
	})
	return out
}
