package stats

import (
	"sort"

	"flowdash/internal/stages"
)

// StageTicket is one row of a stage drill-down.
type StageTicket struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Link        string           `json:"link,omitempty"`
	Type        string           `json:"type"`
	Priority    string           `json:"priority"`
	Stage       string           `json:"current_stage"`
	Assignee    string           `json:"assignee,omitempty"`
	StoryPoints float64          `json:"story_points"`
	Days        int              `json:"days"`
	Threshold   stages.Threshold `json:"threshold"`
	Level       stages.Level     `json:"level"`
}

// StageTickets lists the tickets behind one bar of the stage breakdown:
// those with nonzero in-sprint days in the named stage or group. Rows are
// ordered by priority, then by days descending.
func StageTickets(tickets []SprintTicket, name string, settings *stages.Settings) []StageTicket {
	members := settings.Members(name)
	th := settings.Thresholds.For(name)

	out := make([]StageTicket, 0)
	for _, t := range tickets {
		days := t.DaysIn(members)
		if days <= 0 {
			continue
		}
		out = append(out, StageTicket{
			ID:          t.ID,
			Name:        t.Name,
			Link:        t.Link,
			Type:        t.Type,
			Priority:    priorityLabel(t.Priority),
			Stage:       t.Stage,
			Assignee:    t.Assignee,
			StoryPoints: t.StoryPoints,
			Days:        days,
			Threshold:   th,
			Level:       th.Classify(float64(days)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := stages.PriorityRank(out[i].Priority), stages.PriorityRank(out[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return out[i].Days > out[j].Days
	})
	return out
}

func priorityLabel(p string) string {
	if p == "" {
		return "N/A"
	}
	return p
}
