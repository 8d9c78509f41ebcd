package stats

import (
	"fmt"
	"sort"

	"flowdash/internal/stages"
)

// Violation is an open ticket that overstayed at least one stage during a sprint.
type Violation struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Link            string       `json:"link,omitempty"`
	Type            string       `json:"type"`
	Priority        string       `json:"priority"`
	Stage           string       `json:"current_stage"`
	Assignee        string       `json:"assignee,omitempty"`
	Sprints         []string     `json:"sprints"`
	StoryPoints     float64      `json:"story_points"`
	ExceedingStages []string     `json:"exceeding_stages"`
	MaxRatio        float64      `json:"max_ratio"`
	Level           stages.Level `json:"level"`
}

// ThresholdViolations finds tickets not yet Done, Closed or Rejected with
// in-sprint days at or above the warning threshold of any tracked stage.
// Results are ranked by priority, then by how far the worst stage overran.
func ThresholdViolations(tickets []SprintTicket, thresholds stages.Thresholds) []Violation {
	out := make([]Violation, 0)
	for _, t := range tickets {
		if stages.IsTerminalName(t.Stage) {
			continue
		}

		v := Violation{
			ID:          t.ID,
			Name:        t.Name,
			Link:        t.Link,
			Type:        t.Type,
			Priority:    priorityLabel(t.Priority),
			Stage:       t.Stage,
			Assignee:    t.Assignee,
			Sprints:     t.SprintNames(),
			StoryPoints: t.StoryPoints,
		}
		for _, s := range stages.Tracked() {
			days := float64(t.InSprintDays[s])
			th := thresholds.For(s.String())
			if days <= 0 || days < th.Warning {
				continue
			}
			v.ExceedingStages = append(v.ExceedingStages, fmt.Sprintf("%s (%.1fd)", s, days))
			if r := th.Ratio(days); r > v.MaxRatio {
				v.MaxRatio = r
			}
			if l := th.Classify(days); l > v.Level {
				v.Level = l
			}
		}
		if len(v.ExceedingStages) > 0 {
			out = append(out, v)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := stages.PriorityRank(out[i].Priority), stages.PriorityRank(out[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return out[i].MaxRatio > out[j].MaxRatio
	})
	return out
}
