package stats

import (
	"slices"

	"flowdash/internal/stages"
)

// StageSummary is the aggregated in-sprint time for one stage or group.
type StageSummary struct {
	Stage        string   `json:"stage"`
	Members      []string `json:"members"`
	AvgDays      float64  `json:"avg_days"`
	MedianDays   float64  `json:"median_days"`
	TotalDays    int      `json:"total_days"`
	TicketCount  int      `json:"ticket_count"`
	TicketIDs    []string `json:"ticket_ids"`
	Level        string   `json:"level,omitempty"`
	WarningDays  float64  `json:"warning_days,omitempty"`
	CriticalDays float64  `json:"critical_days,omitempty"`
}

// AggregateStages merges in-sprint days into the configured groups,
// followed by every ungrouped tracked stage.
//
// A ticket qualifies for a bucket when it has nonzero days in any member
// stage; the average is the summed member days over qualifying tickets.
// Ignored names and empty buckets are left out.
func AggregateStages(tickets []SprintTicket, settings *stages.Settings) []StageSummary {
	buckets := make([]stages.Grouping, 0, len(settings.Groupings)+len(stages.Tracked()))
	grouped := make(map[stages.Stage]bool)
	for _, g := range settings.Groupings {
		buckets = append(buckets, g)
		for _, s := range g.Stages {
			grouped[s] = true
		}
	}
	for _, s := range stages.Tracked() {
		if !grouped[s] {
			buckets = append(buckets, stages.Grouping{Name: s.String(), Stages: []stages.Stage{s}})
		}
	}

	out := make([]StageSummary, 0, len(buckets))
	for _, b := range buckets {
		if settings.Ignored(b.Name) {
			continue
		}
		sum := summarize(tickets, b)
		if sum.TicketCount == 0 || sum.AvgDays == 0 {
			continue
		}
		th := settings.Thresholds.For(b.Name)
		sum.Level = settings.Thresholds.Classify(b.Name, sum.AvgDays).Level.String()
		sum.WarningDays = th.Warning
		sum.CriticalDays = th.Critical
		out = append(out, sum)
	}
	return out
}

func summarize(tickets []SprintTicket, b stages.Grouping) StageSummary {
	sum := StageSummary{
		Stage:     b.Name,
		Members:   make([]string, 0, len(b.Stages)),
		TicketIDs: []string{},
	}
	for _, s := range b.Stages {
		sum.Members = append(sum.Members, s.String())
	}

	perTicket := make([]float64, 0)
	for _, t := range tickets {
		days := t.DaysIn(b.Stages)
		if days <= 0 {
			continue
		}
		sum.TotalDays += days
		sum.TicketIDs = append(sum.TicketIDs, t.ID)
		perTicket = append(perTicket, float64(days))
	}
	sum.TicketCount = len(sum.TicketIDs)
	sum.AvgDays = Round2(SafeDiv(float64(sum.TotalDays), float64(sum.TicketCount)))
	sum.MedianDays = Median(perTicket)
	return sum
}

// SummaryFor returns the summary for name, if it survived aggregation.
func SummaryFor(summaries []StageSummary, name string) (StageSummary, bool) {
	i := slices.IndexFunc(summaries, func(s StageSummary) bool { return s.Stage == name })
	if i < 0 {
		return StageSummary{}, false
	}
	return summaries[i], true
}
