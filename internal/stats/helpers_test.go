package stats

import (
	"time"

	"flowdash/internal/jira"
	"flowdash/internal/stages"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t
}

func timePtr(s string) *time.Time {
	t := mustTime(s)
	return &t
}

// ticketInSprints builds a ticket whose multi-sprint fields use the export
// encoding, so decoding is exercised the same way the loader does it.
func ticketInSprints(id string, names, starts, ends []string) jira.Ticket {
	return jira.Ticket{
		ID:      id,
		Project: "Commerce",
		Type:    "Story",
		Stage:   "In Development",
		Created: mustTime("2025-01-01T00:00:00Z"),
		Sprint: jira.SprintField{
			Names:  jira.DecodeArray(jira.EncodeArray(names), jira.QuotedSeparator),
			Starts: jira.DecodeArray(jira.EncodeArray(starts), jira.QuotedSeparator),
			Ends:   jira.DecodeArray(jira.EncodeArray(ends), jira.QuotedSeparator),
			Multi:  true,
		},
		Stages: map[stages.Stage]jira.StageTiming{},
	}
}

func sprintTicket(id, priority, stage string, days map[stages.Stage]int) SprintTicket {
	return SprintTicket{
		Ticket: jira.Ticket{
			ID:       id,
			Name:     "Ticket " + id,
			Priority: priority,
			Stage:    stage,
			Sprint:   jira.SprintField{Names: []string{"LFW 2.1.25"}},
		},
		InSprintDays: days,
	}
}
