package stats

import (
	"testing"

	"flowdash/internal/jira"
)

func TestResolveSprintWindowPicksIndexedDates(t *testing.T) {
	ticket := jira.Ticket{
		ID: "DMA-1462",
		Sprint: jira.SprintField{
			Names:  jira.DecodeArray(`["LFW 1.1.25"-"LFW 2.1.25"]`, jira.QuotedSeparator),
			Starts: jira.DecodeArray(`["2025-01-21T23:31:33.421Z"-"2025-02-04T23:59:43.560Z"]`, jira.QuotedSeparator),
			Ends:   jira.DecodeArray(`["2025-02-04T23:31:33.421Z"-"2025-02-18T23:59:43.560Z"]`, jira.QuotedSeparator),
			Multi:  true,
		},
	}

	w := ResolveSprintWindow(ticket, "LFW 2.1.25")
	if w == nil {
		t.Fatal("ResolveSprintWindow() = nil")
	}
	if want := mustTime("2025-02-04T23:59:43.560Z"); !w.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", w.Start, want)
	}
	if want := mustTime("2025-02-18T23:59:43.560Z"); !w.End.Equal(want) {
		t.Errorf("End = %v, want %v", w.End, want)
	}
}

func TestResolveSprintWindowRoundTrip(t *testing.T) {
	names := []string{"D.A.W.N - Sprint 10.2.25", "D.A.W.N - Sprint 11.2.25", "D.A.W.N - Sprint 12.2.25"}
	starts := []string{"2025-02-10T00:00:00Z", "2025-02-24T00:00:00Z", "2025-03-10T00:00:00Z"}
	ends := []string{"2025-02-21T00:00:00Z", "2025-03-07T00:00:00Z", "2025-03-21T00:00:00Z"}
	ticket := ticketInSprints("DMA-1", names, starts, ends)

	if len(ticket.Sprint.Names) != 3 || len(ticket.Sprint.Starts) != 3 || len(ticket.Sprint.Ends) != 3 {
		t.Fatalf("decoded cardinality = %d/%d/%d, want 3", len(ticket.Sprint.Names), len(ticket.Sprint.Starts), len(ticket.Sprint.Ends))
	}
	for i, name := range names {
		w := ResolveSprintWindow(ticket, name)
		if w == nil {
			t.Fatalf("ResolveSprintWindow(%q) = nil", name)
		}
		if !w.Start.Equal(mustTime(starts[i])) || !w.End.Equal(mustTime(ends[i])) {
			t.Errorf("ResolveSprintWindow(%q) = %v..%v, want pair %d", name, w.Start, w.End, i)
		}
	}
}

func TestResolveSprintWindowFailures(t *testing.T) {
	tests := []struct {
		name   string
		ticket jira.Ticket
		sprint string
	}{
		{
			name:   "unknown sprint",
			ticket: ticketInSprints("A", []string{"S1"}, []string{"2025-01-01T00:00:00Z"}, []string{"2025-01-14T00:00:00Z"}),
			sprint: "S9",
		},
		{
			name:   "cardinality mismatch",
			ticket: ticketInSprints("B", []string{"S1", "S2"}, []string{"2025-01-01T00:00:00Z"}, []string{"2025-01-14T00:00:00Z"}),
			sprint: "S2",
		},
		{
			name:   "null start",
			ticket: ticketInSprints("C", []string{"S1"}, []string{"null"}, []string{"2025-01-14T00:00:00Z"}),
			sprint: "S1",
		},
		{
			name:   "unparseable end",
			ticket: ticketInSprints("D", []string{"S1"}, []string{"2025-01-01T00:00:00Z"}, []string{"soon"}),
			sprint: "S1",
		},
		{
			name:   "no sprint at all",
			ticket: jira.Ticket{ID: "E"},
			sprint: "S1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := ResolveSprintWindow(tt.ticket, tt.sprint); w != nil {
				t.Errorf("ResolveSprintWindow() = %+v, want nil", w)
			}
		})
	}
}

func TestResolveSprintWindowScalar(t *testing.T) {
	ticket := jira.Ticket{
		ID: "DMA-2",
		Sprint: jira.SprintField{
			Names:  []string{"LFW 1.1.25"},
			Starts: []string{"2025-01-21T23:31:33.421Z"},
			Ends:   []string{"2025-02-04T23:31:33.421Z"},
		},
	}
	w := ResolveSprintWindow(ticket, "LFW 1.1.25")
	if w == nil || !w.Start.Equal(mustTime("2025-01-21T23:31:33.421Z")) {
		t.Errorf("ResolveSprintWindow() = %+v", w)
	}
}

func TestResolveSprintSkipsUnresolvable(t *testing.T) {
	broken := ticketInSprints("A", []string{"S1"}, []string{"null"}, []string{"null"})
	good := ticketInSprints("B", []string{"S1"}, []string{"2025-01-06T00:00:00Z"}, []string{"2025-01-17T00:00:00Z"})
	other := ticketInSprints("C", []string{"S2"}, []string{"2024-01-06T00:00:00Z"}, []string{"2024-01-17T00:00:00Z"})

	w := ResolveSprint([]jira.Ticket{other, broken, good}, "S1")
	if w == nil || !w.Start.Equal(mustTime("2025-01-06T00:00:00Z")) {
		t.Errorf("ResolveSprint() = %+v", w)
	}
	if ResolveSprint([]jira.Ticket{other}, "S1") != nil {
		t.Error("ResolveSprint() resolved a sprint no ticket belongs to")
	}
}
