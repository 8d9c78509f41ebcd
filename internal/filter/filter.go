package filter

import (
	"slices"
	"sort"
	"time"

	"flowdash/internal/jira"
	"flowdash/internal/stats"
)

// Criteria selects tickets. An empty list leaves its field unconstrained,
// and so does a list holding an empty string, which is how a "nothing
// selected" null arrives from a JSON client.
type Criteria struct {
	Projects    []string `json:"projects,omitempty"`
	Squads      []string `json:"squads,omitempty"`
	Sprints     []string `json:"sprints,omitempty"`
	TicketTypes []string `json:"ticket_types,omitempty"`
	TicketIDs   []string `json:"ticket_ids,omitempty"`
	Components  []string `json:"components,omitempty"`
	Assignees   []string `json:"assignees,omitempty"`
}

// Result is the filtered ticket set and the facet values present in it.
type Result struct {
	Tickets     []jira.Ticket `json:"tickets"`
	Squads      []string      `json:"squads"`
	Sprints     []string      `json:"sprints"`
	TicketTypes []string      `json:"ticket_types"`
	Components  []string      `json:"components"`
	Assignees   []string      `json:"assignees"`
}

// IDs returns the keys of the filtered tickets in order.
func (r Result) IDs() []string {
	ids := make([]string, 0, len(r.Tickets))
	for _, t := range r.Tickets {
		ids = append(ids, t.ID)
	}
	return ids
}

type predicate struct {
	values []string
	match  func(t jira.Ticket, values []string) bool
}

// Service filters tickets and derives cascading facets. It holds no state;
// every call builds a fresh Result.
type Service struct{}

// NewService creates a filter service.
func NewService() *Service {
	return &Service{}
}

// Filter applies the criteria as a conjunction, in a fixed order, then
// derives facets from the filtered tickets.
func (s *Service) Filter(tickets []jira.Ticket, c Criteria) Result {
	predicates := []predicate{
		{c.Projects, func(t jira.Ticket, v []string) bool { return slices.Contains(v, t.Project) }},
		{c.Squads, func(t jira.Ticket, v []string) bool { return t.InSquad(v) }},
		{c.Sprints, func(t jira.Ticket, v []string) bool { return intersects(t.SprintNames(), v) }},
		{c.TicketTypes, func(t jira.Ticket, v []string) bool { return slices.Contains(v, t.Type) }},
		{c.Components, func(t jira.Ticket, v []string) bool { return intersects(t.Components, v) }},
		{c.TicketIDs, func(t jira.Ticket, v []string) bool { return slices.Contains(v, t.ID) }},
		{c.Assignees, func(t jira.Ticket, v []string) bool { return slices.Contains(v, t.Assignee) }},
	}

	filtered := make([]jira.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if matchesAll(t, predicates) {
			filtered = append(filtered, t)
		}
	}

	return Result{
		Tickets:     filtered,
		Squads:      squads(filtered),
		Sprints:     sprints(filtered),
		TicketTypes: distinct(filtered, func(t jira.Ticket) []string { return []string{t.Type} }),
		Components:  distinct(filtered, func(t jira.Ticket) []string { return t.Components }),
		Assignees:   distinct(filtered, func(t jira.Ticket) []string { return []string{t.Assignee} }),
	}
}

// Active reports whether a criteria list constrains its field.
func Active(values []string) bool {
	return len(values) > 0 && !slices.Contains(values, "")
}

func matchesAll(t jira.Ticket, predicates []predicate) bool {
	for _, p := range predicates {
		if Active(p.values) && !p.match(t, p.values) {
			return false
		}
	}
	return true
}

func intersects(have, want []string) bool {
	for _, h := range have {
		if slices.Contains(want, h) {
			return true
		}
	}
	return false
}

// distinct collects the non-empty values produced by field, sorted.
func distinct(tickets []jira.Ticket, field func(jira.Ticket) []string) []string {
	seen := make(map[string]struct{})
	for _, t := range tickets {
		for _, v := range field(t) {
			if v != "" {
				seen[v] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func squads(tickets []jira.Ticket) []string {
	return distinct(tickets, func(t jira.Ticket) []string { return []string{t.Squad, t.Squad2} })
}

// sprints orders sprint names by their start date, newest first. Sprints
// without a resolvable start sort last; ties fall back to the name.
func sprints(tickets []jira.Ticket) []string {
	names := distinct(tickets, func(t jira.Ticket) []string { return t.SprintNames() })

	starts := make(map[string]time.Time, len(names))
	for _, name := range names {
		if w := stats.ResolveSprint(tickets, name); w != nil {
			starts[name] = w.Start
		}
	}

	sort.SliceStable(names, func(i, j int) bool {
		si, sj := starts[names[i]], starts[names[j]]
		if !si.Equal(sj) {
			return si.After(sj)
		}
		return names[i] < names[j]
	})
	return names
}
