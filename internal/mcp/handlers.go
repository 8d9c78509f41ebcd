package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flowdash/internal/dataset"
	"flowdash/internal/filter"
	"flowdash/internal/jira"
	"flowdash/internal/stats"
)

const dateLayout = "2006-01-02"

// FilterResult is the payload of filter_tickets and the facets command.
type FilterResult struct {
	Count       int           `json:"count"`
	TicketIDs   []string      `json:"ticket_ids"`
	Tickets     []jira.Ticket `json:"tickets,omitempty"`
	Projects    []string      `json:"projects"`
	Squads      []string      `json:"squads"`
	Sprints     []string      `json:"sprints"`
	TicketTypes []string      `json:"ticket_types"`
	Components  []string      `json:"components"`
	Assignees   []string      `json:"assignees"`
}

// SprintReport is the stage breakdown of one sprint together with the
// tickets that need attention.
type SprintReport struct {
	Sprint      string               `json:"sprint"`
	Window      *stats.SprintWindow  `json:"window,omitempty"`
	TicketCount int                  `json:"ticket_count"`
	Stages      []stats.StageSummary `json:"stages"`
	Violations  []stats.Violation    `json:"violations"`
	Defects     []jira.Ticket        `json:"defects"`
}

// DoraMetrics pairs each DORA value with its display form.
type DoraMetrics struct {
	Filter  stats.DoraFilter  `json:"filter"`
	Report  stats.DoraReport  `json:"report"`
	Display map[string]string `json:"display"`
}

// sprintScope is a sprint's tickets after project and squad scoping.
type sprintScope struct {
	scoped   []jira.Ticket
	inSprint []stats.SprintTicket
	window   *stats.SprintWindow
	warnings []string
}

func (s *Server) snapshot(ctx context.Context) (*dataset.Snapshot, error) {
	if s.cache == nil {
		return nil, dataset.ErrNoSource
	}
	return s.cache.RefreshIfStale(ctx)
}

func (s *Server) handleFilterTickets(ctx context.Context, in FilterInput) (any, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	res := s.Facets(snap, filter.Criteria{
		Projects:    in.Projects,
		Squads:      in.Squads,
		Sprints:     in.Sprints,
		TicketTypes: in.TicketTypes,
		TicketIDs:   in.TicketIDs,
		Components:  in.Components,
		Assignees:   in.Assignees,
	}, in.IncludeTickets)

	var warnings []string
	if res.Count == 0 {
		warnings = append(warnings, "No tickets match the selection.")
	}
	return WrapResponse(res, snap, warnings), nil
}

// Facets filters the snapshot and returns the cascading facet values.
// The project facet lists every configured sprint project in the dataset,
// so it never narrows itself.
func (s *Server) Facets(snap *dataset.Snapshot, c filter.Criteria, withTickets bool) FilterResult {
	res := s.filters.Filter(snap.Tickets, c)
	out := FilterResult{
		Count:       len(res.Tickets),
		TicketIDs:   res.IDs(),
		Projects:    snap.Projects(s.cfg.SprintProjects),
		Squads:      res.Squads,
		Sprints:     res.Sprints,
		TicketTypes: res.TicketTypes,
		Components:  res.Components,
		Assignees:   res.Assignees,
	}
	if withTickets {
		out.Tickets = res.Tickets
	}
	return out
}

func (s *Server) handleSprintStageBreakdown(ctx context.Context, in SprintInput) (any, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	report, warnings, err := s.SprintReport(snap, in)
	if err != nil {
		return nil, err
	}
	// The breakdown tool answers the chart question only.
	report.Violations = nil
	report.Defects = nil
	return WrapResponse(report, snap, warnings), nil
}

// SprintReport computes the stage breakdown, threshold violations and
// defects of one sprint.
func (s *Server) SprintReport(snap *dataset.Snapshot, in SprintInput) (*SprintReport, []string, error) {
	scope, err := s.scopeSprint(snap, in.Sprint, in.Projects, in.Squads)
	if err != nil {
		return nil, nil, err
	}
	return &SprintReport{
		Sprint:      in.Sprint,
		Window:      scope.window,
		TicketCount: len(scope.inSprint),
		Stages:      stats.AggregateStages(scope.inSprint, s.settings),
		Violations:  stats.ThresholdViolations(scope.inSprint, s.settings.Thresholds),
		Defects:     stats.SprintDefects(scope.scoped, in.Sprint),
	}, scope.warnings, nil
}

func (s *Server) handleStageTickets(ctx context.Context, in StageInput) (any, error) {
	if strings.TrimSpace(in.Stage) == "" {
		return nil, fmt.Errorf("%w: stage is required", errInvalidArguments)
	}
	if len(s.settings.Members(in.Stage)) == 0 {
		return nil, fmt.Errorf("%w: unknown stage or group %q", errInvalidArguments, in.Stage)
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopeSprint(snap, in.Sprint, in.Projects, in.Squads)
	if err != nil {
		return nil, err
	}

	res := map[string]any{
		"sprint":  in.Sprint,
		"stage":   in.Stage,
		"members": s.settings.Members(in.Stage),
		"tickets": stats.StageTickets(scope.inSprint, in.Stage, s.settings),
	}
	// Ignored or empty buckets have no bar, so no summary.
	if sum, ok := stats.SummaryFor(stats.AggregateStages(scope.inSprint, s.settings), in.Stage); ok {
		res["summary"] = sum
	}
	return WrapResponse(res, snap, scope.warnings), nil
}

func (s *Server) handleThresholdViolations(ctx context.Context, in SprintInput) (any, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopeSprint(snap, in.Sprint, in.Projects, in.Squads)
	if err != nil {
		return nil, err
	}

	res := map[string]any{
		"sprint":     in.Sprint,
		"violations": stats.ThresholdViolations(scope.inSprint, s.settings.Thresholds),
	}
	return WrapResponse(res, snap, scope.warnings), nil
}

func (s *Server) handleDoraMetrics(ctx context.Context, in DoraInput) (any, error) {
	f, err := s.DoraFilter(in)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	res, warnings := s.DoraMetrics(snap, f)
	return WrapResponse(res, snap, warnings), nil
}

// DoraMetrics computes the four delivery metrics over the filtered snapshot.
func (s *Server) DoraMetrics(snap *dataset.Snapshot, f stats.DoraFilter) (DoraMetrics, []string) {
	report := s.dora.Report(snap.Tickets, f)
	res := DoraMetrics{
		Filter: f,
		Report: report,
		Display: map[string]string{
			report.LeadTime.Category:            stats.FormatDaysDuration(report.LeadTime.Value),
			report.DeploymentFrequency.Category: fmt.Sprintf("%.2f/day", report.DeploymentFrequency.Value),
			report.ChangeFailureRate.Category:   stats.FormatPercentage(report.ChangeFailureRate.Value),
			report.MeanTimeToRecovery.Category:  stats.FormatDaysDuration(report.MeanTimeToRecovery.Value),
		},
	}

	var warnings []string
	if len(s.dora.Filter(snap.Tickets, f)) == 0 {
		warnings = append(warnings, "No tickets match the DORA filter; all metrics are zero.")
	}
	return res, warnings
}

func (s *Server) handleRefreshDataset(ctx context.Context, _ RefreshInput) (any, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	res := map[string]any{
		"path":     s.cfg.CSVPath,
		"projects": snap.Projects(nil),
		"stages":   len(snap.Stages),
	}
	return WrapResponse(res, snap, nil), nil
}

// scopeSprint narrows the snapshot to the requested projects and squads,
// then computes in-sprint stage days for the sprint's tickets.
func (s *Server) scopeSprint(snap *dataset.Snapshot, sprint string, projects, squads []string) (*sprintScope, error) {
	if strings.TrimSpace(sprint) == "" {
		return nil, fmt.Errorf("%w: sprint is required", errInvalidArguments)
	}

	scoped := s.filters.Filter(snap.Tickets, filter.Criteria{
		Projects: scopeProjects(projects, s.cfg.SprintProjects),
		Squads:   squads,
	}).Tickets
	members := s.filters.Filter(scoped, filter.Criteria{Sprints: []string{sprint}}).Tickets

	scope := &sprintScope{
		scoped:   scoped,
		inSprint: s.engine.InSprint(members, sprint),
		window:   stats.ResolveSprint(members, sprint),
	}
	switch {
	case len(members) == 0:
		scope.warnings = append(scope.warnings, fmt.Sprintf("No tickets found in sprint %q.", sprint))
	case scope.window == nil:
		scope.warnings = append(scope.warnings, fmt.Sprintf("Sprint %q has no parseable dates; stage days are reported as zero.", sprint))
	}
	return scope, nil
}

// DoraFilter validates the tool input and applies the configured DORA
// project allow-list when no projects are given.
func (s *Server) DoraFilter(in DoraInput) (stats.DoraFilter, error) {
	f := stats.DoraFilter{
		Projects: scopeProjects(in.Projects, s.cfg.DoraProjects),
		Squads:   in.Squads,
	}

	start, err := parseDate(in.StartDate)
	if err != nil {
		return f, fmt.Errorf("%w: start_date: %v", errInvalidArguments, err)
	}
	end, err := parseDate(in.EndDate)
	if err != nil {
		return f, fmt.Errorf("%w: end_date: %v", errInvalidArguments, err)
	}
	if end != nil {
		// Inclusive of the whole end day.
		e := end.Add(24*time.Hour - time.Nanosecond)
		end = &e
	}
	if start != nil && end != nil && end.Before(*start) {
		return f, fmt.Errorf("%w: end_date is before start_date", errInvalidArguments)
	}
	f.Start, f.End = start, end
	return f, nil
}

// scopeProjects falls back to the configured allow-list when the caller
// did not constrain projects.
func scopeProjects(requested, allow []string) []string {
	if filter.Active(requested) {
		return requested
	}
	return allow
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	return &t, nil
}
