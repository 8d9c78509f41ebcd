package stats

import (
	"fmt"
	"math"
	"slices"
	"time"

	"flowdash/internal/jira"
	"flowdash/internal/stages"
)

// DORA metric categories.
const (
	CategoryLeadTime            = "Lead Time for Changes"
	CategoryDeploymentFrequency = "Deployment Frequency"
	CategoryChangeFailureRate   = "Change Failure Rate"
	CategoryMeanTimeToRecovery  = "Mean Time to Recovery"
)

// DoraResult is one computed delivery metric.
type DoraResult struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// DoraFilter narrows the tickets a metric is computed over. Empty lists and
// nil dates leave that dimension unconstrained.
type DoraFilter struct {
	Projects []string   `json:"projects,omitempty"`
	Squads   []string   `json:"squads,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
}

// DoraReport bundles the four metrics computed over one filter.
type DoraReport struct {
	LeadTime            DoraResult `json:"lead_time"`
	DeploymentFrequency DoraResult `json:"deployment_frequency"`
	ChangeFailureRate   DoraResult `json:"change_failure_rate"`
	MeanTimeToRecovery  DoraResult `json:"mean_time_to_recovery"`
}

// excludedFromLeadTime are the stages that do not count as work in progress.
var excludedFromLeadTime = []stages.Stage{
	stages.Backlog,
	stages.DeliveryBacklog,
	stages.Rejected,
	stages.OnHold,
	stages.Open,
	stages.FailedTest,
	stages.IdeasIntake,
	stages.Discovery,
	stages.ReadyForDevelopment,
	stages.Done,
	stages.Closed,
	stages.BugFixed,
}

// deployedStages are the current stages that count a ticket as deployed.
var deployedStages = []string{
	stages.Done.String(),
	stages.Closed.String(),
	stages.BugFixed.String(),
	stages.DeployedToProd.String(),
	stages.InProduction.String(),
}

// DoraCalculator computes DORA-style delivery metrics over a ticket set.
type DoraCalculator struct {
	inProgress []stages.Stage
}

// NewDoraCalculator creates a calculator over the stage vocabulary.
func NewDoraCalculator() *DoraCalculator {
	inProgress := make([]stages.Stage, 0)
	for _, s := range stages.All() {
		if !slices.Contains(excludedFromLeadTime, s) {
			inProgress = append(inProgress, s)
		}
	}
	return &DoraCalculator{inProgress: inProgress}
}

// Filter applies f. Squads match either squad field; the date range bounds
// the creation date inclusively.
func (c *DoraCalculator) Filter(tickets []jira.Ticket, f DoraFilter) []jira.Ticket {
	out := make([]jira.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if active(f.Projects) && !slices.Contains(f.Projects, t.Project) {
			continue
		}
		if active(f.Squads) && !t.InSquad(f.Squads) {
			continue
		}
		if f.Start != nil && t.Created.Before(*f.Start) {
			continue
		}
		if f.End != nil && t.Created.After(*f.End) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// LeadTimeForChanges averages, over tickets that spent time in any
// in-progress stage, the total days spent in those stages.
func (c *DoraCalculator) LeadTimeForChanges(tickets []jira.Ticket, f DoraFilter) DoraResult {
	return DoraResult{Category: CategoryLeadTime, Value: c.avgInProgressDays(c.Filter(tickets, f))}
}

// DeploymentFrequency is deployed tickets per business day. The day count
// spans the filter's date range when both ends are set, otherwise the
// earliest to latest sprint window found on the filtered tickets.
func (c *DoraCalculator) DeploymentFrequency(tickets []jira.Ticket, f DoraFilter) DoraResult {
	filtered := c.Filter(tickets, f)

	deployments := 0
	for _, t := range filtered {
		if t.HasSprint() && t.HasFixVersion() && slices.Contains(deployedStages, t.Stage) {
			deployments++
		}
	}

	var days int
	if f.Start != nil && f.End != nil {
		days = CountBusinessDays(*f.Start, *f.End)
	} else if span := sprintSpan(filtered); span != nil {
		days = span.BusinessDays()
	}

	return DoraResult{Category: CategoryDeploymentFrequency, Value: SafeDiv(float64(deployments), float64(days))}
}

// ChangeFailureRate is the percentage of released tickets that were incidents.
func (c *DoraCalculator) ChangeFailureRate(tickets []jira.Ticket, f DoraFilter) DoraResult {
	released, incidents := 0, 0
	for _, t := range c.Filter(tickets, f) {
		if !t.HasFixVersion() {
			continue
		}
		released++
		if t.IsIncident() {
			incidents++
		}
	}
	return DoraResult{Category: CategoryChangeFailureRate, Value: 100 * SafeDiv(float64(incidents), float64(released))}
}

// MeanTimeToRecovery applies the lead time formula to incident tickets only.
func (c *DoraCalculator) MeanTimeToRecovery(tickets []jira.Ticket, f DoraFilter) DoraResult {
	incidents := make([]jira.Ticket, 0)
	for _, t := range c.Filter(tickets, f) {
		if t.IsIncident() {
			incidents = append(incidents, t)
		}
	}
	return DoraResult{Category: CategoryMeanTimeToRecovery, Value: c.avgInProgressDays(incidents)}
}

// Report computes all four metrics over the same filter.
func (c *DoraCalculator) Report(tickets []jira.Ticket, f DoraFilter) DoraReport {
	return DoraReport{
		LeadTime:            c.LeadTimeForChanges(tickets, f),
		DeploymentFrequency: c.DeploymentFrequency(tickets, f),
		ChangeFailureRate:   c.ChangeFailureRate(tickets, f),
		MeanTimeToRecovery:  c.MeanTimeToRecovery(tickets, f),
	}
}

func (c *DoraCalculator) avgInProgressDays(tickets []jira.Ticket) float64 {
	total := 0.0
	counted := 0
	for _, t := range tickets {
		sum := 0.0
		touched := false
		for _, s := range c.inProgress {
			d := t.Days(s)
			if d > 0 {
				touched = true
				sum += d
			}
		}
		if touched {
			total += sum
			counted++
		}
	}
	return SafeDiv(total, float64(counted))
}

// sprintSpan is the earliest start to the latest end across every
// resolvable sprint window of the tickets.
func sprintSpan(tickets []jira.Ticket) *SprintWindow {
	var span *SprintWindow
	for _, t := range tickets {
		for _, name := range t.SprintNames() {
			w := ResolveSprintWindow(t, name)
			if w == nil {
				continue
			}
			if span == nil {
				span = &SprintWindow{Start: w.Start, End: w.End}
				continue
			}
			if w.Start.Before(span.Start) {
				span.Start = w.Start
			}
			if w.End.After(span.End) {
				span.End = w.End
			}
		}
	}
	return span
}

func active(values []string) bool {
	return len(values) > 0 && !slices.Contains(values, "")
}

// FormatDaysDuration renders business days as weeks of five days and the
// remaining days, e.g. 12 → "2w 2d". Under a week only days are shown.
func FormatDaysDuration(value float64) string {
	weeks := math.Floor(value / 5)
	days := value - weeks*5
	if weeks == 0 {
		return fmt.Sprintf("%.0fd", days)
	}
	return fmt.Sprintf("%.0fw %.0fd", weeks, days)
}

// FormatPercentage renders value with two decimals and a percent sign.
func FormatPercentage(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}
