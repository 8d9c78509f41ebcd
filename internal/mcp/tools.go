package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

var errInvalidArguments = errors.New("invalid arguments")

// tool is one registered MCP tool: its schema comes from the input type,
// and call decodes the raw arguments into that type.
type tool struct {
	name        string
	description string
	schema      func() (*jsonschema.Schema, error)
	call        func(ctx context.Context, args json.RawMessage) (any, error)
}

func newTool[T any](name, description string, fn func(context.Context, T) (any, error)) tool {
	return tool{
		name:        name,
		description: description,
		schema: func() (*jsonschema.Schema, error) {
			return jsonschema.For[T](nil)
		},
		call: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in T
			if len(args) > 0 && string(args) != "null" {
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, fmt.Errorf("%w: %v", errInvalidArguments, err)
				}
			}
			return fn(ctx, in)
		},
	}
}

// FilterInput selects tickets for filter_tickets.
type FilterInput struct {
	Projects       []string `json:"projects,omitempty" jsonschema:"Project names; empty means all"`
	Squads         []string `json:"squads,omitempty" jsonschema:"Squad names, matched against both squad fields"`
	Sprints        []string `json:"sprints,omitempty" jsonschema:"Exact sprint names"`
	TicketTypes    []string `json:"ticket_types,omitempty" jsonschema:"Ticket types such as Story or Bug"`
	TicketIDs      []string `json:"ticket_ids,omitempty" jsonschema:"Ticket keys such as DMA-123"`
	Components     []string `json:"components,omitempty" jsonschema:"Calculated components"`
	Assignees      []string `json:"assignees,omitempty" jsonschema:"Assignee names"`
	IncludeTickets bool     `json:"include_tickets,omitempty" jsonschema:"Return full ticket records instead of keys only"`
}

// SprintInput scopes the sprint tools to one sprint.
type SprintInput struct {
	Sprint   string   `json:"sprint" jsonschema:"Exact sprint name"`
	Projects []string `json:"projects,omitempty" jsonschema:"Project names; defaults to the configured sprint projects"`
	Squads   []string `json:"squads,omitempty" jsonschema:"Squad names"`
}

// StageInput asks for the tickets behind one stage or group of a sprint.
type StageInput struct {
	Sprint   string   `json:"sprint" jsonschema:"Exact sprint name"`
	Stage    string   `json:"stage" jsonschema:"Stage or stage group name as listed by sprint_stage_breakdown"`
	Projects []string `json:"projects,omitempty" jsonschema:"Project names; defaults to the configured sprint projects"`
	Squads   []string `json:"squads,omitempty" jsonschema:"Squad names"`
}

// DoraInput scopes dora_metrics.
type DoraInput struct {
	Projects  []string `json:"projects,omitempty" jsonschema:"Project names; defaults to the configured DORA projects"`
	Squads    []string `json:"squads,omitempty" jsonschema:"Squad names"`
	StartDate string   `json:"start_date,omitempty" jsonschema:"Earliest ticket creation date (YYYY-MM-DD)"`
	EndDate   string   `json:"end_date,omitempty" jsonschema:"Latest ticket creation date, inclusive (YYYY-MM-DD)"`
}

// RefreshInput takes no arguments.
type RefreshInput struct{}

func (s *Server) tools() []tool {
	return []tool{
		newTool("filter_tickets",
			"Filter the ticket dataset by project, squad, sprint, type, key, component and assignee. "+
				"Returns the matching ticket keys and the facet values still available, so choices can cascade.",
			s.handleFilterTickets),
		newTool("sprint_stage_breakdown",
			"Average and median in-sprint business days per workflow stage and stage group for one sprint, "+
				"classified against the configured warning and critical thresholds.",
			s.handleSprintStageBreakdown),
		newTool("stage_tickets",
			"List the tickets that spent time in one stage or stage group during a sprint, "+
				"ordered by priority and then by days spent.",
			s.handleStageTickets),
		newTool("threshold_violations",
			"List open tickets whose in-sprint time in any tracked stage reached its warning threshold, "+
				"ranked by priority and by how far the worst stage overran.",
			s.handleThresholdViolations),
		newTool("dora_metrics",
			"Compute lead time for changes, deployment frequency, change failure rate and mean time to recovery.",
			s.handleDoraMetrics),
		newTool("refresh_dataset",
			"Reload the ticket export if the file changed on disk and report what is loaded.",
			s.handleRefreshDataset),
	}
}
