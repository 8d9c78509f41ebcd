package commands

import (
	"encoding/json"
	"io"

	"flowdash/internal/filter"
	"flowdash/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	sprintName  string
	projects    []string
	squads      []string
	sprints     []string
	ticketTypes []string
	startDate   string
	endDate     string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the stage breakdown, threshold violations and defects of a sprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := cache.RefreshIfStale(cmd.Context())
		if err != nil {
			return err
		}
		report, warnings, err := server.SprintReport(snap, mcp.SprintInput{
			Sprint:   sprintName,
			Projects: projects,
			Squads:   squads,
		})
		if err != nil {
			return err
		}
		logWarnings(warnings)
		return writeJSON(cmd.OutOrStdout(), report)
	},
}

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "Print the filter choices available for a selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := cache.RefreshIfStale(cmd.Context())
		if err != nil {
			return err
		}
		res := server.Facets(snap, filter.Criteria{
			Projects:    projects,
			Squads:      squads,
			Sprints:     sprints,
			TicketTypes: ticketTypes,
		}, false)
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

var doraCmd = &cobra.Command{
	Use:   "dora",
	Short: "Print DORA delivery metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := server.DoraFilter(mcp.DoraInput{
			Projects:  projects,
			Squads:    squads,
			StartDate: startDate,
			EndDate:   endDate,
		})
		if err != nil {
			return err
		}
		snap, err := cache.RefreshIfStale(cmd.Context())
		if err != nil {
			return err
		}
		res, warnings := server.DoraMetrics(snap, f)
		logWarnings(warnings)
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

func logWarnings(warnings []string) {
	for _, w := range warnings {
		log.Warn().Msg(w)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	reportCmd.Flags().StringVar(&sprintName, "sprint", "", "exact sprint name")
	_ = reportCmd.MarkFlagRequired("sprint")

	for _, c := range []*cobra.Command{reportCmd, facetsCmd, doraCmd} {
		c.Flags().StringSliceVar(&projects, "project", nil, "project names (repeatable)")
		c.Flags().StringSliceVar(&squads, "squad", nil, "squad names (repeatable)")
	}

	facetsCmd.Flags().StringSliceVar(&sprints, "sprint", nil, "sprint names (repeatable)")
	facetsCmd.Flags().StringSliceVar(&ticketTypes, "type", nil, "ticket types (repeatable)")

	doraCmd.Flags().StringVar(&startDate, "start", "", "earliest creation date (YYYY-MM-DD)")
	doraCmd.Flags().StringVar(&endDate, "end", "", "latest creation date, inclusive (YYYY-MM-DD)")
}
