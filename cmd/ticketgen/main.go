package main

import (
	"fmt"
	"os"
	"time"

	"flowdash/cmd/ticketgen/engine"

	"github.com/spf13/pflag"
)

func main() {
	out := pflag.StringP("out", "o", "./jira_metrics.csv", "Output CSV path")
	sprints := pflag.Int("sprints", 6, "Number of two-week sprints to generate")
	perSprint := pflag.Int("per-sprint", 25, "Tickets started per sprint")
	seed := pflag.Int64("seed", 1, "Random seed; the same seed yields the same export")
	projects := pflag.StringSlice("project", []string{"Commerce", "Content"}, "Project names")
	squads := pflag.StringSlice("squad", []string{"Team1", "Team2", "Team3"}, "Squad names")
	pflag.Parse()

	cfg := engine.GeneratorConfig{
		Projects:  *projects,
		Squads:    *squads,
		Sprints:   *sprints,
		PerSprint: *perSprint,
		Seed:      *seed,
		Now:       time.Now(),
	}

	fmt.Printf("Generating %d sprints of %d tickets (seed %d) to %s...\n", cfg.Sprints, cfg.PerSprint, cfg.Seed, *out)

	tickets := engine.Generate(cfg)
	if err := engine.Save(*out, tickets); err != nil {
		fmt.Printf("Failed to save export: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
