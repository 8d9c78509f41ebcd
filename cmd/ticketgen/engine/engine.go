package engine

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"flowdash/internal/jira"
	"flowdash/internal/stages"

	"github.com/natefinch/atomic"
)

// TimestampLayout is the Jira timestamp format the extractor writes.
const TimestampLayout = "2006-01-02T15:04:05.000-0700"

type GeneratorConfig struct {
	Projects  []string
	Squads    []string
	Sprints   int
	PerSprint int
	Seed      int64
	Now       time.Time
}

// Sprint is one generated two-week sprint, Monday to Friday.
type Sprint struct {
	Name  string
	Start time.Time
	End   time.Time
}

type step struct {
	stage            stages.Stage
	minDays, maxDays float64
}

// workflow is the happy path every generated ticket walks, in order.
var workflow = []step{
	{stages.ReadyForDevelopment, 0.5, 2},
	{stages.InDevelopment, 1, 7},
	{stages.InCodeReview, 0.2, 3},
	{stages.InPRTest, 0.5, 3},
	{stages.InSITTest, 0.5, 4},
	{stages.InUATTest, 0.5, 4},
	{stages.AwaitingProdDeployment, 1, 12},
}

var (
	priorities = []string{"Highest", "P1", "High", "P2", "Medium", "P3", "Low", "P4"}
	assignees  = []string{"Ada Lovelace", "Grace Hopper", "Alan Turing", "Katherine Johnson", ""}
	summaries  = []string{
		"[FEWeb|BFF] Update checkout copy",
		"[FEApp] Fix basket badge count",
		"[SITECORE] Hero banner variants",
		"Refresh product listing filters",
		"[SFCC|XM] Sync order status",
		"Improve search relevance",
	}
	storyPoints = []float64{1, 2, 3, 5, 8}
)

// Sprints lays out cfg.Sprints consecutive sprints, the last one ending on
// the Friday before the week of cfg.Now.
func Sprints(cfg GeneratorConfig) []Sprint {
	now := cfg.Now.UTC().Truncate(24 * time.Hour)
	offset := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -offset)

	out := make([]Sprint, 0, cfg.Sprints)
	for i := cfg.Sprints; i > 0; i-- {
		start := monday.AddDate(0, 0, -14*i)
		out = append(out, Sprint{
			Name:  "FD " + start.Format("2.1.06"),
			Start: start,
			End:   start.AddDate(0, 0, 11),
		})
	}
	return out
}

// Generate builds a deterministic synthetic ticket export for cfg.Seed.
func Generate(cfg GeneratorConfig) []jira.Ticket {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if len(cfg.Projects) == 0 {
		cfg.Projects = []string{"Commerce"}
	}
	if len(cfg.Squads) == 0 {
		cfg.Squads = []string{"Team1"}
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	now := cfg.Now.UTC().Truncate(time.Minute)
	sprints := Sprints(cfg)
	counters := make(map[string]int)

	var tickets []jira.Ticket
	for si, sp := range sprints {
		for n := 0; n < cfg.PerSprint; n++ {
			project := pick(rng, cfg.Projects)
			counters[project]++
			id := fmt.Sprintf("%s-%d", projectKey(project), counters[project])
			name := pick(rng, summaries)

			t := jira.Ticket{
				ID:          id,
				Link:        "https://jira.example.com/browse/" + id,
				Name:        name,
				Type:        ticketType(rng),
				Project:     project,
				Squad:       pick(rng, cfg.Squads),
				Priority:    pick(rng, priorities),
				Created:     sp.Start.Add(-time.Duration(rng.Intn(10*24*60)) * time.Minute),
				Components:  jira.CalculateComponents("", name, id),
				StoryPoints: pick(rng, storyPoints),
				Assignee:    pick(rng, assignees),
				Stages:      make(map[stages.Stage]jira.StageTiming),
			}
			if rng.Float64() < 0.1 {
				t.Squad2 = pick(rng, cfg.Squads)
			}

			// 1. Walk the workflow from somewhere early in the sprint.
			cursor := sp.Start.Add(time.Duration(rng.Intn(3*24*60)) * time.Minute)
			t.Stage = stages.Done.String()
			for _, st := range workflow {
				start := cursor
				days := round1(st.minDays + rng.Float64()*(st.maxDays-st.minDays))
				cursor = start.Add(time.Duration(days * float64(24*time.Hour))).Truncate(time.Minute)
				if cursor.After(now) {
					t.Stages[st.stage] = jira.StageTiming{Start: &start, Days: round1(now.Sub(start).Hours() / 24)}
					t.Stage = st.stage.String()
					cursor = now
					break
				}
				t.Stages[st.stage] = jira.StageTiming{Start: &start, Days: days}
			}
			if t.Stage == stages.Done.String() {
				done := cursor
				t.Stages[stages.Done] = jira.StageTiming{Start: &done, Days: round1(now.Sub(done).Hours() / 24)}
				t.FixVersions = "R" + done.Format("2006.01")
			}
			t.Updated = cursor

			// 2. Work still open past the sprint end carries into the next one.
			t.Sprint = sprintField(sp)
			if si+1 < len(sprints) && cursor.After(sp.End) {
				next := sprints[si+1]
				t.Sprint = jira.SprintField{
					Names:  []string{sp.Name, next.Name},
					Starts: []string{formatDate(sp.Start), formatDate(next.Start)},
					Ends:   []string{formatDate(sp.End), formatDate(next.End)},
					Multi:  true,
				}
			}
			tickets = append(tickets, t)
		}
	}
	return tickets
}

// Columns returns the export header the generator writes.
func Columns() []string {
	cols := []string{
		jira.ColumnID, jira.ColumnLink, jira.ColumnName, jira.ColumnType, jira.ColumnProject,
		jira.ColumnSquad, jira.ColumnSquad2, jira.ColumnPriority, jira.ColumnStage,
		jira.ColumnSprint, jira.ColumnSprintStartDate, jira.ColumnSprintEndDate,
		jira.ColumnCreatedDate, jira.ColumnUpdatedDate, jira.ColumnComponents,
		jira.ColumnStoryPoints, jira.ColumnFixVersions, jira.ColumnAssigneeName,
		jira.ColumnParentType, jira.ColumnParentName,
	}
	for _, s := range exportedStages() {
		c := s.Columns()
		cols = append(cols, c.Start, c.Duration)
	}
	return cols
}

// WriteCSV encodes tickets in the extractor's export format.
func WriteCSV(w io.Writer, tickets []jira.Ticket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns()); err != nil {
		return err
	}

	for _, t := range tickets {
		names, starts, ends := encodeSprint(t.Sprint)
		row := []string{
			t.ID, t.Link, t.Name, t.Type, t.Project,
			t.Squad, t.Squad2, t.Priority, t.Stage,
			names, starts, ends,
			formatTimestamp(t.Created), formatTimestamp(t.Updated), encodeComponents(t.Components),
			formatFloat(t.StoryPoints), t.FixVersions, t.Assignee,
			t.ParentType, t.ParentName,
		}
		for _, s := range exportedStages() {
			timing, ok := t.Stages[s]
			if !ok || timing.Start == nil {
				row = append(row, "", "")
				continue
			}
			row = append(row, formatTimestamp(*timing.Start), formatFloat(timing.Days))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Save writes the export to path atomically, so a running server never
// picks up a half-written file.
func Save(path string, tickets []jira.Ticket) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, tickets); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return atomic.WriteFile(path, &buf)
}

func exportedStages() []stages.Stage {
	out := make([]stages.Stage, 0, len(workflow)+1)
	for _, st := range workflow {
		out = append(out, st.stage)
	}
	return append(out, stages.Done)
}

func sprintField(sp Sprint) jira.SprintField {
	return jira.SprintField{
		Names:  []string{sp.Name},
		Starts: []string{formatDate(sp.Start)},
		Ends:   []string{formatDate(sp.End)},
	}
}

func encodeSprint(f jira.SprintField) (names, starts, ends string) {
	if f.Multi {
		return jira.EncodeArray(f.Names), jira.EncodeArray(f.Starts), jira.EncodeArray(f.Ends)
	}
	return first(f.Names), first(f.Starts), first(f.Ends)
}

func encodeComponents(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return jira.EncodeArray(values)
}

func ticketType(rng *rand.Rand) string {
	switch r := rng.Float64(); {
	case r < 0.6:
		return "Story"
	case r < 0.85:
		return "Bug"
	default:
		return "Task"
	}
}

func projectKey(project string) string {
	key := strings.ToUpper(project)
	if len(key) > 3 {
		key = key[:3]
	}
	return key
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.Intn(len(values))]
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
