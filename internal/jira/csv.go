package jira

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"flowdash/internal/stages"

	"github.com/rs/zerolog/log"
)

// Column names of the metrics export.
const (
	ColumnID              = "ID"
	ColumnLink            = "Link"
	ColumnName            = "Name"
	ColumnType            = "Type"
	ColumnProject         = "Project"
	ColumnSquad           = "Squad"
	ColumnSquad2          = "Squad2"
	ColumnPriority        = "Priority"
	ColumnStage           = "Stage"
	ColumnSprint          = "Sprint"
	ColumnSprintStartDate = "SprintStartDate"
	ColumnSprintEndDate   = "SprintEndDate"
	ColumnCreatedDate     = "CreatedDate"
	ColumnUpdatedDate     = "UpdatedDate"
	ColumnComponents      = "Components"
	ColumnStoryPoints     = "StoryPoints"
	ColumnFixVersions     = "FixVersions"
	ColumnAssigneeName    = "AssigneeName"
	ColumnParentType      = "ParentType"
	ColumnParentName      = "ParentName"
)

// Export is a decoded metrics export.
type Export struct {
	Tickets []Ticket
	// Stages lists the vocabulary stages that had columns in the export.
	Stages []stages.Stage
}

type stageColumns struct {
	start, days int
}

// ReadCSV decodes a metrics export. Pseudo-array fields are decoded here;
// unknown stage columns are logged and ignored.
func ReadCSV(r io.Reader) (*Export, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Export{}, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	stageCols := make(map[stages.Stage]*stageColumns)
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		index[h] = i

		if !stages.IsStageColumn(h) {
			continue
		}
		s, ok := stages.FromColumn(h)
		if !ok {
			log.Warn().Str("column", h).Msg("Ignoring column for stage outside the vocabulary")
			continue
		}
		sc := stageCols[s]
		if sc == nil {
			sc = &stageColumns{start: -1, days: -1}
			stageCols[s] = sc
		}
		cols := s.Columns()
		switch h {
		case cols.Start:
			sc.start = i
		case cols.Duration:
			sc.days = i
		}
	}
	if _, ok := index[ColumnID]; !ok {
		return nil, fmt.Errorf("csv has no %q column", ColumnID)
	}

	present := make([]stages.Stage, 0, len(stageCols))
	for _, s := range stages.All() {
		if sc, ok := stageCols[s]; ok && (sc.start >= 0 || sc.days >= 0) {
			present = append(present, s)
		}
	}

	export := &Export{Stages: present}
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		field := func(i int) string {
			if i < 0 || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		id := get(ColumnID)
		if id == "" {
			log.Debug().Int("line", line).Msg("Skipping row without ticket ID")
			continue
		}

		t := Ticket{
			ID:          id,
			Link:        get(ColumnLink),
			Name:        get(ColumnName),
			Type:        get(ColumnType),
			Project:     get(ColumnProject),
			Squad:       get(ColumnSquad),
			Squad2:      get(ColumnSquad2),
			Priority:    get(ColumnPriority),
			Stage:       get(ColumnStage),
			Sprint:      decodeSprint(get(ColumnSprint), get(ColumnSprintStartDate), get(ColumnSprintEndDate)),
			Components:  CalculateComponents(get(ColumnComponents), get(ColumnName), id),
			StoryPoints: parseNumber(get(ColumnStoryPoints)),
			FixVersions: get(ColumnFixVersions),
			Assignee:    get(ColumnAssigneeName),
			ParentType:  get(ColumnParentType),
			ParentName:  get(ColumnParentName),
			Stages:      make(map[stages.Stage]StageTiming, len(present)),
		}
		t.Created, _ = ParseTimestamp(get(ColumnCreatedDate))
		t.Updated, _ = ParseTimestamp(get(ColumnUpdatedDate))

		for _, s := range present {
			sc := stageCols[s]
			timing := StageTiming{Days: parseNumber(field(sc.days))}
			if start, ok := ParseTimestamp(field(sc.start)); ok {
				timing.Start = &start
			}
			t.Stages[s] = timing
		}

		if t.Sprint.Multi && (len(t.Sprint.Starts) != len(t.Sprint.Names) || len(t.Sprint.Ends) != len(t.Sprint.Names)) {
			log.Debug().Str("ticket", id).Msg("Sprint names and sprint dates differ in cardinality")
		}
		export.Tickets = append(export.Tickets, t)
	}

	return export, nil
}

func decodeSprint(names, starts, ends string) SprintField {
	if names == "" {
		return SprintField{}
	}
	f := SprintField{
		Names: DecodeArray(names, QuotedSeparator),
		Multi: IsArray(names),
	}
	if starts != "" {
		f.Starts = DecodeArray(starts, QuotedSeparator)
	}
	if ends != "" {
		f.Ends = DecodeArray(ends, QuotedSeparator)
	}
	return f
}

// parseNumber treats blank and non-numeric values as zero and clamps
// negatives, since stage day counters are never negative.
func parseNumber(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CSVSource loads the metrics export from a file path.
type CSVSource struct {
	Path string
}

// ModTime returns the file's last modification time.
func (s CSVSource) ModTime() (time.Time, error) {
	fi, err := os.Stat(s.Path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat %s: %w", s.Path, err)
	}
	return fi.ModTime(), nil
}

// Load reads and decodes the export.
func (s CSVSource) Load(ctx context.Context) (*Export, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.Path, err)
	}
	defer f.Close()

	export, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.Path, err)
	}
	return export, nil
}
