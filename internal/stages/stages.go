package stages

import (
	"fmt"
	"slices"
	"strings"
)

// Stage is one step of the workflow vocabulary. The set is closed: every
// stage the reporting layer knows about is declared below.
type Stage int

const (
	Backlog Stage = iota
	DeliveryBacklog
	IdeasIntake
	Discovery
	Rejected
	OnHold
	Open
	Blocked
	WaitingForSupport
	FailedTest
	InAnalysis
	ReadyForDevelopment
	InDevelopment
	InProgress
	InCodeReview
	InPR
	ReadyForPRTest
	InPRTest
	AwaitingSITDeployment
	InSit
	InQA
	ReadyForSITTest
	InSITTest
	InTest
	ReadyForStaging
	AwaitingUATDeployment
	DeployedToUAT
	InStaging
	ReadyForUATTest
	InUATTest
	InUAT
	DesignReview
	POReview
	ReadyForRelease
	PreProduction
	AwaitingProdDeployment
	ProdPreCheckDeployment
	DeployedToProd
	InProduction
	InProdTest
	BugFixed
	Done
	Closed

	stageCount
)

var names = [stageCount]string{
	Backlog:                "Backlog",
	DeliveryBacklog:        "Delivery Backlog",
	IdeasIntake:            "Ideas Intake",
	Discovery:              "Discovery",
	Rejected:               "Rejected",
	OnHold:                 "On Hold",
	Open:                   "Open",
	Blocked:                "Blocked",
	WaitingForSupport:      "Waiting for support",
	FailedTest:             "Failed Test",
	InAnalysis:             "In Analysis",
	ReadyForDevelopment:    "Ready for Development",
	InDevelopment:          "In Development",
	InProgress:             "In Progress",
	InCodeReview:           "In Code Review",
	InPR:                   "In PR",
	ReadyForPRTest:         "Ready for PR Test",
	InPRTest:               "In PR Test",
	AwaitingSITDeployment:  "Awaiting SIT Deployment",
	InSit:                  "In Sit",
	InQA:                   "In QA",
	ReadyForSITTest:        "Ready for SIT Test",
	InSITTest:              "In SIT Test",
	InTest:                 "In Test",
	ReadyForStaging:        "Ready for Staging",
	AwaitingUATDeployment:  "Awaiting UAT Deployment",
	DeployedToUAT:          "Deployed to UAT",
	InStaging:              "In Staging",
	ReadyForUATTest:        "Ready for UAT Test",
	InUATTest:              "In UAT Test",
	InUAT:                  "In UAT",
	DesignReview:           "Design Review",
	POReview:               "PO Review",
	ReadyForRelease:        "Ready for Release",
	PreProduction:          "Pre-Production",
	AwaitingProdDeployment: "Awaiting Prod Deployment",
	ProdPreCheckDeployment: "Prod Pre-Check Deployment",
	DeployedToProd:         "Deployed to Prod",
	InProduction:           "In Production",
	InProdTest:             "In Prod Test",
	BugFixed:               "Bug Fixed",
	Done:                   "Done",
	Closed:                 "Closed",
}

// tracked is the display order of stages that carry thresholds and
// in-sprint durations.
var tracked = []Stage{
	WaitingForSupport,
	InDevelopment,
	InProgress,
	Blocked,
	InCodeReview,
	ReadyForPRTest,
	InPRTest,
	AwaitingSITDeployment,
	InSit,
	ReadyForSITTest,
	InSITTest,
	InTest,
	InQA,
	AwaitingUATDeployment,
	InStaging,
	DeployedToUAT,
	ReadyForUATTest,
	InUATTest,
	InUAT,
	PreProduction,
	POReview,
	AwaitingProdDeployment,
	ReadyForRelease,
	InProdTest,
}

var terminal = []Stage{Done, Closed, Rejected}

// Columns are the dataset column names derived from a stage name.
type Columns struct {
	Start            string `json:"start"`
	End              string `json:"end"`
	Duration         string `json:"duration"`
	InSprintDuration string `json:"in_sprint_duration"`
}

const (
	columnPrefix   = "Stage "
	startSuffix    = " start"
	endSuffix      = " end"
	durationSuffix = " days"
	inSprintSuffix = " days in sprint"
)

var (
	columns  [stageCount]Columns
	byName   = make(map[string]Stage, stageCount)
	byColumn = make(map[string]Stage, stageCount*4)
)

func init() {
	for s := Stage(0); s < stageCount; s++ {
		name := names[s]
		c := Columns{
			Start:            StartColumn(name),
			End:              EndColumn(name),
			Duration:         DurationColumn(name),
			InSprintDuration: InSprintDurationColumn(name),
		}
		columns[s] = c
		byName[name] = s
		for _, col := range []string{c.Start, c.End, c.Duration, c.InSprintDuration} {
			byColumn[col] = s
		}
	}
}

func (s Stage) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return names[s]
}

// Valid reports whether s belongs to the vocabulary.
func (s Stage) Valid() bool {
	return s >= 0 && s < stageCount
}

// Columns returns the precomputed column names for s.
func (s Stage) Columns() Columns {
	if !s.Valid() {
		return Columns{}
	}
	return columns[s]
}

// Terminal reports whether s ends a ticket's lifecycle.
func (s Stage) Terminal() bool {
	return slices.Contains(terminal, s)
}

// MarshalText renders the stage by its display name so stage-keyed maps
// serialize readably.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStage, int(s))
	}
	return []byte(names[s]), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	st, ok := Lookup(string(text))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStage, string(text))
	}
	*s = st
	return nil
}

// All returns the whole vocabulary in declaration order.
func All() []Stage {
	out := make([]Stage, 0, stageCount)
	for s := Stage(0); s < stageCount; s++ {
		out = append(out, s)
	}
	return out
}

// Tracked returns the stages that carry thresholds, in display order.
func Tracked() []Stage {
	return slices.Clone(tracked)
}

// IsTracked reports whether s carries thresholds and in-sprint durations.
func IsTracked(s Stage) bool {
	return slices.Contains(tracked, s)
}

// TerminalStages returns Done, Closed and Rejected.
func TerminalStages() []Stage {
	return slices.Clone(terminal)
}

// Lookup resolves a display name to its stage.
func Lookup(name string) (Stage, bool) {
	s, ok := byName[name]
	return s, ok
}

// FromColumn resolves any of the four column forms back to its stage.
func FromColumn(column string) (Stage, bool) {
	s, ok := byColumn[column]
	return s, ok
}

// IsTerminalName reports whether a ticket's current stage label is terminal.
func IsTerminalName(name string) bool {
	s, ok := Lookup(name)
	return ok && s.Terminal()
}

// CanonicalName strips the column prefix and any of the column suffixes.
// Names without them are returned unchanged.
func CanonicalName(column string) string {
	name := strings.TrimPrefix(column, columnPrefix)
	for _, suffix := range []string{inSprintSuffix, durationSuffix, startSuffix, endSuffix} {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok {
			return trimmed
		}
	}
	return name
}

func StartColumn(name string) string {
	return columnPrefix + CanonicalName(name) + startSuffix
}

func EndColumn(name string) string {
	return columnPrefix + CanonicalName(name) + endSuffix
}

func DurationColumn(name string) string {
	return columnPrefix + CanonicalName(name) + durationSuffix
}

func InSprintDurationColumn(name string) string {
	return columnPrefix + CanonicalName(name) + inSprintSuffix
}

// IsStageColumn reports whether column looks like a stage column, known or not.
func IsStageColumn(column string) bool {
	if !strings.HasPrefix(column, columnPrefix) {
		return false
	}
	return CanonicalName(column) != strings.TrimPrefix(column, columnPrefix)
}
