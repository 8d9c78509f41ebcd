package stages

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingDefaultThreshold is returned when a threshold table has no "default" entry.
	ErrMissingDefaultThreshold = errors.New("threshold table has no default entry")
	// ErrUnknownStage is returned when configuration names a stage outside the vocabulary.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrUntrackedStage is returned when a group member has no in-sprint durations.
	ErrUntrackedStage = errors.New("stage has no in-sprint durations")
)

// DefaultKey is the threshold table entry applied to stages without their own.
const DefaultKey = "default"

// Level is the traffic-light classification of a time-in-stage value.
type Level int

const (
	Below Level = iota
	Warning
	Critical
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return "below"
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Threshold holds the warning and critical day counts for a stage.
type Threshold struct {
	Warning  float64 `json:"warning" validate:"gte=0"`
	Critical float64 `json:"critical" validate:"gtefield=Warning"`
}

// Classify buckets days against t. Equality with a boundary counts as reaching it.
func (t Threshold) Classify(days float64) Level {
	switch {
	case days >= t.Critical:
		return Critical
	case days >= t.Warning:
		return Warning
	default:
		return Below
	}
}

// Ratio is days over the warning threshold. A zero warning yields zero.
func (t Threshold) Ratio(days float64) float64 {
	if t.Warning <= 0 {
		return 0
	}
	return days / t.Warning
}

// Thresholds is the validated threshold table. Lookups never fail: names
// without an entry fall back to the default.
type Thresholds struct {
	def    Threshold
	byName map[string]Threshold
}

// NewThresholds builds a table from raw entries keyed by stage or group name.
func NewThresholds(entries map[string]Threshold) (Thresholds, error) {
	def, ok := entries[DefaultKey]
	if !ok {
		return Thresholds{}, ErrMissingDefaultThreshold
	}
	byName := make(map[string]Threshold, len(entries))
	for name, th := range entries {
		if th.Critical < th.Warning {
			return Thresholds{}, fmt.Errorf("threshold %q: critical %.1f is below warning %.1f", name, th.Critical, th.Warning)
		}
		if name != DefaultKey {
			byName[name] = th
		}
	}
	return Thresholds{def: def, byName: byName}, nil
}

// For returns the threshold for a stage or group name.
func (t Thresholds) For(name string) Threshold {
	if th, ok := t.byName[name]; ok {
		return th
	}
	return t.def
}

// Classification is the outcome of classifying a time-in-stage value.
type Classification struct {
	Level Level   `json:"level"`
	Ratio float64 `json:"ratio"`
}

// Classify returns the level of days spent in the named stage and its
// ratio to the warning threshold.
func (t Thresholds) Classify(name string, days float64) Classification {
	th := t.For(name)
	return Classification{Level: th.Classify(days), Ratio: th.Ratio(days)}
}
