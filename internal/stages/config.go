package stages

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/tailscale/hujson"
)

// Group merges several stages into one reporting bucket.
type Group struct {
	Name   string   `json:"name" validate:"required"`
	Stages []string `json:"stages" validate:"required,min=1,dive,required"`
}

// Config is the on-disk shape of the stage configuration.
type Config struct {
	Thresholds map[string]Threshold `json:"thresholds" validate:"required,dive"`
	Groupings  []Group              `json:"groupings" validate:"dive"`
	Ignore     []string             `json:"ignore"`
}

// Grouping is a validated Group with its members resolved.
type Grouping struct {
	Name   string  `json:"name"`
	Stages []Stage `json:"stages"`
}

// Settings is the compiled, read-only stage configuration used at runtime.
type Settings struct {
	Thresholds Thresholds
	Groupings  []Grouping
	ignore     map[string]bool
}

// Ignored reports whether a stage or group name is hidden from breakdowns.
func (s *Settings) Ignored(name string) bool {
	return s.ignore[name]
}

// Group returns the grouping named name, if any.
func (s *Settings) Group(name string) (Grouping, bool) {
	for _, g := range s.Groupings {
		if g.Name == name {
			return g, true
		}
	}
	return Grouping{}, false
}

// Members resolves a stage or group name to the stages it covers.
// Unknown names resolve to nothing.
func (s *Settings) Members(name string) []Stage {
	if g, ok := s.Group(name); ok {
		return slices.Clone(g.Stages)
	}
	if st, ok := Lookup(name); ok {
		return []Stage{st}
	}
	return nil
}

// DefaultConfig returns the built-in thresholds, groupings and ignore list.
func DefaultConfig() Config {
	return Config{
		Thresholds: map[string]Threshold{
			DefaultKey:                 {Warning: 2, Critical: 5},
			"In Development":           {Warning: 3, Critical: 6},
			"In Code Review":           {Warning: 1, Critical: 2},
			"In PR Test":               {Warning: 2, Critical: 3},
			"In SIT Test":              {Warning: 2, Critical: 3},
			"In UAT Test":              {Warning: 2, Critical: 3},
			"Awaiting Prod Deployment": {Warning: 10, Critical: 20},
			"Done":                     {Warning: 1000, Critical: 1000},
		},
		Groupings: []Group{
			{Name: "In Development", Stages: []string{"In Development", "In Progress"}},
			{Name: "In PR Test", Stages: []string{"Ready for PR Test", "In PR Test"}},
			{Name: "In QA", Stages: []string{"Ready for SIT Test", "In SIT Test", "In Sit", "In Test", "In QA", "Ready for UAT Test", "In UAT Test", "In UAT"}},
			{Name: "Awaiting Deployment", Stages: []string{"Awaiting SIT Deployment", "Awaiting UAT Deployment", "Deployed to UAT", "In Staging"}},
			{Name: "Awaiting Release", Stages: []string{"Pre-Production", "Awaiting Prod Deployment", "Ready for Release", "In Prod Test"}},
		},
		Ignore: []string{"Waiting for support"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and that every name belongs to the
// vocabulary. Threshold keys may also name a configured group. Group
// members must be tracked stages, since only those accrue in-sprint days.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid stage config: %w", err)
	}
	if _, ok := c.Thresholds[DefaultKey]; !ok {
		return ErrMissingDefaultThreshold
	}

	groups := make(map[string]bool, len(c.Groupings))
	for _, g := range c.Groupings {
		if groups[g.Name] {
			return fmt.Errorf("invalid stage config: duplicate group %q", g.Name)
		}
		groups[g.Name] = true
		for _, name := range g.Stages {
			st, ok := Lookup(name)
			if !ok {
				return fmt.Errorf("group %q: %w: %q", g.Name, ErrUnknownStage, name)
			}
			if !IsTracked(st) {
				return fmt.Errorf("group %q: %w: %q", g.Name, ErrUntrackedStage, name)
			}
		}
	}
	for name := range c.Thresholds {
		if name == DefaultKey || groups[name] {
			continue
		}
		if _, ok := Lookup(name); !ok {
			return fmt.Errorf("thresholds: %w: %q", ErrUnknownStage, name)
		}
	}
	for _, name := range c.Ignore {
		if groups[name] {
			continue
		}
		if _, ok := Lookup(name); !ok {
			return fmt.Errorf("ignore: %w: %q", ErrUnknownStage, name)
		}
	}
	return nil
}

// Compile validates c and resolves it into runtime settings.
func (c Config) Compile() (*Settings, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	th, err := NewThresholds(c.Thresholds)
	if err != nil {
		return nil, err
	}

	groupings := make([]Grouping, 0, len(c.Groupings))
	for _, g := range c.Groupings {
		members := make([]Stage, 0, len(g.Stages))
		for _, name := range g.Stages {
			st, _ := Lookup(name)
			members = append(members, st)
		}
		groupings = append(groupings, Grouping{Name: g.Name, Stages: members})
	}

	ignore := make(map[string]bool, len(c.Ignore))
	for _, name := range c.Ignore {
		ignore[name] = true
	}

	return &Settings{Thresholds: th, Groupings: groupings, ignore: ignore}, nil
}

// ParseConfig decodes HuJSON on top of the defaults. Threshold entries merge
// with the built-in table; groupings and ignore replace it when present.
func ParseConfig(data []byte) (Config, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse stage config: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(std, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode stage config: %w", err)
	}
	return cfg, nil
}

// LoadSettings compiles the stage configuration. An empty path uses the
// built-in defaults.
func LoadSettings(path string) (*Settings, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read stage config: %w", err)
		}
		if cfg, err = ParseConfig(data); err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Msg("Loaded stage configuration")
	}
	return cfg.Compile()
}
