package stages

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultSettings(t *testing.T) *Settings {
	t.Helper()
	s, err := DefaultConfig().Compile()
	require.NoError(t, err)
	return s
}

func TestClassify(t *testing.T) {
	th := defaultSettings(t).Thresholds

	tests := []struct {
		name      string
		stage     string
		days      float64
		wantLevel Level
		wantRatio float64
	}{
		{"critical at boundary", "In Development", 6, Critical, 2},
		{"warning at boundary", "In Development", 3, Warning, 1},
		{"below", "In Development", 2, Below, 2.0 / 3.0},
		{"code review critical", "In Code Review", 2, Critical, 2},
		{"unknown stage uses default", "Teleporting", 2, Warning, 1},
		{"zero days", "Blocked", 0, Below, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.Classify(tt.stage, tt.days)
			if got.Level != tt.wantLevel {
				t.Errorf("Classify(%q, %v).Level = %v, want %v", tt.stage, tt.days, got.Level, tt.wantLevel)
			}
			assert.InDelta(t, tt.wantRatio, got.Ratio, 1e-9)
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	th := defaultSettings(t).Thresholds
	names := []string{"", "default", "Nope"}
	for _, s := range All() {
		names = append(names, s.String())
	}

	for _, name := range names {
		for _, days := range []float64{0, 0.5, 1, 2, 3, 5, 10, 1000, 1e9} {
			got := th.Classify(name, days).Level
			if got != Below && got != Warning && got != Critical {
				t.Fatalf("Classify(%q, %v) = %v", name, days, got)
			}
		}
	}
}

func TestZeroWarningRatio(t *testing.T) {
	th := Threshold{Warning: 0, Critical: 0}
	if got := th.Ratio(4); got != 0 {
		t.Errorf("Ratio() = %v, want 0", got)
	}
	if got := th.Classify(0); got != Critical {
		t.Errorf("Classify(0) = %v, want critical", got)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "missing default",
			cfg:     Config{Thresholds: map[string]Threshold{"In QA": {Warning: 1, Critical: 2}}},
			wantErr: ErrMissingDefaultThreshold,
		},
		{
			name: "unknown threshold stage",
			cfg: Config{Thresholds: map[string]Threshold{
				DefaultKey:    {Warning: 1, Critical: 2},
				"Teleporting": {Warning: 1, Critical: 2},
			}},
			wantErr: ErrUnknownStage,
		},
		{
			name: "unknown group member",
			cfg: Config{
				Thresholds: map[string]Threshold{DefaultKey: {Warning: 1, Critical: 2}},
				Groupings:  []Group{{Name: "QA", Stages: []string{"In QA", "Teleporting"}}},
			},
			wantErr: ErrUnknownStage,
		},
		{
			name: "untracked group member",
			cfg: Config{
				Thresholds: map[string]Threshold{DefaultKey: {Warning: 1, Critical: 2}},
				Groupings:  []Group{{Name: "Deployed", Stages: []string{"Deployed to Prod"}}},
			},
			wantErr: ErrUntrackedStage,
		},
		{
			name: "unknown ignore entry",
			cfg: Config{
				Thresholds: map[string]Threshold{DefaultKey: {Warning: 1, Critical: 2}},
				Ignore:     []string{"Teleporting"},
			},
			wantErr: ErrUnknownStage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Compile()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCompileRejectsInvertedThreshold(t *testing.T) {
	cfg := Config{Thresholds: map[string]Threshold{DefaultKey: {Warning: 5, Critical: 2}}}
	_, err := cfg.Compile()
	require.Error(t, err)
}

func TestGroupThresholdKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds["Awaiting Release"] = Threshold{Warning: 4, Critical: 8}
	s, err := cfg.Compile()
	require.NoError(t, err)
	assert.Equal(t, Threshold{Warning: 4, Critical: 8}, s.Thresholds.For("Awaiting Release"))
}

func TestLoadSettingsFromHuJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.hujson")
	data := `{
		// tighter review budget
		"thresholds": {
			"In Code Review": {"warning": 2, "critical": 4},
		},
		"groupings": [
			{"name": "In QA", "stages": ["In SIT Test", "In UAT Test"]},
		],
		"ignore": [],
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, Threshold{Warning: 2, Critical: 4}, s.Thresholds.For("In Code Review"))
	// Entries absent from the file keep their built-in values.
	assert.Equal(t, Threshold{Warning: 3, Critical: 6}, s.Thresholds.For("In Development"))
	require.Len(t, s.Groupings, 1)
	assert.Equal(t, []Stage{InSITTest, InUATTest}, s.Groupings[0].Stages)
	assert.False(t, s.Ignored("Waiting for support"))
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.True(t, s.Ignored("Waiting for support"))
	assert.Equal(t, []Stage{InDevelopment, InProgress}, s.Members("In Development"))
	assert.Equal(t, []Stage{Blocked}, s.Members("Blocked"))
	assert.Nil(t, s.Members("Teleporting"))
}
