package config

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DATA_PATH", dir)
	t.Setenv("REPORTING_CSV_PATH", "/srv/exports/jira_metrics.csv")
	t.Setenv("STAGE_CONFIG_PATH", "/etc/flowdash/stages.hujson")
	t.Setenv("SPRINT_DASHBOARD_VALID_PROJECT_NAMES", "Commerce, Content ,,")
	t.Setenv("DORA_DASHBOARD_VALID_PROJECT_NAMES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/exports/jira_metrics.csv", cfg.CSVPath)
	assert.Equal(t, "/etc/flowdash/stages.hujson", cfg.StageConfigPath)
	assert.Equal(t, filepath.Join(dir, "logs"), cfg.LogDir)
	if diff := cmp.Diff([]string{"Commerce", "Content"}, cfg.SprintProjects); diff != "" {
		t.Errorf("SprintProjects mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, cfg.DoraProjects)
}

func TestLoadRejectsEmptyCSVPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DATA_PATH", dir)
	t.Setenv("REPORTING_CSV_PATH", "")

	_, err := Load()
	assert.Error(t, err, "an explicitly empty path is rejected")
}

func TestGetEnvList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"single", "Commerce", []string{"Commerce"}},
		{"trimmed", " Commerce , Content ", []string{"Commerce", "Content"}},
		{"blank entries", ",,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FLOWDASH_TEST_LIST", tt.value)
			if diff := cmp.Diff(tt.want, getEnvList("FLOWDASH_TEST_LIST")); diff != "" {
				t.Errorf("getEnvList() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
