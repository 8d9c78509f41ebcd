package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	CSVPath         string
	StageConfigPath string
	DataPath        string
	LogDir          string
	// SprintProjects and DoraProjects narrow the project choices of the
	// sprint and DORA views. Empty means every project in the dataset.
	SprintProjects []string
	DoraProjects   []string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. .env next to the binary takes precedence for installed servers
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Working directory .env for local runs
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := getEnv("DATA_PATH", "")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	cfg := &AppConfig{
		CSVPath:         getEnv("REPORTING_CSV_PATH", filepath.Join(dataPath, "jira_metrics.csv")),
		StageConfigPath: getEnv("STAGE_CONFIG_PATH", ""),
		DataPath:        dataPath,
		LogDir:          logDir,
		SprintProjects:  getEnvList("SPRINT_DASHBOARD_VALID_PROJECT_NAMES"),
		DoraProjects:    getEnvList("DORA_DASHBOARD_VALID_PROJECT_NAMES"),
	}

	if cfg.CSVPath == "" {
		return nil, fmt.Errorf("REPORTING_CSV_PATH is empty")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
