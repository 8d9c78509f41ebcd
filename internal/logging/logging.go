package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "flowdash.log"

// Init installs the global logger: a console writer on stderr and a rotating
// file under LOGS_FOLDER. Stdout is left alone because it carries MCP traffic.
func Init(verbose bool) {
	// Init runs before config.Load, so read the binary's .env for LOGS_FOLDER.
	exeDir := ""
	if exePath, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exePath)
		_ = godotenv.Load(filepath.Join(exeDir, ".env"))
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	logDir, err := ensureLogDir(resolveLogDir(exeDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log.Logger = New(consoleWriter(os.Stderr), fileWriter(logDir))
}

// New builds a timestamped logger fanning out to every writer.
func New(writers ...io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger()
}

func consoleWriter(f *os.File) io.Writer {
	isTerminal := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	return zerolog.ConsoleWriter{
		Out:        f,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}
}

func fileWriter(dir string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    16, // megabytes
		MaxBackups: 8,
		MaxAge:     90, // days
		Compress:   true,
	}
}

func resolveLogDir(exeDir string) string {
	if dir := os.Getenv("LOGS_FOLDER"); dir != "" {
		return dir
	}
	if exeDir != "" {
		return filepath.Join(exeDir, "logs")
	}
	return "logs"
}

// ensureLogDir creates dir and proves it is writable.
func ensureLogDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return "", fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)
	return dir, nil
}
