package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"flowdash/internal/config"
	"flowdash/internal/dataset"
	"flowdash/internal/jira"
	"flowdash/internal/logging"
	"flowdash/internal/mcp"
	"flowdash/internal/stages"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	cache  *dataset.Cache
	server *mcp.Server
)

var rootCmd = &cobra.Command{
	Use:   "flowdash",
	Short: "flowdash serves sprint flow and DORA metrics from a Jira export",
	Long: `flowdash reads the Jira metrics CSV export and answers sprint stage-duration,
threshold, drill-down and DORA questions, either as an MCP server over stdio
or as one-shot JSON reports.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		settings, err := stages.LoadSettings(cfg.StageConfigPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.StageConfigPath).Msg("Invalid stage configuration")
		}

		cache = dataset.NewCache(jira.CSVSource{Path: cfg.CSVPath})
		server = mcp.NewServer(cfg, cache, settings, Version)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("csv", cfg.CSVPath).
			Msg("flowdash starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Load eagerly so a broken export shows up in the log at startup.
		if _, err := cache.RefreshIfStale(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial dataset load failed; will retry on the first request")
		}
		return server.Start(ctx)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(reportCmd, facetsCmd, doraCmd)
}
