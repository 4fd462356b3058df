package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mycelica/mycimport/internal/core/config"
	"github.com/mycelica/mycimport/internal/platform/logger"
)

var (
	configPath  string
	dbPath      string
	logMode     string
	versionInfo string

	// Populated by the root PersistentPreRunE
	cfg *config.Config
	log *logger.Logger
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI. Ctrl-C cancels the context; an import stops after
// the current conversation and keeps the batches already committed.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if log != nil {
		log.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mycimport",
	Short: "Import Claude conversation exports into Mycelica",
	Long: `mycimport - turn a Claude conversations.json export into Mycelica graph nodes

Each conversation becomes a container node laid out on a circle, with its
exchanges (or human messages) placed on a smaller circle around it.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/mycimport/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default ~/.local/share/com.mycelica.app/mycelica.db)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "", "Log mode: dev, debug, prod or quiet")
}

// loadConfig resolves the configuration and logger before any subcommand
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		loaded.Database = dbPath
	}
	if logMode != "" {
		loaded.LogMode = logMode
	}
	cfg = loaded

	log, err = logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	return nil
}
