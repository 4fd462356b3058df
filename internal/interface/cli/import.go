package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/mycelica/mycimport/internal/core/db"
	"github.com/mycelica/mycimport/internal/core/graph"
	"github.com/mycelica/mycimport/internal/core/importer"
	"github.com/mycelica/mycimport/internal/core/selection"
	"github.com/mycelica/mycimport/pkg/claudeexport"
)

var (
	importStrategy   string
	importExclude    []string
	importFilter     string
	importSince      string
	importShuffle    bool
	importSeed       int64
	importMaxItems   int
	importBatchSize  int
	importNoProgress bool
)

var importCmd = &cobra.Command{
	Use:   "import [conversations.json]",
	Short: "Import a conversation export",
	Long: `Import a Claude conversations.json export into the Mycelica database.

Strategies:
  exchanges  one node per human/assistant exchange, linked by conversation_id.
             Refuses to run if conversation nodes already exist.
  messages   one node per human message plus a contains edge from the
             conversation. Replaces all existing nodes and edges.

Examples:
  mycimport import data/conversations.json
  mycimport import --filter mycelica --since "3 weeks ago"
  mycimport import --strategy messages --db ./data/mycelica.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importStrategy, "strategy", "", "Import strategy: exchanges or messages")
	importCmd.Flags().StringSliceVar(&importExclude, "exclude", nil, "Conversation uuids to leave out (added to exclude_ids)")
	importCmd.Flags().StringVar(&importFilter, "filter", "", "Only import conversations whose name contains this text")
	importCmd.Flags().StringVar(&importSince, "since", "", "Only import conversations created after this date (e.g. \"3 days ago\", 2024-11-01)")
	importCmd.Flags().BoolVar(&importShuffle, "shuffle", false, "Shuffle conversations before layout")
	importCmd.Flags().Int64Var(&importSeed, "seed", 0, "Shuffle seed (0 = random)")
	importCmd.Flags().IntVar(&importMaxItems, "max-items", 0, "Stop after this many exchanges (0 = unlimited)")
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", 0, "Conversations per commit")
	importCmd.Flags().BoolVar(&importNoProgress, "no-progress", false, "Print a line per batch instead of a progress bar")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	applyImportFlags(cmd)

	sourcePath := cfg.Input
	if len(args) > 0 {
		sourcePath = args[0]
	}

	maxLabel := "unlimited"
	if cfg.MaxItems > 0 {
		maxLabel = fmt.Sprint(cfg.MaxItems)
	}
	fmt.Fprintf(out, "Reading: %s\n", sourcePath)
	fmt.Fprintf(out, "Database: %s\n", cfg.Database)
	fmt.Fprintf(out, "Strategy: %s\n", cfg.Strategy)
	fmt.Fprintf(out, "Max items: %s\n\n", maxLabel)

	conversations, err := claudeexport.ParseFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}

	opts := selection.Options{
		ExcludeIDs:   cfg.ExcludeIDs,
		NameContains: cfg.NameFilter,
		Shuffle:      cfg.Shuffle,
		Seed:         cfg.Seed,
	}
	if cfg.Since != "" {
		since, ok := parseSince(cfg.Since, time.Now())
		if !ok {
			return fmt.Errorf("could not understand --since %q", cfg.Since)
		}
		opts.Since = since
		log.Info("filtering by creation date", "since", since.Format(time.RFC3339))
	}

	selected := selection.Apply(conversations, opts)
	if cfg.NameFilter != "" || !opts.Since.IsZero() {
		fmt.Fprintf(out, "Filtered out %d conversations\n", selected.Filtered)
	}
	fmt.Fprintf(out, "Found %d conversations (excluded %d)\n", len(selected.Conversations), selected.Excluded)

	strategy, err := graph.NewStrategy(cfg.Strategy, cfg.ContainerContent)
	if err != nil {
		return err
	}
	layout := graph.Layout{OuterRadius: cfg.OuterRadius, InnerRadius: cfg.InnerRadius}
	g := graph.BuildGraph(selected.Conversations, strategy, layout)

	database, err := db.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = database.Close()
	}()

	imp := importer.New(database, log, importer.Options{
		BatchSize: cfg.BatchSize,
		MaxItems:  cfg.MaxItems,
	})
	progress := importer.NewProgressReporter(out, len(g.Groups), showProgressBar(out))

	res, runErr := imp.Import(ctx, g, progress)
	if err := imp.RecordRun(ctx, sourcePath, res, runErr); err != nil {
		log.Warn("could not write import log", "error", err)
	}

	if errors.Is(runErr, importer.ErrAlreadyImported) {
		fmt.Fprintf(out, "Warning: %d conversation nodes already exist. Skipping import.\n", res.Existing)
		fmt.Fprintln(out, "To reimport, clear the database first or use --strategy messages.")
		printSummary(out, res)
		return nil
	}
	if runErr != nil {
		return fmt.Errorf("import failed: %w", runErr)
	}

	progress.Finish()
	if res.LimitReached {
		fmt.Fprintf(out, "Reached %d item limit, stopped.\n", cfg.MaxItems)
	}
	printSummary(out, res)
	return nil
}

// applyImportFlags layers explicitly set flags over the loaded config
func applyImportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("strategy") {
		cfg.Strategy = importStrategy
	}
	if flags.Changed("exclude") {
		cfg.ExcludeIDs = append(cfg.ExcludeIDs, importExclude...)
	}
	if flags.Changed("filter") {
		cfg.NameFilter = importFilter
	}
	if flags.Changed("since") {
		cfg.Since = importSince
	}
	if flags.Changed("shuffle") {
		cfg.Shuffle = importShuffle
	}
	if flags.Changed("seed") {
		cfg.Seed = importSeed
	}
	if flags.Changed("max-items") {
		cfg.MaxItems = importMaxItems
	}
	if flags.Changed("batch-size") && importBatchSize > 0 {
		cfg.BatchSize = importBatchSize
	}
}

func showProgressBar(w io.Writer) bool {
	if importNoProgress {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// parseSince understands natural language ("3 days ago", "last friday") as
// well as plain dates.
func parseSince(s string, now time.Time) (time.Time, bool) {
	if t, ok := claudeexport.ParseTime(s); ok {
		return t, true
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(s, now)
	if err == nil && result != nil {
		return result.Time, true
	}

	return time.Time{}, false
}
