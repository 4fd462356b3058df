package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mycelica/mycimport/internal/core/db"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long: `Display statistics about the Mycelica graph.

Shows node counts by type and hierarchy level, conversation-linked nodes,
edges, recent imports and storage info.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var levelNames = map[int]string{0: "Universe", 1: "Galaxy", 2: "World", 3: "Tree", 4: "Leaf"}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	database, err := db.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = database.Close()
	}()

	stats, err := database.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	fmt.Fprintln(out, "Graph Statistics")
	fmt.Fprintln(out, "================")
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Total Nodes:         %s\n", humanize.Comma(int64(stats.TotalNodes)))
	fmt.Fprintf(out, "  Containers:        %s\n", humanize.Comma(int64(stats.Containers)))
	fmt.Fprintf(out, "  Items:             %s\n", humanize.Comma(int64(stats.Items)))
	fmt.Fprintf(out, "Conversation-linked: %s\n", humanize.Comma(int64(stats.ConversationLinked)))
	fmt.Fprintf(out, "Total Edges:         %s\n", humanize.Comma(int64(stats.TotalEdges)))
	fmt.Fprintln(out)

	if len(stats.ByType) > 0 {
		fmt.Fprintln(out, "Nodes by type:")
		types := make([]string, 0, len(stats.ByType))
		for t := range stats.ByType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(out, "  %-10s %s\n", t, humanize.Comma(int64(stats.ByType[t])))
		}
		fmt.Fprintln(out)
	}

	if len(stats.ByLevel) > 0 {
		fmt.Fprintln(out, "Nodes by hierarchy level:")
		levels := make([]int, 0, len(stats.ByLevel))
		for l := range stats.ByLevel {
			levels = append(levels, l)
		}
		sort.Ints(levels)
		for _, l := range levels {
			name, ok := levelNames[l]
			if !ok {
				name = fmt.Sprintf("Unknown-L%d", l)
			}
			fmt.Fprintf(out, "  L%d %-8s %s\n", l, name, humanize.Comma(int64(stats.ByLevel[l])))
		}
		fmt.Fprintln(out)
	}

	if !stats.Oldest.IsZero() {
		fmt.Fprintf(out, "Oldest Node:   %s (%s)\n", stats.Oldest.Format("Jan 2, 2006 3:04 PM"), humanize.Time(stats.Oldest))
		fmt.Fprintf(out, "Newest Update: %s (%s)\n", stats.Newest.Format("Jan 2, 2006 3:04 PM"), humanize.Time(stats.Newest))
		fmt.Fprintln(out)
	}

	imports, err := database.RecentImports(ctx, 5)
	if err != nil {
		return fmt.Errorf("failed to read import log: %w", err)
	}
	if len(imports) > 0 {
		fmt.Fprintln(out, "Recent imports:")
		for _, rec := range imports {
			when := "unknown time"
			if !rec.ImportedAt.IsZero() {
				when = humanize.Time(rec.ImportedAt)
			}
			fmt.Fprintf(out, "  %-8s %-9s %s conversations, %s items (%s)\n",
				rec.Status, rec.Strategy,
				humanize.Comma(int64(rec.ConversationsImported)),
				humanize.Comma(int64(rec.ItemsImported)),
				when)
		}
		fmt.Fprintln(out)
	}

	fileInfo, err := os.Stat(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to stat database file: %w", err)
	}

	fmt.Fprintf(out, "Database Location: %s\n", cfg.Database)
	fmt.Fprintf(out, "Database Size:     %s\n", humanize.IBytes(uint64(fileInfo.Size())))

	return nil
}
