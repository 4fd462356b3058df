package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mycelica/mycimport/internal/core/graph"
	"github.com/mycelica/mycimport/internal/core/importer"
)

var (
	doneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10")) // Green

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("11")) // Yellow

	labelStyle = lipgloss.NewStyle().
			Width(16)
)

func printSummary(w io.Writer, res *importer.Result) {
	if res == nil {
		return
	}

	fmt.Fprintln(w)
	if res.Existing > 0 {
		fmt.Fprintln(w, warnStyle.Render("Import skipped"))
	} else {
		fmt.Fprintln(w, doneStyle.Render("✓ Import complete!"))
	}

	itemLabel := "Exchanges:"
	if res.Strategy == graph.StrategyMessages {
		itemLabel = "Messages:"
	}

	printRow(w, "Conversations:", humanize.Comma(int64(res.Conversations)))
	printRow(w, itemLabel, humanize.Comma(int64(res.Items)))
	if res.Policy == graph.PolicyReplace {
		printRow(w, "Edges:", humanize.Comma(int64(res.Edges)))
		printRow(w, "Replaced:", humanize.Comma(res.Cleared)+" nodes")
	} else {
		printRow(w, "Skipped:", humanize.Comma(int64(res.Skipped)))
	}
}

func printRow(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s%s\n", labelStyle.Render(label), value)
}
