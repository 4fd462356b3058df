package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mycelica/mycimport/internal/core/db"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the nodes and edges tables",
	Long: `Create the database file and schema without importing anything.

Existing tables are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runInitDB,
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
	database, err := db.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = database.Close()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Schema ready: %s\n", cfg.Database)
	return nil
}
