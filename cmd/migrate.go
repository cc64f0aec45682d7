package cmd

import (
	"fmt"
	"strconv"

	"github.com/simonvc/erpledger/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long:  "Opening the database always applies pending migrations; these commands inspect the schema or step it back.",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		return printSchemaVersion(st)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Revert migrations (one step by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("steps must be a positive integer, got %q", args[0])
			}
			steps = n
		}

		st, err := store.Open(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.MigrateSteps(-steps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		return printSchemaVersion(st)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		return printSchemaVersion(st)
	},
}

func printSchemaVersion(st *store.Store) error {
	version, dirty, err := st.SchemaVersion()
	if err != nil {
		return err
	}
	if dirty {
		fmt.Printf("Schema version: %d (dirty)\n", version)
		return nil
	}
	fmt.Printf("Schema version: %d\n", version)
	return nil
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
