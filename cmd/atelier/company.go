package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/store"
	"github.com/spf13/cobra"
)

var (
	companyDBOverride string
	companyJSONOutput bool
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage portal companies",
	Long:  "Create, list, inspect, and rotate access tokens for companies without running the server.",
}

func init() {
	companyCmd.PersistentFlags().StringVar(&companyDBOverride, "db", "",
		"Database path (overrides config and ATELIER_DATABASE_PATH)")
	companyCmd.PersistentFlags().BoolVar(&companyJSONOutput, "json", false,
		"Output in JSON format")

	companyCmd.AddCommand(companyCreateCmd)
	companyCmd.AddCommand(companyListCmd)
	companyCmd.AddCommand(companyInfoCmd)
	companyCmd.AddCommand(companyRotateCmd)
}

// resolveStore opens the SQLite store from config with optional --db override.
// Admin commands hit the database directly; the team key is not required.
func resolveStore() (*store.SQLiteStore, error) {
	dbPath := companyDBOverride
	if dbPath == "" {
		path, err := config.LoadDatabasePath()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		dbPath = path
	}

	return store.NewSQLiteStore(dbPath)
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
