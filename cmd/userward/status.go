// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/userward/userward/internal/logging"
	"github.com/userward/userward/internal/store"
)

// Status holds the service status information.
type Status struct {
	DatabaseReachable bool   `json:"database_reachable"`
	MigrationVersion  uint   `json:"migration_version"`
	MigrationDirty    bool   `json:"migration_dirty"`
	Error             string `json:"error,omitempty"`
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database and schema status",
		Long:  `Check database connectivity and report the current migration version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.SetDefault("userward", version, cfg.LogFormat)

	status := queryStatus(cmd, cfg.DatabaseURL)

	if jsonOutput {
		out, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "DATABASE\tVERSION\tDIRTY\n")
	reachable := "unreachable"
	if status.DatabaseReachable {
		reachable = "ok"
	}
	fmt.Fprintf(w, "%s\t%d\t%t\n", reachable, status.MigrationVersion, status.MigrationDirty)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if status.Error != "" {
		cmd.Println("error:", status.Error)
	}
	return nil
}

func queryStatus(cmd *cobra.Command, databaseURL string) Status {
	ctx := cmd.Context()
	status := Status{}

	pool, err := store.Connect(ctx, databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer pool.Close()
	status.DatabaseReachable = true

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer func() {
		_ = migrator.Close() //nolint:errcheck // close error is not actionable here
	}()

	version, dirty, err := migrator.Version()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.MigrationVersion = version
	status.MigrationDirty = dirty
	return status
}
