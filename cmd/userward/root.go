// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/userward/userward/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Userward CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "userward",
		Short: "Userward - user authentication service",
		Long: `Userward manages user identity records, verifies credentials, and
issues opaque session and password-reset tokens over PostgreSQL.
The authentication operations themselves are a library; this CLI hosts
the service process (serve) and covers the operational side (schema
migrations, status).`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	cmd.PersistentFlags().String("metrics-addr", config.DefaultMetricsAddr, "metrics/health HTTP address")
	cmd.PersistentFlags().String("log-format", config.DefaultLogFormat, "log format (json or text)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// loadConfig builds the configuration from the config file, the
// command's flags, and the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
