// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package main

import (
	"os"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/socialplatform/socialplatform/internal/store"
)

// NewMigrateCmd creates the migrate subcommand with its actions.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL (default: DATABASE_URL env)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m *store.Migrator) error {
					return m.Up()
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations (drops all data)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m *store.Migrator) error {
					return m.Down()
				})
			},
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Apply n migrations (negative n rolls back)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return oops.Code("CONFIG_INVALID").Errorf("steps must be an integer, got %q", args[0])
				}
				return withMigrator(cmd, func(m *store.Migrator) error {
					return m.Steps(n)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m *store.Migrator) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					cmd.Printf("version: %d, dirty: %t\n", version, dirty)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the migration version without running migrations",
			Long: `Set the migration version without running migrations.
Use only to recover from a dirty state after manually fixing the database.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return oops.Code("CONFIG_INVALID").Errorf("version must be an integer, got %q", args[0])
				}
				return withMigrator(cmd, func(m *store.Migrator) error {
					return m.Force(v)
				})
			},
		},
	)

	return cmd
}

// withMigrator opens a Migrator against the configured database, runs
// fn, and closes it.
func withMigrator(cmd *cobra.Command, fn func(*store.Migrator) error) error {
	databaseURL, _ := cmd.Flags().GetString("database-url")
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database-url (or DATABASE_URL) is required")
	}

	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			cmd.PrintErrf("warning: closing migrator: %v\n", closeErr)
		}
	}()

	return fn(m)
}
