// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/store"
)

// migratorFactory opens the migrator used by the migrate subcommands.
// Tests replace it.
var migratorFactory = newStoreMigrator

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back or inspect the PostgreSQL schema migrations. Without a subcommand, applies all pending migrations.`,
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, _ []string) error {
			return migrateUp(cmd, m)
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, _ []string) error {
			return migrateUp(cmd, m)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, _ []string) error {
			cmd.Println("Rolling back all migrations...")
			if err := m.Down(); err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "migrate down").Wrap(err)
			}
			cmd.Println("Rollback completed successfully")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "steps N",
		Short: "Apply (N > 0) or roll back (N < 0) N migrations",
		Example: `  keyward migrate steps 1
  keyward migrate steps -- -1`,
		Args: cobra.ExactArgs(1),
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_ARGUMENT").With("steps", args[0]).Wrap(err)
			}
			if err := m.Steps(n); err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "migrate steps").With("steps", n).Wrap(err)
			}
			cmd.Printf("Moved %d step(s)\n", n)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations (clears the dirty flag)",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_ARGUMENT").With("version", args[0]).Wrap(err)
			}
			if err := m.Force(v); err != nil {
				//nolint:wrapcheck // store errors are already coded
				return err
			}
			cmd.Printf("Forced version %d\n", v)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version and pending migrations",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(migrateStatus),
	})

	return cmd
}

func withMigrator(run func(cmd *cobra.Command, m Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return oops.Code("CONFIG_INVALID").Errorf("database_url is required (set KEYWARD_DATABASE_URL)")
		}

		m, err := migratorFactory(cfg.DatabaseURL)
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").With("operation", "open migrator").Wrap(err)
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				cmd.PrintErrf("warning: closing migrator: %v\n", closeErr)
			}
		}()

		return run(cmd, m, args)
	}
}

func migrateUp(cmd *cobra.Command, m Migrator) error {
	cmd.Println("Running migrations...")
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "migrate up").Wrap(err)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func migrateStatus(cmd *cobra.Command, m Migrator, _ []string) error {
	v, dirty, err := m.Version()
	if err != nil {
		//nolint:wrapcheck // store errors are already coded
		return err
	}

	switch {
	case v == 0:
		cmd.Println("Schema version: none")
	case dirty:
		cmd.Printf("Schema version: %d (dirty)\n", v)
	default:
		cmd.Printf("Schema version: %d\n", v)
	}

	pending, err := m.PendingMigrations()
	if err != nil {
		//nolint:wrapcheck // store errors are already coded
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}
	cmd.Printf("Pending migrations: %d\n", len(pending))
	for _, p := range pending {
		name, err := store.MigrationName(p)
		if err != nil || name == "" {
			name = strconv.FormatUint(uint64(p), 10)
		}
		cmd.Printf("  %s\n", name)
	}
	return nil
}
