// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/keyward/keyward/internal/auth"
	authpg "github.com/keyward/keyward/internal/auth/postgres"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/notify"
	"github.com/keyward/keyward/internal/observability"
	"github.com/keyward/keyward/internal/store"
)

// Directory is an opened user directory together with its health check and
// cleanup.
type Directory struct {
	Users auth.UserDirectory
	Ready observability.ReadinessChecker
	Close func()
}

// Migrator is the subset of store.Migrator the CLI drives.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DirectoryOpener connects the user directory.
	// Default: a pgx pool wrapped by authpg.UserDirectory
	DirectoryOpener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Directory, error)

	// NotifierFactory creates the verification email notifier.
	// Default: notify.NewLogNotifier
	NotifierFactory func(logger *slog.Logger) auth.Notifier

	// MigratorFactory opens a migrator when auto_migrate is set.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ListenerFactory creates the HTTP and gRPC listeners.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)

	// OnGRPCReady is called with the bound gRPC address once the health
	// service accepts connections.
	OnGRPCReady func(addr string)

	// OnReady is called with the bound HTTP address once the server accepts
	// connections.
	OnReady func(addr string)
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.DirectoryOpener == nil {
		out.DirectoryOpener = openPostgresDirectory
	}
	if out.NotifierFactory == nil {
		out.NotifierFactory = func(logger *slog.Logger) auth.Notifier {
			return notify.NewLogNotifier(logger)
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = newStoreMigrator
	}
	if out.ListenerFactory == nil {
		out.ListenerFactory = net.Listen
	}
	if out.OnReady == nil {
		out.OnReady = func(string) {}
	}
	if out.OnGRPCReady == nil {
		out.OnGRPCReady = func(string) {}
	}
	return &out
}

func newStoreMigrator(databaseURL string) (Migrator, error) {
	//nolint:wrapcheck // store errors are already coded
	return store.NewMigrator(databaseURL)
}

func openPostgresDirectory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Directory, error) {
	pool, err := store.Open(ctx, cfg.DatabaseURL, store.DefaultPoolConfig(), logger)
	if err != nil {
		//nolint:wrapcheck // store errors are already coded
		return nil, err
	}
	return &Directory{
		Users: authpg.NewUserDirectory(pool),
		Ready: pool.Ping,
		Close: pool.Close,
	}, nil
}
