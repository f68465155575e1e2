// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package store owns the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Pool is the subset of *pgxpool.Pool used by repositories.
// pgxmock.PgxPoolIface satisfies it in unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PoolConfig tunes the connection pool and the startup readiness check.
type PoolConfig struct {
	MaxConns      int32
	ConnectRetry  uint64
	RetryInterval time.Duration
}

// DefaultPoolConfig returns the pool settings used when none are configured.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:      10,
		ConnectRetry:  5,
		RetryInterval: 500 * time.Millisecond,
	}
}

// Open creates a pool for dsn and blocks until the database answers a ping.
func Open(ctx context.Context, dsn string, cfg PoolConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := WaitForPool(ctx, pool, cfg, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Pinger is anything that can check database liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitForPool pings until the database responds, backing off exponentially
// for at most cfg.ConnectRetry retries. It is only used at startup; request
// paths never retry.
func WaitForPool(ctx context.Context, db Pinger, cfg PoolConfig, logger *slog.Logger) error {
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = DefaultPoolConfig().RetryInterval
	}
	backoff := retry.WithMaxRetries(cfg.ConnectRetry, retry.NewExponential(interval))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_UNAVAILABLE").With("attempts", attempt).Wrap(err)
	}
	return nil
}

var _ Pool = (*pgxpool.Pool)(nil)
