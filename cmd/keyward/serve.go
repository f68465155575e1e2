// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/authgate"
	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/httpapi"
	"github.com/keyward/keyward/internal/logging"
	"github.com/keyward/keyward/internal/observability"
	"github.com/keyward/keyward/internal/rpc"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the Keyward HTTP API (register, login, verify, users/me), the
metrics/health server and the gRPC health service. KEYWARD_JWT_SECRET and a
database URL are required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cmd.ErrOrStderr(), nil)
		},
	}
}

// runServe starts every server and blocks until ctx is canceled or a server
// fails. If deps is nil, default implementations are used.
func runServe(ctx context.Context, cfg *config.Config, logOut io.Writer, deps *ServeDeps) error {
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		//nolint:wrapcheck // config errors are already coded
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		//nolint:wrapcheck // logging errors are already coded
		return err
	}
	logger := logging.Setup("keyward", version, cfg.LogFormat, level, logOut)

	logger.InfoContext(ctx, "starting keyward", "config", cfg)

	if cfg.AutoMigrate {
		if err := autoMigrate(cfg.DatabaseURL, deps); err != nil {
			return err
		}
		logger.InfoContext(ctx, "migrations applied")
	}

	dir, err := deps.DirectoryOpener(ctx, cfg, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "open user directory").Wrap(err)
	}
	defer dir.Close()

	secret, err := auth.NewSigningSecret([]byte(cfg.JWTSecret))
	if err != nil {
		//nolint:wrapcheck // auth errors are already coded
		return err
	}
	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		//nolint:wrapcheck // auth errors are already coded
		return err
	}

	obs := observability.NewServer(cfg.MetricsAddr, dir.Ready, logger)
	metrics := obs.Metrics()

	gate, err := authgate.New(tokens,
		authgate.WithLogger(logger),
		authgate.WithRecorder(metrics),
		authgate.WithPublicMethods(rpc.PublicMethods...))
	if err != nil {
		//nolint:wrapcheck // gate errors are already coded
		return err
	}

	svc, err := auth.NewAuthService(auth.ServiceConfig{
		Users:         dir.Users,
		Hasher:        auth.NewArgon2idHasherWithParams(cfg.Argon2.Params()),
		Strength:      auth.NewZxcvbnPolicy(),
		Tokens:        tokens,
		Verification:  auth.NewRandomTokenIssuer(),
		Notifier:      deps.NotifierFactory(logger),
		VerifyBaseURL: cfg.VerifyBaseURL,
		Logger:        logger,
	})
	if err != nil {
		//nolint:wrapcheck // auth errors are already coded
		return err
	}

	router, err := httpapi.NewRouter(httpapi.RouterConfig{
		Service:      svc,
		Authenticate: gate.Middleware,
		Recorder:     metrics,
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})
	if err != nil {
		//nolint:wrapcheck // httpapi errors are already coded
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.MetricsAddr != "" {
		obsErrCh, err := obs.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if err := obs.Stop(stopCtx); err != nil {
				logger.Warn("error stopping observability server", "error", err)
			}
		}()
	}

	if cfg.GRPCAddr != "" {
		stopRPC, err := startRPC(ctx, cancel, cfg.GRPCAddr, gate, dir.Ready, deps, logger)
		if err != nil {
			return err
		}
		defer stopRPC()
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTPAddr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}

	httpSrv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		defer close(serveErr)
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	logger.InfoContext(ctx, "http api listening", "addr", listener.Addr().String())
	deps.OnReady(listener.Addr().String())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http api", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}

// startRPC serves the gRPC health service behind gate and returns its stop
// function.
func startRPC(ctx context.Context, cancel context.CancelFunc, addr string, gate *authgate.Gate,
	ready observability.ReadinessChecker, deps *ServeDeps, logger *slog.Logger,
) (func(), error) {
	srv, err := rpc.NewServer(gate, ready, logger)
	if err != nil {
		//nolint:wrapcheck // rpc errors are already coded
		return nil, err
	}

	lis, err := deps.ListenerFactory("tcp", addr)
	if err != nil {
		return nil, oops.Code("GRPC_LISTEN_FAILED").With("addr", addr).Wrap(err)
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go monitorServerErrors(ctx, cancel, errCh, "grpc", logger)

	watchCtx, stopWatch := context.WithCancel(ctx)
	go srv.WatchReadiness(watchCtx, rpc.DefaultReadinessInterval)

	logger.InfoContext(ctx, "grpc health listening", "addr", lis.Addr().String())
	deps.OnGRPCReady(lis.Addr().String())

	return func() {
		stopWatch()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		srv.Stop(stopCtx)
	}, nil
}

func autoMigrate(databaseURL string, deps *ServeDeps) error {
	migrator, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() { _ = migrator.Close() }()

	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	return nil
}

// monitorServerErrors cancels ctx when a background server reports an error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logger.Error("server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
