// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/keyward/keyward/internal/config"
	"github.com/keyward/keyward/internal/xdg"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the root command for the Keyward CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyward",
		Short: "Keyward - account registration and token authentication",
		Long: `Keyward registers accounts with Argon2id password hashing, verifies
email ownership, and issues signed bearer tokens checked by an auth gate.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/keyward/config.yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadConfig resolves the configuration for cmd from the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	defaultFile, err := xdg.ConfigFile()
	if err != nil {
		defaultFile = ""
	}
	//nolint:wrapcheck // config errors are already coded
	return config.Load(config.Options{
		ConfigFile:  configFile,
		DefaultFile: defaultFile,
		DotEnv:      envFile,
		Flags:       cmd.Flags(),
	})
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("keyward %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}
