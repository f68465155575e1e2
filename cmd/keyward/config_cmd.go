// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/keyward/keyward/internal/xdg"
)

const redacted = "[REDACTED]"

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the resolved settings",
		Long: `Write the resolved settings (flags, environment, defaults) to the config
file. Secrets are never written; supply them through the environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
	return cmd
}

func configPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	//nolint:wrapcheck // xdg errors are already coded
	return xdg.ConfigFile()
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path, err := configPath()
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(path); statErr == nil && !force {
		return oops.Code("CONFIG_EXISTS").With("path", path).Errorf("config file already exists (use --force to overwrite)")
	}

	cfg.JWTSecret = ""
	cfg.DatabaseURL = ""
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return oops.Code("CONFIG_WRITE_FAILED").With("operation", "marshal").Wrap(err)
	}

	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		//nolint:wrapcheck // xdg errors are already coded
		return err
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return oops.Code("CONFIG_WRITE_FAILED").With("path", path).Wrap(err)
	}

	cmd.Printf("Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.JWTSecret != "" {
		cfg.JWTSecret = redacted
	}
	if cfg.DatabaseURL != "" {
		cfg.DatabaseURL = redacted
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return oops.Code("CONFIG_WRITE_FAILED").With("operation", "marshal").Wrap(err)
	}
	cmd.Print(string(out))
	return nil
}
