// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keyward Contributors

// Package config loads Keyward settings.
//
// Sources are layered, later ones winning: flag defaults, the YAML config
// file, KEYWARD_* environment variables (a .env file is read into the
// environment first) and finally flags set on the command line.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/keyward/keyward/internal/auth"
	"github.com/keyward/keyward/internal/logging"
)

// EnvPrefix prefixes every environment variable Keyward reads. Nested keys
// use a double underscore: KEYWARD_ARGON2__MEMORY sets argon2.memory.
const EnvPrefix = "KEYWARD_"

// Default values.
const (
	DefaultHTTPAddr    = "127.0.0.1:8080"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultGRPCAddr    = "127.0.0.1:9090"
	DefaultLogFormat   = logging.FormatJSON
	DefaultLogLevel    = "info"
)

// Argon2 is the password hashing cost.
type Argon2 struct {
	Time    uint32 `koanf:"time" yaml:"time"`
	Memory  uint32 `koanf:"memory" yaml:"memory"`
	Threads uint8  `koanf:"threads" yaml:"threads"`
}

// Params converts the cost into hasher parameters.
func (a Argon2) Params() auth.Argon2Params {
	return auth.Argon2Params{Time: a.Time, Memory: a.Memory, Threads: a.Threads}
}

// Config is the resolved Keyward configuration.
type Config struct {
	HTTPAddr      string   `koanf:"http_addr" yaml:"http_addr"`
	MetricsAddr   string   `koanf:"metrics_addr" yaml:"metrics_addr"`
	GRPCAddr      string   `koanf:"grpc_addr" yaml:"grpc_addr"`
	DatabaseURL   string   `koanf:"database_url" yaml:"database_url"`
	JWTSecret     string   `koanf:"jwt_secret" yaml:"jwt_secret"`
	VerifyBaseURL string   `koanf:"verify_base_url" yaml:"verify_base_url"`
	LogFormat     string   `koanf:"log_format" yaml:"log_format"`
	LogLevel      string   `koanf:"log_level" yaml:"log_level"`
	CORSOrigins   []string `koanf:"cors_origins" yaml:"cors_origins"`
	AutoMigrate   bool     `koanf:"auto_migrate" yaml:"auto_migrate"`
	Argon2        Argon2   `koanf:"argon2" yaml:"argon2"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"http-addr":       "http_addr",
	"metrics-addr":    "metrics_addr",
	"grpc-addr":       "grpc_addr",
	"database-url":    "database_url",
	"verify-base-url": "verify_base_url",
	"log-format":      "log_format",
	"log-level":       "log_level",
	"cors-origins":    "cors_origins",
	"auto-migrate":    "auto_migrate",
	"argon2-time":     "argon2.time",
	"argon2-memory":   "argon2.memory",
	"argon2-threads":  "argon2.threads",
}

// BindFlags registers the config flags and their defaults on fs. The JWT
// secret has no flag so it never shows up in a process listing.
func BindFlags(fs *pflag.FlagSet) {
	def := auth.DefaultArgon2Params()

	fs.String("http-addr", DefaultHTTPAddr, "HTTP API listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("grpc-addr", DefaultGRPCAddr, "gRPC health address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("verify-base-url", auth.DefaultVerifyBaseURL, "base URL of the email verification link")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.StringSlice("cors-origins", nil, "allowed CORS origins (comma separated)")
	fs.Bool("auto-migrate", false, "apply pending migrations on startup")
	fs.Uint32("argon2-time", def.Time, "argon2id iterations")
	fs.Uint32("argon2-memory", def.Memory, "argon2id memory in KiB")
	fs.Uint8("argon2-threads", def.Threads, "argon2id parallelism")
}

// Options selects the sources Load reads.
type Options struct {
	// ConfigFile is an explicit YAML file; it must exist. When empty,
	// DefaultFile is read if present.
	ConfigFile string
	// DefaultFile is the fallback YAML path, usually from xdg.ConfigFile.
	DefaultFile string
	// DotEnv is the .env file to read; a missing file is ignored.
	DotEnv string
	// Flags carries defaults and command-line overrides. A nil set uses
	// the defaults from BindFlags.
	Flags *pflag.FlagSet
}

// Load resolves the configuration. It does not validate it.
func Load(opts Options) (*Config, error) {
	if opts.DotEnv != "" {
		if err := godotenv.Load(opts.DotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", opts.DotEnv).Wrap(err)
		}
	}

	k := koanf.New(".")

	path := opts.ConfigFile
	if path == "" && opts.DefaultFile != "" {
		if _, err := os.Stat(opts.DefaultFile); err == nil {
			path = opts.DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	flags := opts.Flags
	if flags == nil {
		flags = pflag.NewFlagSet("keyward", pflag.ContinueOnError)
		BindFlags(flags)
	}
	if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagValue(flags)), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	return &cfg, nil
}

// envKey maps KEYWARD_ARGON2__TIME to argon2.time. List values are comma
// separated.
func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "cors_origins" {
		return key, splitList(value)
	}
	return key, value
}

func flagValue(flags *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			// Not a config flag (e.g. --config); drop it.
			return "", nil
		}
		if f.Value.Type() == "stringSlice" {
			vals, _ := flags.GetStringSlice(f.Name)
			return key, vals
		}
		return key, f.Value.String()
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that the configuration can start the server.
func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return oops.Code("CONFIG_INVALID").Errorf("jwt_secret is required (set %sJWT_SECRET)", EnvPrefix)
	case c.DatabaseURL == "":
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	case c.HTTPAddr == "":
		return oops.Code("CONFIG_INVALID").Errorf("http_addr is required")
	case c.LogFormat != logging.FormatJSON && c.LogFormat != logging.FormatText:
		return oops.Code("CONFIG_INVALID").Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return oops.Code("CONFIG_INVALID").Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if u, err := url.Parse(c.VerifyBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return oops.Code("CONFIG_INVALID").With("verify_base_url", c.VerifyBaseURL).
			Errorf("verify_base_url must be an absolute URL")
	}
	return nil
}

// LogValue hides the secrets when the config is logged.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("http_addr", c.HTTPAddr),
		slog.String("metrics_addr", c.MetricsAddr),
		slog.String("grpc_addr", c.GRPCAddr),
		slog.Bool("database_url_set", c.DatabaseURL != ""),
		slog.Bool("jwt_secret_set", c.JWTSecret != ""),
		slog.String("verify_base_url", c.VerifyBaseURL),
		slog.String("log_format", c.LogFormat),
		slog.String("log_level", c.LogLevel),
		slog.Any("cors_origins", c.CORSOrigins),
		slog.Bool("auto_migrate", c.AutoMigrate),
	)
}
