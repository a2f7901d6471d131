// Package cli implements the relmap command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"relmap/internal/config"
	"relmap/internal/logger"
)

// RootOptions holds the global flags and the configuration they build.
type RootOptions struct {
	ConfigFile string
	EnvFile    string
	Dialect    string
	DSN        string
	Mode       string
	Preset     string
	Schema     string
	Directives string
	LogLevel   string
	Strict     bool
	Debug      bool

	cfg  *config.Config
	log  *logger.Logger
	prev *logger.Logger
}

// Config returns the configuration built before the command ran.
func (o *RootOptions) Config() *config.Config {
	return o.cfg
}

func NewRootCmd() *cobra.Command {
	opts := &RootOptions{}

	rootCmd := &cobra.Command{
		Use:   "relmap",
		Short: "relmap - relational mapping resolution for Go entities",
		Long: `relmap resolves how Go entity types map onto relational tables.
It reads entity packages and optional YAML directives, resolves every class
against a schema that may be read from a live database, and prints the
resulting mapping or the DDL that creates it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.teardown()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVarP(&opts.ConfigFile, "config", "c", "", "Path to a YAML config file")
	f.StringVar(&opts.EnvFile, "env", "", "Path to a .env file (default: ./.env if present)")
	f.StringVarP(&opts.Dialect, "dialect", "d", "", "Database dialect: generic, postgres, sqlite, mssql, mysql")
	f.StringVar(&opts.DSN, "dsn", "", "Database connection string")
	f.StringVarP(&opts.Mode, "mode", "m", "", "Resolution mode: strict, fill, adapt")
	f.StringVar(&opts.Preset, "preset", "", "Naming preset: native, jpa")
	f.StringVar(&opts.Schema, "schema", "", "Default schema for unqualified tables")
	f.StringVarP(&opts.Directives, "directives", "f", "", "Path to a mapping directive file")
	f.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.BoolVar(&opts.Strict, "strict", false, "Fail when resolution reports any error")
	f.BoolVar(&opts.Debug, "debug", false, "Log debug output and dump resolved structures")

	rootCmd.AddCommand(
		NewResolveCmd(opts),
		NewDDLCmd(opts),
		NewReflectCmd(opts),
		NewStrategiesCmd(),
	)

	return rootCmd
}

// setup loads the configuration, lets changed flags override it and
// installs the configured logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.EnvFile, o.ConfigFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()

	overrides := []struct {
		flag string
		dst  *string
		val  string
	}{
		{"dialect", &cfg.Dialect, o.Dialect},
		{"dsn", &cfg.DSN, o.DSN},
		{"mode", &cfg.Mode, o.Mode},
		{"preset", &cfg.Preset, o.Preset},
		{"schema", &cfg.DefaultSchema, o.Schema},
		{"directives", &cfg.Directives, o.Directives},
		{"log-level", &cfg.LogLevel, o.LogLevel},
	}

	for _, ov := range overrides {
		if flags.Changed(ov.flag) {
			*ov.dst = ov.val
		}
	}

	if flags.Changed("strict") {
		cfg.Strict = o.Strict
	}

	if o.Debug && !flags.Changed("log-level") {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := cfg.Logger()
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.log = l
	o.prev = logger.Default()
	logger.SetDefault(l)

	return nil
}

func (o *RootOptions) teardown() error {
	if o.log == nil {
		return nil
	}

	logger.SetDefault(o.prev)

	return o.log.Close()
}
