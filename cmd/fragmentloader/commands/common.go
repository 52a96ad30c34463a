// Package commands implements the fragmentloader CLI subcommands.
package commands

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/fragmentloader/internal/config"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"fragmentloader.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`
	NoEnv   bool   `name:"no-env" help:"Skip loading .env and .env.local"`

	Check   CheckCmd   `cmd:"" help:"Assemble a host page and report per-component results"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Version VersionCmd `cmd:"" help:"Show version and exit"`
}

// AfterApply runs after flag parsing: loads .env files and sets up logging once.
func (c *CLI) AfterApply(g *Global) error {
	var loaded []string
	var envErr error
	if !c.NoEnv {
		loaded, envErr = config.LoadEnvFile()
	}

	logging := config.LoggingConfig{
		Level:  config.NormalizeLogLevel(os.Getenv(config.EnvLogLevel)),
		Format: config.NormalizeLogFormat(os.Getenv(config.EnvLogFormat)),
	}
	logger := logging.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(logger)
	g.Logger = logger

	for _, f := range loaded {
		slog.Debug("Loaded environment file", "path", f)
	}
	if envErr != nil {
		slog.Warn("Failed to load environment file", "error", envErr)
	}
	return nil
}

// loadConfig reads the configuration file, falling back to defaults when it
// does not exist, and reconfigures logging from it.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.Config)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logging.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(logger)
	g.Logger = logger
	return cfg, nil
}
