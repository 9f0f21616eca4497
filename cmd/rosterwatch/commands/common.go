package commands

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/rosterwatch/internal/config"
	"git.home.luguber.info/inful/rosterwatch/internal/observability"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger   *slog.Logger
	LevelVar *slog.LevelVar
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml" type:"path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run     RunCmd     `cmd:"" default:"1" help:"Watch the roster and announce new activity until interrupted"`
	Once    OnceCmd    `cmd:"" help:"Reconcile the roster and poll every member once"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Status  StatusCmd  `cmd:"" help:"Show the persisted roster state"`
	Version VersionCmd `cmd:"" help:"Print version information"`

	global *Global
}

// Global returns the shared state, creating it on first use.
func (c *CLI) Global() *Global {
	if c.global == nil {
		c.global = &Global{Logger: slog.Default(), LevelVar: new(slog.LevelVar)}
	}
	return c.global
}

// AfterApply runs after flag parsing; set up a text logger once. Commands that
// load a configuration replace it with the configured handler.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	g := c.Global()
	if c.Verbose {
		g.LevelVar.Set(slog.LevelDebug)
	}
	g.Logger = observability.NewLogger(os.Stderr, config.LogFormatText, g.LevelVar)
	slog.SetDefault(g.Logger)
	return nil
}

// loadConfig loads the configuration and switches logging to its format and level.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	g := c.Global()
	level := cfg.Logging.Level.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.LevelVar.Set(level)
	g.Logger = observability.NewLogger(os.Stderr, cfg.Logging.Format, g.LevelVar)
	slog.SetDefault(g.Logger)
	return cfg, nil
}
