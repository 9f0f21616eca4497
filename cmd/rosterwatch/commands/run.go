package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/rosterwatch/internal/daemon"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	NoReload bool `help:"Do not watch the configuration file for changes"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := daemon.Options{LevelVar: g.LevelVar}
	if !r.NoReload {
		opts.ConfigPath = root.Config
	}
	d, err := daemon.New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	if err := d.Run(ctx); err != nil {
		return err
	}
	slog.Info("Shutdown complete")
	return nil
}

// OnceCmd implements the 'once' command.
type OnceCmd struct{}

func (o *OnceCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(ctx, cfg, daemon.Options{LevelVar: g.LevelVar})
	if err != nil {
		return err
	}
	return d.RunOnce(ctx)
}
