package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/Rovitz/spotify2tidal/internal/shared"
	"github.com/Rovitz/spotify2tidal/internal/ui"
)

// TUI launches the interactive terminal UI for playlist syncing.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: spotify service not initialized, check credentials in config.toml", shared.ErrServiceUnavailable)
	}
	if r.tidal == nil {
		return fmt.Errorf("%w: tidal service not initialized, check credentials in config.toml", shared.ErrServiceUnavailable)
	}

	if err := r.spotify.Authenticate(ctx, nil); err != nil {
		return fmt.Errorf("%w: run 's2t spotify auth' first: %v", shared.ErrNotAuthenticated, err)
	}
	if err := r.tidal.Authenticate(ctx, nil); err != nil {
		return fmt.Errorf("%w: run 's2t tidal auth' first: %v", shared.ErrSessionInvalid, err)
	}
	if err := r.tidal.CheckSession(ctx); err != nil {
		return fmt.Errorf("tidal session check failed, run 's2t tidal auth': %w", err)
	}

	// Logs go to a file so the engine cannot paint over the TUI.
	fileLogger, closeLog, err := shared.NewFileLogger("./tmp/s2t-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closeLog()
	r.logger = fileLogger

	engine := r.syncEngine(r.config, fileLogger)

	model := ui.NewModel(ctx, r.spotify, engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// tuiCommand returns the top-level TUI command for interactive playlist syncing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for playlist syncing",
		Action:  r.TUI,
	}
}
