package commands

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/remarks/internal/core/logging"
	"github.com/colonyops/remarks/internal/profiler"
	"github.com/colonyops/remarks/internal/tui"
)

type TuiCmd struct {
	flags *Flags
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{flags: flags}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "tui",
		Usage:     "Open a file in the interactive comment viewer",
		UsageText: "remarks tui [path]",
		Description: `Shows a workspace file with its comment threads in the gutter.

Select code and press 'c' to draft a comment on it. Press '?' for all keys.`,
		Action: cmd.run,
	})

	return app
}

// Flags returns the TUI-specific flags for registration on the root command
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "profiler-port",
			Usage:       "enable pprof HTTP endpoint on specified port (e.g., 6060)",
			Sources:     cli.EnvVars("REMARKS_PROFILER_PORT"),
			Destination: &cmd.flags.ProfilerPort,
		},
	}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, c *cli.Command) error {
	a, err := cmd.flags.LoadApp(ctx)
	if err != nil {
		return err
	}

	var warnings []string
	for _, w := range a.Config.Warnings() {
		warnings = append(warnings, w.Message)
	}

	log := logging.Component("tui")

	if cmd.flags.ProfilerPort > 0 {
		profServer := profiler.New(cmd.flags.ProfilerPort, logging.Component("profiler"))
		if err := profServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := profServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
		log.Info().
			Str("url", fmt.Sprintf("http://%s/debug/pprof/", profServer.Addr())).
			Msg("profiler endpoint available")
	}

	watcher := tui.NewFileWatcher(logging.Component("tui", "watcher"))
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close file watcher")
		}
	}()

	m := tui.New(ctx, tui.Options{
		Service:       a.Comments,
		Workspace:     a.Workspace,
		Notifications: a.Notify,
		Bus:           a.Bus,
		Watcher:       watcher,
		ToastTTL:      a.Config.TUI.ToastTTL,
		Path:          c.Args().First(),
		Warnings:      warnings,
		Log:           log,
	})

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	return nil
}
