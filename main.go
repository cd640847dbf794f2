package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/remarks/internal/commands"
	"github.com/colonyops/remarks/internal/core/config"
	"github.com/colonyops/remarks/internal/core/styles"
	"github.com/colonyops/remarks/internal/printer"
	"github.com/colonyops/remarks/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "remarks",
		Usage:     "Review code with comment threads from the terminal",
		UsageText: "remarks [global options] command [command options]",
		Description: `Remarks shows the comment threads of a sandbox next to its code and lets you
start, reply to, edit, resolve and delete them. Every action is applied
locally first and rolled back when the API rejects it.

Run 'remarks <path>' or 'remarks tui <path>' to open a file in the viewer.
Run 'remarks comment list' to list threads from scripts.
Run 'remarks dev-server' for a local API to develop against.`,
		Version:               build(),
		EnableShellCompletion: true,

		// Exit codes are decided below so After always runs.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("REMARKS_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/remarks.log)",
				Sources:     cli.EnvVars("REMARKS_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("REMARKS_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("REMARKS_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "sandbox",
				Usage:       "sandbox id (overrides sandbox_id)",
				Sources:     cli.EnvVars("REMARKS_SANDBOX"),
				Destination: &flags.Sandbox,
			},
			&cli.StringFlag{
				Name:        "token",
				Usage:       "API bearer token (overrides api.token)",
				Sources:     cli.EnvVars("REMARKS_TOKEN"),
				Destination: &flags.Token,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/remarks.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "remarks.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.Sandbox != "" {
				cfg.SandboxID = flags.Sandbox
			}
			if flags.Token != "" {
				cfg.API.Token = flags.Token
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.TUI.Theme)
			styles.SetTheme(palette)

			return printer.NewContext(ctx, printer.New(os.Stdout)), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			var closeErr error
			if flags.App != nil {
				if err := flags.App.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close app")
					closeErr = err
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return closeErr
		},
	}

	tuiCmd := commands.NewTuiCmd(flags)
	app.Flags = append(app.Flags, tuiCmd.Flags()...)

	app = tuiCmd.Register(app)
	app = commands.NewCommentCmd(flags).Register(app)
	app = commands.NewNotificationsCmd(flags).Register(app)
	app = commands.NewDevServerCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Set TUI as default action; a lone argument is the file to open
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 1 {
			return fmt.Errorf("unexpected arguments %q. Run 'remarks --help' for usage", c.Args().Slice())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		if msg := runErr.Error(); msg != "" {
			fmt.Println()
			fmt.Println(msg)
		}
		exitCode = 1
	}
	if flags.App != nil && flags.App.Errored() {
		exitCode = 1
	}

	os.Exit(exitCode)
}
