package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/remarks/internal/app"
	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/logging"
	"github.com/colonyops/remarks/internal/data/stores"
	"github.com/colonyops/remarks/internal/devserver"
	"github.com/colonyops/remarks/internal/printer"
)

// devAuthor is recorded on comments when no user is configured.
var devAuthor = comment.User{ID: "dev", Name: "Developer", Username: "dev"}

type DevServerCmd struct {
	flags *Flags

	addr      string
	noMetrics bool
}

// NewDevServerCmd creates a new dev-server command
func NewDevServerCmd(flags *Flags) *DevServerCmd {
	return &DevServerCmd{flags: flags}
}

// Register adds the dev-server command to the application
func (cmd *DevServerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "dev-server",
		Usage:     "Run a local comments API backed by SQLite",
		UsageText: "remarks dev-server [--addr HOST:PORT] [--no-metrics]",
		Description: `Serves the comments GraphQL operations on /graphql so the TUI and the
comment commands can run without the hosted API. Point api.endpoint at
http://<addr>/graphql to use it.

Comments are stored in <data-dir>/devserver.db. When api.token is set, requests
must carry it as a bearer token. Prometheus metrics are served on /metrics.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (defaults to dev_server.addr)",
				Sources:     cli.EnvVars("REMARKS_DEV_SERVER_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.BoolFlag{
				Name:        "no-metrics",
				Usage:       "disable the /metrics endpoint",
				Destination: &cmd.noMetrics,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *DevServerCmd) run(ctx context.Context, _ *cli.Command) error {
	cfg := cmd.flags.Config

	addr := cfg.DevServer.Addr
	if cmd.addr != "" {
		addr = cmd.addr
	}

	author := devAuthor
	if u := cfg.CommentUser(); u != nil {
		author = *u
	}

	database, err := app.OpenDB(cfg.DevServerDatabasePath())
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close dev server database")
		}
	}()

	srv := devserver.New(stores.NewCommentStore(database), devserver.Config{
		Addr:    addr,
		Token:   cfg.API.Token,
		Author:  author,
		Metrics: cfg.DevServer.Metrics && !cmd.noMetrics,
	}, logging.Component("devserver"))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer.Ctx(ctx).Infof("Serving comments API on http://%s/graphql", addr)
	return srv.ListenAndServe(ctx)
}
