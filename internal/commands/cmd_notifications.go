package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/remarks/internal/core/notify"
	"github.com/colonyops/remarks/internal/printer"
	"github.com/colonyops/remarks/pkg/iojson"
)

type NotificationsCmd struct {
	flags *Flags

	clear      bool
	jsonOutput bool
}

// NewNotificationsCmd creates a new notifications command
func NewNotificationsCmd(flags *Flags) *NotificationsCmd {
	return &NotificationsCmd{flags: flags}
}

// Register adds the notifications command to the application
func (cmd *NotificationsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "notifications",
		Aliases:   []string{"n"},
		Usage:     "Show the notification history",
		UsageText: "remarks notifications [--clear] [--json]",
		Description: `Lists the notifications raised by comment actions, newest first.

The history is shared by the TUI and the comment commands.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "clear",
				Usage:       "delete the history",
				Destination: &cmd.clear,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

// notificationInfo is the JSON output format for notifications --json.
type notificationInfo struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func (cmd *NotificationsCmd) run(ctx context.Context, c *cli.Command) error {
	a, err := cmd.flags.LoadApp(ctx)
	if err != nil {
		return err
	}
	p := printer.Ctx(ctx)

	if cmd.clear {
		if err := a.Notify.Clear(ctx); err != nil {
			return fmt.Errorf("clear notifications: %w", err)
		}
		p.Successf("Notification history cleared")
		return nil
	}

	history, err := a.Notify.History(ctx)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, n := range history {
			info := notificationInfo{ID: n.ID, Level: string(n.Level), Message: n.Message, CreatedAt: n.CreatedAt}
			if err := iojson.WriteLine(out, info); err != nil {
				return fmt.Errorf("encode notification: %w", err)
			}
		}
		return nil
	}

	if len(history) == 0 {
		p.Muted("No notifications")
		return nil
	}

	for _, n := range history {
		_, _ = fmt.Fprintf(out, "%-8s %-16s %s\n", levelLabel(n.Level), humanize.Time(n.CreatedAt), n.Message)
	}
	return nil
}

func levelLabel(l notify.Level) string {
	switch l {
	case notify.LevelError:
		return "ERROR"
	case notify.LevelWarning:
		return "WARN"
	case notify.LevelSuccess:
		return "OK"
	default:
		return "INFO"
	}
}
