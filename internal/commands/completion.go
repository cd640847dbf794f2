package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/remarks/internal/core/comment"
)

// CommentIDCompleter returns a ShellCompleteFunc that suggests the ids of
// the sandbox's comments as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func CommentIDCompleter(flags *Flags) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		// Delegate to default flag completion when typing a flag
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		a, err := flags.LoadApp(ctx)
		if err != nil || a.Config.SandboxID == "" {
			return
		}
		a.Comments.LoadComments(ctx)

		tree := a.Comments.State().Snapshot()
		w := cmd.Root().Writer
		for _, c := range tree.Comments.Threads(tree.SandboxID, comment.FilterAll) {
			if c.IsOptimistic() {
				continue
			}
			_, _ = fmt.Fprintf(w, "%s:%s\n", c.ID, summary(c.Content, 40))
		}
	}
}
