package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/remarks/internal/app"
	"github.com/colonyops/remarks/internal/core/comment"
	corenotify "github.com/colonyops/remarks/internal/core/notify"
	"github.com/colonyops/remarks/internal/core/styles"
	"github.com/colonyops/remarks/internal/editor"
	"github.com/colonyops/remarks/internal/printer"
	"github.com/colonyops/remarks/internal/remarks"
	"github.com/colonyops/remarks/pkg/iojson"
)

// summaryWidth is the width of the SUMMARY column in comment list.
const summaryWidth = 60

type CommentCmd struct {
	flags *Flags

	// list flags
	filter     string
	pattern    string
	search     string
	jsonOutput bool

	// add flags
	parentID string
	file     string
	anchor   int
	head     int
}

// NewCommentCmd creates a new comment command
func NewCommentCmd(flags *Flags) *CommentCmd {
	return &CommentCmd{flags: flags}
}

// Register adds the comment command to the application
func (cmd *CommentCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "comment",
		Aliases: []string{"c"},
		Usage:   "List and edit the comments of the configured sandbox",
		Commands: []*cli.Command{
			cmd.listCmd(),
			cmd.showCmd(),
			cmd.addCmd(),
			{
				Name:          "edit",
				Usage:         "Replace a comment's content",
				UsageText:     "remarks comment edit <id> <text>",
				ShellComplete: CommentIDCompleter(cmd.flags),
				Action:        cmd.runEdit,
			},
			{
				Name:          "resolve",
				Usage:         "Mark a thread as resolved",
				UsageText:     "remarks comment resolve <id>",
				ShellComplete: CommentIDCompleter(cmd.flags),
				Action:        cmd.runResolve(true),
			},
			{
				Name:          "unresolve",
				Usage:         "Reopen a resolved thread",
				UsageText:     "remarks comment unresolve <id>",
				ShellComplete: CommentIDCompleter(cmd.flags),
				Action:        cmd.runResolve(false),
			},
			{
				Name:          "delete",
				Aliases:       []string{"rm"},
				Usage:         "Delete a comment",
				UsageText:     "remarks comment delete <id>",
				ShellComplete: CommentIDCompleter(cmd.flags),
				Action:        cmd.runDelete,
			},
			{
				Name:          "permalink",
				Usage:         "Copy a comment's link to the clipboard and print it",
				UsageText:     "remarks comment permalink <id>",
				ShellComplete: CommentIDCompleter(cmd.flags),
				Action:        cmd.runPermalink,
			},
		},
	})

	return app
}

func (cmd *CommentCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List comment threads",
		UsageText: "remarks comment list [--filter open|resolved|all] [--path GLOB] [--search QUERY] [--json]",
		Description: `Lists the threads of the configured sandbox.

--path matches the file a thread is anchored to with a doublestar glob, so
'internal/**/*.go' selects every Go file under internal/. Threads without a
code reference are dropped when --path is set.

--search fuzzy matches thread content and orders the result by score.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "filter",
				Aliases:     []string{"f"},
				Usage:       "thread filter (open, resolved, all); defaults to tui.filter",
				Destination: &cmd.filter,
			},
			&cli.StringFlag{
				Name:        "path",
				Aliases:     []string{"p"},
				Usage:       "only threads anchored to files matching this glob",
				Destination: &cmd.pattern,
			},
			&cli.StringFlag{
				Name:        "search",
				Aliases:     []string{"s"},
				Usage:       "fuzzy search thread content",
				Destination: &cmd.search,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *CommentCmd) showCmd() *cli.Command {
	return &cli.Command{
		Name:          "show",
		Usage:         "Show a thread with its replies",
		UsageText:     "remarks comment show <id> [--json]",
		ShellComplete: CommentIDCompleter(cmd.flags),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runShow,
	}
}

func (cmd *CommentCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Start a thread or reply to one",
		UsageText: "remarks comment add [--parent ID | --file PATH --anchor N --head N] [text]",
		Description: `Creates a comment. The text is taken from the argument, an editor prompt when
stdin is a terminal, or stdin.

With --parent the comment is a reply. With --file the comment is anchored to
the character range [anchor, head) of that workspace file. Otherwise a plain
thread is started.

The id of the new comment is printed on success.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "parent",
				Usage:       "id of the thread to reply to",
				Destination: &cmd.parentID,
			},
			&cli.StringFlag{
				Name:        "file",
				Usage:       "workspace file to anchor the comment to",
				Destination: &cmd.file,
			},
			&cli.IntFlag{
				Name:        "anchor",
				Usage:       "selection start as a character offset",
				Destination: &cmd.anchor,
			},
			&cli.IntFlag{
				Name:        "head",
				Usage:       "selection end as a character offset",
				Destination: &cmd.head,
			},
		},
		Action: cmd.runAdd,
	}
}

// start loads the sandbox's comments and echoes notifications to the
// printer.
func (cmd *CommentCmd) start(ctx context.Context) (*app.App, error) {
	a, err := cmd.flags.LoadApp(ctx)
	if err != nil {
		return nil, err
	}
	if a.Config.SandboxID == "" {
		return nil, errors.New("no sandbox configured; set sandbox_id or --sandbox")
	}

	p := printer.Ctx(ctx)
	a.Notify.Subscribe(func(n corenotify.Notification) {
		echoNotification(p, n)
	})

	a.Comments.LoadComments(ctx)
	if a.Errored() {
		return nil, cli.Exit("", 1)
	}
	return a, nil
}

// finish converts error notifications into a failing exit code.
func finish(a *app.App) error {
	a.Comments.Wait()
	if a.Errored() {
		return cli.Exit("", 1)
	}
	return nil
}

func echoNotification(p *printer.Printer, n corenotify.Notification) {
	switch n.Level {
	case corenotify.LevelError:
		p.Errorf("%s", n.Message)
	case corenotify.LevelWarning:
		p.Warnf("%s", n.Message)
	case corenotify.LevelSuccess:
		p.Successf("%s", n.Message)
	default:
		p.Infof("%s", n.Message)
	}
}

func lookup(a *app.App, id string) (*comment.Comment, error) {
	tree := a.Comments.State().Snapshot()
	c, ok := tree.Comments.Get(tree.SandboxID, id)
	if !ok || c.IsOptimistic() {
		return nil, fmt.Errorf("%s: %w", id, comment.ErrCommentNotFound)
	}
	return c, nil
}

func requireID(c *cli.Command) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", errors.New("comment id is required")
	}
	return id, nil
}

// threadInfo is the JSON output format for comment list and show.
type threadInfo struct {
	ID        string       `json:"id"`
	Status    string       `json:"status"`
	Path      string       `json:"path,omitempty"`
	Line      int          `json:"line,omitempty"`
	Author    string       `json:"author"`
	Replies   int          `json:"replies"`
	Content   string       `json:"content"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Thread    []threadInfo `json:"thread,omitempty"`
}

// locator resolves code references to line numbers, reading each file once.
type locator struct {
	ws    *editor.Workspace
	files map[string]string
}

func newLocator(ws *editor.Workspace) *locator {
	return &locator{ws: ws, files: map[string]string{}}
}

// line returns the one-based line a reference starts on, 0 when the file
// cannot be read.
func (l *locator) line(ref *comment.Reference) int {
	path := ref.Metadata.Path
	code, ok := l.files[path]
	if !ok {
		abs, err := l.ws.AbsPath(path)
		if err == nil {
			if data, err := os.ReadFile(abs); err == nil {
				code = string(data)
				ok = true
			}
		}
		if !ok {
			l.files[path] = ""
			return 0
		}
		l.files[path] = code
	}
	if code == "" {
		return 0
	}
	return editor.PositionAt(code, ref.Metadata.Start()).Line + 1
}

func (l *locator) info(c *comment.Comment) threadInfo {
	info := threadInfo{
		ID:        c.ID,
		Status:    status(c),
		Author:    author(c.User),
		Replies:   len(c.Comments),
		Content:   c.Content,
		UpdatedAt: c.UpdatedAt,
	}
	if ref, ok := c.CodeReference(); ok {
		info.Path = ref.Metadata.Path
		info.Line = l.line(ref)
	}
	return info
}

func (i threadInfo) location() string {
	switch {
	case i.Path == "":
		return "-"
	case i.Line == 0:
		return i.Path
	default:
		return fmt.Sprintf("%s:%d", i.Path, i.Line)
	}
}

func status(c *comment.Comment) string {
	if c.IsResolved {
		return "resolved"
	}
	return "open"
}

func author(u comment.User) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.ID
	}
}

// summary returns the first line of s cut to n cells.
func summary(s string, n int) string {
	first, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	runes := []rune(first)
	if len(runes) <= n {
		return first
	}
	return string(runes[:n-1]) + "…"
}

func (cmd *CommentCmd) runList(ctx context.Context, c *cli.Command) error {
	filter := comment.Filter(cmd.flags.Config.TUI.Filter)
	if cmd.filter != "" {
		f, err := comment.ParseFilter(cmd.filter)
		if err != nil {
			return err
		}
		filter = f
	}

	a, err := cmd.start(ctx)
	if err != nil {
		return err
	}

	tree := a.Comments.State().Snapshot()
	threads := selectThreads(tree.Comments.Threads(tree.SandboxID, filter), cmd.pattern, cmd.search)

	loc := newLocator(a.Workspace)
	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, t := range threads {
			if err := iojson.WriteLine(out, loc.info(t)); err != nil {
				return fmt.Errorf("encode comment: %w", err)
			}
		}
		return nil
	}

	if len(threads) == 0 {
		printer.Ctx(ctx).Muted(fmt.Sprintf("No %s threads", filter))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tLOCATION\tAUTHOR\tREPLIES\tUPDATED\tSUMMARY")
	for _, t := range threads {
		info := loc.info(t)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			info.ID, info.Status, info.location(), info.Author, info.Replies,
			humanize.Time(info.UpdatedAt), summary(info.Content, summaryWidth))
	}
	return w.Flush()
}

// selectThreads drops the draft and applies the path glob and fuzzy search.
// A search orders the result by match score.
func selectThreads(threads []*comment.Comment, pattern, search string) []*comment.Comment {
	out := make([]*comment.Comment, 0, len(threads))
	for _, t := range threads {
		if t.IsOptimistic() {
			continue
		}
		if pattern != "" {
			ref, ok := t.CodeReference()
			if !ok || !editor.MatchPath(pattern, ref.Metadata.Path) {
				continue
			}
		}
		out = append(out, t)
	}

	if search == "" {
		return out
	}

	contents := make([]string, len(out))
	for i, t := range out {
		contents[i] = t.Content
	}
	matches := fuzzy.Find(search, contents)

	ranked := make([]*comment.Comment, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, out[m.Index])
	}
	return ranked
}

func (cmd *CommentCmd) runShow(ctx context.Context, c *cli.Command) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}

	a, err := cmd.start(ctx)
	if err != nil {
		return err
	}
	if _, err := lookup(a, id); err != nil {
		return err
	}

	a.Comments.GetComments(ctx, id)
	if a.Errored() {
		return cli.Exit("", 1)
	}

	tree := a.Comments.State().Snapshot()
	root, _ := tree.Comments.Get(tree.SandboxID, id)
	replies := tree.Comments.Replies(tree.SandboxID, root)
	loc := newLocator(a.Workspace)

	if cmd.jsonOutput {
		info := loc.info(root)
		for _, r := range replies {
			info.Thread = append(info.Thread, loc.info(r))
		}
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, info)
	}

	printer.Ctx(ctx).Markdown(threadMarkdown(loc, root, replies, time.Now()))
	return nil
}

// threadMarkdown renders a thread for the terminal.
func threadMarkdown(loc *locator, root *comment.Comment, replies []*comment.Comment, now time.Time) string {
	var b strings.Builder

	info := loc.info(root)
	fmt.Fprintf(&b, "## %s\n\n", info.ID)
	fmt.Fprintf(&b, "**%s** · %s", info.Author, humanize.RelTime(root.InsertedAt, now, "ago", "from now"))
	if root.IsResolved {
		fmt.Fprintf(&b, " · %s resolved", styles.IconResolved)
	}
	b.WriteString("\n\n")

	if ref, ok := root.CodeReference(); ok {
		fmt.Fprintf(&b, "`%s`\n\n", info.location())
		if code := strings.TrimRight(ref.Metadata.Code, "\n"); code != "" {
			fmt.Fprintf(&b, "```%s\n%s\n```\n\n", fenceLanguage(ref.Metadata.Path), code)
		}
	}

	b.WriteString(root.Content)
	b.WriteString("\n")

	if len(replies) > 0 {
		fmt.Fprintf(&b, "\n---\n\n### %s %s\n", humanize.Comma(int64(len(replies))), plural(len(replies), "reply", "replies"))
		for _, r := range replies {
			fmt.Fprintf(&b, "\n**%s** · %s\n\n%s\n", author(r.User), humanize.RelTime(r.InsertedAt, now, "ago", "from now"), r.Content)
		}
	}

	return b.String()
}

func fenceLanguage(file string) string {
	return strings.TrimPrefix(path.Ext(file), ".")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (cmd *CommentCmd) runAdd(ctx context.Context, c *cli.Command) error {
	if cmd.parentID != "" && cmd.file != "" {
		return errors.New("--parent and --file cannot be combined")
	}

	text, err := cmd.readText(c)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("comment text is empty")
	}

	a, err := cmd.start(ctx)
	if err != nil {
		return err
	}
	if cmd.parentID != "" {
		if _, err := lookup(a, cmd.parentID); err != nil {
			return err
		}
	}

	before := commentIDs(a)

	if cmd.file != "" {
		if err := a.Workspace.Open(cmd.file); err != nil {
			return err
		}
		a.Workspace.SetSelection(cmd.anchor, cmd.head)
		a.Comments.CreateComment(ctx)
		if a.Errored() {
			return cli.Exit("", 1)
		}
	}

	a.Comments.AddComment(ctx, remarks.AddCommentOptions{
		Content:         text,
		ParentCommentID: cmd.parentID,
	})
	if err := finish(a); err != nil {
		return err
	}

	for _, id := range commentIDs(a) {
		if !slices.Contains(before, id) {
			_, _ = fmt.Fprintln(c.Root().Writer, id)
		}
	}
	return nil
}

// readText returns the comment body from the arguments, a prompt or stdin.
func (cmd *CommentCmd) readText(c *cli.Command) (string, error) {
	if c.Args().Len() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}

	in := c.Root().Reader
	if in == nil {
		in = os.Stdin
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		var text string
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewText().
					Title("Comment").
					Description("Markdown is supported").
					Value(&text),
			),
		).WithTheme(styles.FormTheme()).Run()
		return text, err
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func commentIDs(a *app.App) []string {
	tree := a.Comments.State().Snapshot()
	ids := make([]string, 0, len(tree.Comments.Sandbox(tree.SandboxID)))
	for id := range tree.Comments.Sandbox(tree.SandboxID) {
		if id != comment.OptimisticCommentID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (cmd *CommentCmd) runEdit(ctx context.Context, c *cli.Command) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(c.Args().Tail(), " "))
	if text == "" {
		return errors.New("comment text is required")
	}

	a, err := cmd.start(ctx)
	if err != nil {
		return err
	}
	if _, err := lookup(a, id); err != nil {
		return err
	}

	a.Comments.UpdateComment(ctx, id, text)
	if err := finish(a); err != nil {
		return err
	}
	printer.Ctx(ctx).Successf("Updated %s", id)
	return nil
}

func (cmd *CommentCmd) runResolve(resolved bool) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		id, err := requireID(c)
		if err != nil {
			return err
		}

		a, err := cmd.start(ctx)
		if err != nil {
			return err
		}
		if _, err := lookup(a, id); err != nil {
			return err
		}

		a.Comments.ResolveComment(ctx, id, resolved)
		if err := finish(a); err != nil {
			return err
		}

		verb := "Reopened"
		if resolved {
			verb = "Resolved"
		}
		printer.Ctx(ctx).Successf("%s %s", verb, id)
		return nil
	}
}

func (cmd *CommentCmd) runDelete(ctx context.Context, c *cli.Command) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}

	a, err := cmd.start(ctx)
	if err != nil {
		return err
	}
	if _, err := lookup(a, id); err != nil {
		return err
	}

	a.Comments.DeleteComment(ctx, id)
	if err := finish(a); err != nil {
		return err
	}
	printer.Ctx(ctx).Successf("Deleted %s", id)
	return nil
}

func (cmd *CommentCmd) runPermalink(ctx context.Context, c *cli.Command) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}

	a, err := cmd.start(ctx)
	if err != nil {
		return err
	}
	if _, err := lookup(a, id); err != nil {
		return err
	}

	a.Comments.CopyPermalinkToClipboard(ctx, id)
	_, _ = fmt.Fprintln(c.Root().Writer, a.Router.CommentURL(id))
	return nil
}
