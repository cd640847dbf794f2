// Package tui is the interactive comment viewer: the open file with a gutter
// of thread markers, the active thread panel, and toasts.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/eventbus"
	"github.com/colonyops/remarks/internal/core/notify"
	"github.com/colonyops/remarks/internal/editor"
	tuinotify "github.com/colonyops/remarks/internal/notify"
	"github.com/colonyops/remarks/internal/remarks"
)

// Layout rows: a header line, the code area, and a footer line.
const (
	headerHeight = 1
	footerHeight = 1
	wheelStep    = 3
)

// composeMode says what the composer submits to.
type composeMode int

const (
	composeNone composeMode = iota
	composeThread
	composeReply
	composeEdit
)

// actionDoneMsg is returned when a background comment action finishes.
type actionDoneMsg struct{}

// Options configures the TUI.
type Options struct {
	Service   *remarks.CommentService
	Workspace *editor.Workspace
	// Notifications delivers action failures and confirmations as toasts.
	Notifications *tuinotify.Bus
	// Bus is optional; comment events trigger a redraw.
	Bus *eventbus.EventBus
	// Watcher is optional; the open file is reloaded when it changes.
	Watcher  *FileWatcher
	ToastTTL time.Duration
	// Path is opened on start when set.
	Path     string
	Warnings []string
	Log      zerolog.Logger
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	ctx     context.Context
	svc     *remarks.CommentService
	ws      *editor.Workspace
	watcher *FileWatcher
	log     zerolog.Logger
	now     func() time.Time

	keys         keyMap
	composerKeys composerKeyMap
	help         help.Model
	composer     textinput.Model
	mode         composeMode

	toastController *ToastController
	toastView       *ToastView
	notifications   *NotificationBuffer
	history         notificationHistory
	modal           *NotificationModal
	confirm         *Modal
	changes         changeSignal
	warnings        []string

	width  int
	height int
	scroll int

	// visual is set while extending a keyboard selection from markAnchor.
	visual     bool
	markAnchor int
	// dragAnchor is the offset a mouse drag started at, -1 when not dragging.
	dragAnchor int
}

// New creates the model. ctx bounds the comment actions it starts.
func New(ctx context.Context, opts Options) Model {
	composer := textinput.New()
	composer.Placeholder = "Write a comment…"
	composer.CharLimit = 4000
	composer.Prompt = ""

	toasts := NewToastController(opts.ToastTTL)

	m := Model{
		ctx:             ctx,
		svc:             opts.Service,
		ws:              opts.Workspace,
		watcher:         opts.Watcher,
		log:             opts.Log,
		now:             time.Now,
		keys:            defaultKeyMap(),
		composerKeys:    defaultComposerKeyMap(),
		help:            help.New(),
		composer:        composer,
		toastController: toasts,
		toastView:       NewToastView(toasts),
		notifications:   NewNotificationBuffer(),
		changes:         newChangeSignal(),
		warnings:        opts.Warnings,
		dragAnchor:      -1,
	}

	if opts.Notifications != nil {
		opts.Notifications.Subscribe(m.notifications.Push)
		m.history = opts.Notifications
	}
	if opts.Bus != nil {
		changes := m.changes
		opts.Bus.SubscribeAll(func(eventbus.Event, any) { changes.Notify() })
	}

	if opts.Path != "" {
		if err := m.ws.Open(opts.Path); err != nil {
			m.warnings = append(m.warnings, err.Error())
		}
	}
	m.syncLayout()

	return m
}

// Init starts the listeners and loads the sandbox's comments.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.notifications.WaitForSignal(),
		m.changes.Wait(),
		m.run(m.svc.LoadComments),
	}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.Start())
	}
	for _, w := range m.warnings {
		m.notifications.Push(notify.Notification{Level: notify.LevelWarning, Message: w})
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.composer.Width = max(panelWidth(msg.Width)-8, 10)
		m.ensureCursorVisible()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case drainNotificationsMsg:
		for _, n := range m.notifications.Drain() {
			m.toastController.Push(n)
		}
		cmd := tea.Batch(m.notifications.WaitForSignal(), m.ensureToastTick())
		return m, cmd

	case stateChangedMsg:
		m.leaveComposerIfClosed()
		return m, m.changes.Wait()

	case actionDoneMsg:
		m.leaveComposerIfClosed()
		return m, nil

	case toastTickMsg:
		m.toastController.Tick(toastTickInterval)
		if m.toastController.HasToasts() {
			return m, scheduleToastTick()
		}
		m.toastController.SetTicking(false)
		return m, nil

	case fileChangedMsg:
		if err := m.ws.Reload(); err != nil {
			m.log.Debug().Err(err).Str("path", msg.path).Msg("reload after change failed")
		}
		m.syncLayout()
		return m, m.watcher.Start()
	}

	if m.mode != composeNone {
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) ensureToastTick() tea.Cmd {
	if m.toastController.Ticking() || !m.toastController.HasToasts() {
		return nil
	}
	m.toastController.SetTicking(true)
	return scheduleToastTick()
}

// run wraps a comment action as a command so remote calls stay off the
// Update loop.
func (m Model) run(fn func(ctx context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		fn(ctx)
		return actionDoneMsg{}
	}
}

// --- Input ---

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != composeNone {
		return m.handleComposerKey(msg)
	}

	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}

	if m.modal != nil {
		return m.handleModalKey(msg)
	}

	tree := m.svc.State().Snapshot()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Choose) && tree.MultiSelector != nil:
		idx := int(msg.String()[0] - '1')
		if idx < len(tree.MultiSelector.IDs) {
			sel := tree.MultiSelector
			m.svc.SelectComment(m.ctx, sel.IDs[idx], comment.Rect{Left: sel.X, Top: sel.Y, Right: sel.X + 1, Bottom: sel.Y + 1})
			m.revealActive()
		}

	case key.Matches(msg, m.keys.Close):
		switch {
		case tree.MultiSelector != nil:
			m.svc.DismissMultiSelector()
		case tree.HasCurrent():
			m.svc.CloseComment()
		default:
			m.visual = false
			if sel := m.ws.CurrentSelection(); sel != nil && sel.Range != nil {
				m.ws.SetCursor(sel.Cursor)
			}
		}

	case key.Matches(msg, m.keys.Dismiss):
		m.toastController.Dismiss()
	case key.Matches(msg, m.keys.DismissAll):
		m.toastController.DismissAll()

	case key.Matches(msg, m.keys.Up):
		m.moveLines(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveLines(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveLines(-m.codeHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.moveLines(m.codeHeight())
	case key.Matches(msg, m.keys.Left):
		m.moveTo(m.cursor() - 1)
	case key.Matches(msg, m.keys.Right):
		m.moveTo(m.cursor() + 1)

	case key.Matches(msg, m.keys.Mark):
		cur := m.cursor()
		if m.visual {
			m.visual = false
			m.ws.SetCursor(cur)
		} else {
			m.visual = true
			m.markAnchor = cur
			m.ws.SetSelection(cur, cur)
		}

	case key.Matches(msg, m.keys.Draft):
		m.startDraft()
		cmd := m.composerFocus()
		return m, cmd

	case key.Matches(msg, m.keys.Compose), key.Matches(msg, m.keys.Reply):
		active, ok := activeComment(tree)
		if !ok {
			return m, nil
		}
		if active.IsOptimistic() {
			cmd := m.openComposer(composeThread, active.Content)
			return m, cmd
		}
		cmd := m.openComposer(composeReply, "")
		return m, cmd

	case key.Matches(msg, m.keys.Edit):
		if active, ok := activeComment(tree); ok && !active.IsOptimistic() {
			cmd := m.openComposer(composeEdit, active.Content)
			return m, cmd
		}

	case key.Matches(msg, m.keys.Resolve):
		if active, ok := activeComment(tree); ok && !active.IsOptimistic() {
			id, resolved := active.ID, !active.IsResolved
			return m, m.run(func(ctx context.Context) { m.svc.ResolveComment(ctx, id, resolved) })
		}

	case key.Matches(msg, m.keys.Delete):
		if active, ok := activeComment(tree); ok {
			if active.IsOptimistic() {
				return m, m.run(func(ctx context.Context) { m.svc.DeleteComment(ctx, comment.OptimisticCommentID) })
			}
			m.confirm = NewModal("Delete comment?", deleteMessage(active), active.ID)
		}

	case key.Matches(msg, m.keys.Permalink):
		if active, ok := activeComment(tree); ok && !active.IsOptimistic() {
			id := active.ID
			return m, m.run(func(ctx context.Context) { m.svc.CopyPermalinkToClipboard(ctx, id) })
		}

	case key.Matches(msg, m.keys.Filter):
		m.svc.SelectCommentsFilter(tree.SelectedFilter.Next())

	case key.Matches(msg, m.keys.NextThread):
		m.cycleThread(tree, 1)
	case key.Matches(msg, m.keys.PrevThread):
		m.cycleThread(tree, -1)

	case key.Matches(msg, m.keys.Reload):
		return m, m.run(m.svc.LoadComments)

	case key.Matches(msg, m.keys.History):
		m.modal = NewNotificationModal(m.history, m.width, m.height, m.log)
	}

	return m, nil
}

func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.History), key.Matches(msg, m.keys.Quit):
		m.modal = nil
	case key.Matches(msg, m.keys.Up):
		m.modal.ScrollUp()
	case key.Matches(msg, m.keys.Down):
		m.modal.ScrollDown()
	case key.Matches(msg, m.keys.Delete):
		if err := m.modal.Clear(); err != nil {
			m.log.Error().Err(err).Msg("clear notifications failed")
		}
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right), msg.String() == "tab":
		m.confirm.ToggleSelection()
	case msg.String() == "enter":
		confirmed, id := m.confirm.ConfirmSelected(), m.confirm.CommentID()
		m.confirm = nil
		if confirmed {
			return m, m.run(func(ctx context.Context) { m.svc.DeleteComment(ctx, id) })
		}
	case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.Quit):
		m.confirm = nil
	}
	return m, nil
}

func deleteMessage(c *comment.Comment) string {
	switch n := len(c.Comments); n {
	case 0:
		return "This comment will be removed for everyone."
	case 1:
		return "This comment and its reply will be removed for everyone."
	default:
		return fmt.Sprintf("This comment and its %d replies will be removed for everyone.", n)
	}
}

func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.composerKeys.Cancel):
		mode := m.mode
		m.closeComposer()
		if mode == composeThread {
			m.svc.CloseComment()
		}
		return m, nil

	case key.Matches(msg, m.composerKeys.Submit):
		content := strings.TrimSpace(m.composer.Value())
		if content == "" {
			return m, nil
		}
		cmd := m.submit(content)
		return m, cmd
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

// submit sends the composer content according to the compose mode.
func (m *Model) submit(content string) tea.Cmd {
	mode := m.mode
	var activeID string
	m.svc.State().View(func(t *comment.Tree) { activeID = t.CurrentCommentID })
	m.closeComposer()

	switch mode {
	case composeThread:
		return m.run(func(ctx context.Context) {
			m.svc.AddComment(ctx, remarks.AddCommentOptions{Content: content})
		})
	case composeReply:
		return m.run(func(ctx context.Context) {
			m.svc.AddComment(ctx, remarks.AddCommentOptions{Content: content, ParentCommentID: activeID})
		})
	case composeEdit:
		return m.run(func(ctx context.Context) { m.svc.UpdateComment(ctx, activeID, content) })
	}
	return nil
}

func (m *Model) openComposer(mode composeMode, value string) tea.Cmd {
	m.mode = mode
	m.composer.SetValue(value)
	m.composer.CursorEnd()
	return m.composer.Focus()
}

func (m *Model) closeComposer() {
	m.mode = composeNone
	m.composer.Reset()
	m.composer.Blur()
}

// composerFocus opens the composer when a draft became the active comment.
func (m *Model) composerFocus() tea.Cmd {
	var drafting bool
	m.svc.State().View(func(t *comment.Tree) {
		drafting = t.CurrentCommentID == comment.OptimisticCommentID
	})
	if !drafting {
		return nil
	}
	return m.openComposer(composeThread, "")
}

// leaveComposerIfClosed drops the composer once its comment is no longer
// active, e.g. after a failed submit or a delete.
func (m *Model) leaveComposerIfClosed() {
	if m.mode == composeNone {
		return
	}
	var active bool
	m.svc.State().View(func(t *comment.Tree) { active = t.HasCurrent() })
	if !active {
		m.closeComposer()
	}
}

func (m *Model) startDraft() {
	m.visual = false
	m.svc.CreateComment(m.ctx)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil || m.modal != nil {
		return m, nil
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scrollBy(-wheelStep)
		return m, nil
	case msg.Button == tea.MouseButtonWheelDown:
		m.scrollBy(wheelStep)
		return m, nil
	case msg.Action == tea.MouseActionRelease:
		m.dragAnchor = -1
		return m, nil
	case msg.Action == tea.MouseActionMotion && msg.Button == tea.MouseButtonLeft:
		if m.dragAnchor >= 0 {
			if offset, ok := m.offsetAt(msg.X, msg.Y); ok {
				m.ws.SetSelection(m.dragAnchor, offset)
			}
		}
		return m, nil
	case msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft:
		return m, nil
	}

	tree := m.svc.State().Snapshot()
	if tree.MultiSelector != nil {
		if id, ok := m.selectorHit(tree, msg.X, msg.Y); ok {
			sel := tree.MultiSelector
			m.svc.SelectComment(m.ctx, id, comment.Rect{Left: sel.X, Top: sel.Y, Right: sel.X + 1, Bottom: sel.Y + 1})
			m.revealActive()
		} else {
			m.svc.DismissMultiSelector()
		}
		return m, nil
	}

	mod, ok := m.ws.CurrentModule()
	if !ok || msg.Y < headerHeight || msg.Y >= headerHeight+m.codeHeight() || msg.X >= m.codeWidth(tree) {
		return m, nil
	}
	line := msg.Y - headerHeight + m.scroll
	if line >= len(editor.Lines(mod.Code)) {
		return m, nil
	}

	cell := comment.Rect{Left: msg.X, Top: msg.Y, Right: msg.X + 1, Bottom: msg.Y + 1}
	anchors := anchorsFor(tree.Comments.Threads(tree.SandboxID, tree.SelectedFilter), mod.Path)

	// Gutter clicks open the threads starting on the line, or draft one.
	if msg.X < gutterWidth(mod.Code) {
		var ids []string
		if mk, ok := markersByLine(mod.Code, anchors)[line]; ok {
			ids = mk.ids
		}
		if len(ids) == 0 {
			m.visual = false
			m.ws.SetCursor(editor.OffsetAt(mod.Code, line, 0))
		}
		m.svc.OnCommentClick(m.ctx, ids, cell)
		cmd := m.composerFocus()
		return m, cmd
	}

	offset, _ := m.offsetAt(msg.X, msg.Y)
	if ids := idsAt(anchors, offset); len(ids) > 0 {
		m.svc.OnCommentClick(m.ctx, ids, cell)
		return m, nil
	}

	m.visual = false
	m.ws.SetCursor(offset)
	m.dragAnchor = offset
	return m, nil
}

// offsetAt maps a screen cell in the code area to a rune offset.
func (m Model) offsetAt(x, y int) (int, bool) {
	mod, ok := m.ws.CurrentModule()
	if !ok {
		return 0, false
	}
	line := max(y-headerHeight, 0) + m.scroll
	col := max(x-gutterWidth(mod.Code), 0)
	return editor.OffsetAt(mod.Code, line, col), true
}

// selectorHit returns the thread listed at a cell of the overlay.
func (m Model) selectorHit(tree comment.Tree, x, y int) (string, bool) {
	sel := tree.MultiSelector
	threads := selectorThreads(tree)
	view := selectorView{threads: threads}.render()
	left, top := m.clampOverlay(sel.X, sel.Y, view)
	width := lipgloss.Width(view)

	// Border and title occupy the first two rows.
	row := y - top - 2
	if x < left || x >= left+width || row < 0 || row >= len(threads) || row >= 9 {
		return "", false
	}
	return threads[row].ID, true
}

// --- Cursor and scrolling ---

func (m Model) cursor() int {
	if sel := m.ws.CurrentSelection(); sel != nil {
		return sel.Cursor
	}
	return 0
}

func (m *Model) moveTo(offset int) {
	mod, ok := m.ws.CurrentModule()
	if !ok {
		return
	}
	offset = max(0, min(offset, len([]rune(mod.Code))))
	if m.visual {
		m.ws.SetSelection(m.markAnchor, offset)
	} else {
		m.ws.SetCursor(offset)
	}
	m.ensureCursorVisible()
}

func (m *Model) moveLines(delta int) {
	mod, ok := m.ws.CurrentModule()
	if !ok {
		return
	}
	pos := editor.PositionAt(mod.Code, m.cursor())
	line := max(0, pos.Line+delta)
	m.moveTo(editor.OffsetAt(mod.Code, line, pos.Col))
}

func (m *Model) scrollBy(delta int) {
	mod, ok := m.ws.CurrentModule()
	if !ok {
		return
	}
	maxScroll := max(len(editor.Lines(mod.Code))-m.codeHeight(), 0)
	m.scroll = max(0, min(m.scroll+delta, maxScroll))
	m.syncLayout()
}

func (m *Model) ensureCursorVisible() {
	mod, ok := m.ws.CurrentModule()
	if !ok {
		m.syncLayout()
		return
	}
	m.revealLine(editor.PositionAt(mod.Code, m.cursor()).Line)
}

// revealLine scrolls the minimum needed to show line.
func (m *Model) revealLine(line int) {
	height := m.codeHeight()
	switch {
	case line < m.scroll:
		m.scroll = line
	case height > 0 && line >= m.scroll+height:
		m.scroll = line - height + 1
	}
	m.syncLayout()
}

// revealActive scrolls to the active thread's anchor.
func (m *Model) revealActive() {
	mod, ok := m.ws.CurrentModule()
	if !ok {
		return
	}
	tree := m.svc.State().Snapshot()
	active, ok := activeComment(tree)
	if !ok {
		return
	}
	if ref, ok := active.CodeReference(); ok && ref.Metadata.Path == mod.Path {
		m.revealLine(editor.PositionAt(mod.Code, ref.Metadata.Start()).Line)
	}
}

// cycleThread opens the next or previous visible thread.
func (m *Model) cycleThread(tree comment.Tree, dir int) {
	var threads []*comment.Comment
	for _, c := range tree.Comments.Threads(tree.SandboxID, tree.SelectedFilter) {
		if !c.IsOptimistic() {
			threads = append(threads, c)
		}
	}
	if len(threads) == 0 {
		return
	}

	idx := -1
	for i, c := range threads {
		if c.ID == tree.CurrentCommentID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && dir < 0:
		idx = len(threads) - 1
	case idx < 0:
		idx = 0
	default:
		idx = (idx + dir + len(threads)) % len(threads)
	}

	target := threads[idx]
	if ref, ok := target.CodeReference(); ok {
		// Open the file and scroll first so the boundary is on screen.
		if err := m.ws.SelectModule(m.ctx, ref.Metadata.Path); err == nil {
			mod, _ := m.ws.CurrentModule()
			m.revealLine(editor.PositionAt(mod.Code, ref.Metadata.Start()).Line)
		}
	}
	m.svc.SelectComment(m.ctx, target.ID, comment.Rect{Top: headerHeight, Bottom: headerHeight + 1, Right: 1})
}

// syncLayout publishes the code view placement to the workspace so comment
// boundaries resolve to screen cells, and follows the open file.
func (m *Model) syncLayout() {
	mod, ok := m.ws.CurrentModule()
	if !ok {
		return
	}
	m.ws.SetLayout(editor.Layout{Top: headerHeight, Gutter: gutterWidth(mod.Code), Scroll: m.scroll})

	if m.watcher != nil {
		if abs, err := m.ws.AbsPath(mod.Path); err == nil {
			if err := m.watcher.Watch(abs); err != nil {
				m.log.Debug().Err(err).Str("path", abs).Msg("watch file failed")
			}
		}
	}
}

func (m Model) codeHeight() int {
	return max(m.height-headerHeight-footerHeight, 0)
}

func (m Model) codeWidth(tree comment.Tree) int {
	if tree.HasCurrent() {
		return max(m.width-panelWidth(m.width), 0)
	}
	return m.width
}

func activeComment(tree comment.Tree) (*comment.Comment, bool) {
	if !tree.HasCurrent() {
		return nil, false
	}
	return tree.Comments.Get(tree.SandboxID, tree.CurrentCommentID)
}

func selectorThreads(tree comment.Tree) []*comment.Comment {
	out := make([]*comment.Comment, 0, len(tree.MultiSelector.IDs))
	for _, id := range tree.MultiSelector.IDs {
		if c, ok := tree.Comments.Get(tree.SandboxID, id); ok {
			out = append(out, c)
		}
	}
	return out
}
