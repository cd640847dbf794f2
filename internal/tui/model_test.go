package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/editor"
	tuinotify "github.com/colonyops/remarks/internal/notify"
	"github.com/colonyops/remarks/internal/remarks"
	"github.com/colonyops/remarks/pkg/tuitest"
)

const testSandbox = "sb-1"

var testUser = comment.User{ID: "u-1", Name: "Ada Lovelace", Username: "ada"}

type fakeAPI struct {
	mu      sync.Mutex
	created comment.Comment
	codes   []comment.CreateCodeCommentInput
	updates []comment.UpdateCommentInput
	deletes []string
}

func (f *fakeAPI) SandboxComments(context.Context, string) ([]comment.Comment, error) {
	return nil, nil
}

func (f *fakeAPI) Comment(context.Context, string, string) (comment.Thread, error) {
	return comment.Thread{}, nil
}

func (f *fakeAPI) CreateComment(_ context.Context, in comment.CreateCommentInput) (comment.Comment, error) {
	return comment.Comment{ID: "reply-1", Content: in.Content, User: testUser}, nil
}

func (f *fakeAPI) CreateCodeComment(_ context.Context, in comment.CreateCodeCommentInput) (comment.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, in)
	return f.created, nil
}

func (f *fakeAPI) UpdateComment(_ context.Context, in comment.UpdateCommentInput) (comment.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	return comment.Comment{ID: in.CommentID, Content: in.Content, IsResolved: in.IsResolved}, nil
}

func (f *fakeAPI) DeleteComment(_ context.Context, _, commentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, commentID)
	return nil
}

type noClipboard struct{}

func (noClipboard) WriteText(context.Context, string) error { return nil }

type testRouter struct{}

func (testRouter) CommentURL(id string) string { return "https://remarks.test/s/sb-1?comment=" + id }

type fixture struct {
	model  Model
	api    *fakeAPI
	svc    *remarks.CommentService
	notify *tuinotify.Bus
}

// codeThread anchors a thread to [start, end) of main.go.
func codeThread(id, content string, start, end int, at time.Time) *comment.Comment {
	return &comment.Comment{
		ID:         id,
		Content:    content,
		InsertedAt: at,
		User:       testUser,
		References: []comment.Reference{{
			ID:       "ref-" + id,
			Type:     comment.ReferenceCode,
			Metadata: comment.CodeReference{Anchor: start, Head: end, Path: "main.go"},
		}},
	}
}

func newFixture(t *testing.T, seed ...*comment.Comment) *fixture {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("func main() {\n\tprintln(1)\n}\n"), 0o644))
	ws, err := editor.NewWorkspace(dir)
	require.NoError(t, err)

	user := testUser
	state := comment.NewState(comment.Tree{User: &user, SandboxID: testSandbox})
	state.Update(func(tr *comment.Tree) {
		for _, c := range seed {
			tr.Comments.Put(testSandbox, c)
		}
	})

	api := &fakeAPI{}
	bus := tuinotify.NewBus(nil, zerolog.Nop())
	svc := remarks.NewCommentService(state, remarks.Effects{
		API:       api,
		Editor:    ws,
		Boundary:  ws,
		Notifier:  bus,
		Clipboard: noClipboard{},
		Router:    testRouter{},
	}, nil, zerolog.Nop())

	m := New(context.Background(), Options{
		Service:       svc,
		Workspace:     ws,
		Notifications: bus,
		Path:          "main.go",
		Log:           zerolog.Nop(),
	})
	m = update(t, m, tuitest.WindowSize(100, 20))

	return &fixture{model: m, api: api, svc: svc, notify: bus}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and runs any returned command to completion.
func (f *fixture) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		next, cmd := f.model.Update(tuitest.Key(k))
		f.model = next.(Model)
		f.runAction(cmd)
	}
}

// runAction executes a comment action command. Listener commands are not
// run because they block.
func (f *fixture) runAction(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if _, ok := msg.(actionDoneMsg); ok {
			next, _ := f.model.Update(msg)
			f.model = next.(Model)
		}
	case <-time.After(100 * time.Millisecond):
	}
	f.svc.Wait()
}

func (f *fixture) click(t *testing.T, x, y int) {
	t.Helper()
	f.model = update(t, f.model, tuitest.Click(x, y))
	f.svc.Wait()
}

func (f *fixture) tree() comment.Tree {
	f.svc.Wait()
	return f.svc.State().Snapshot()
}

func TestModel_DraftAndSubmit(t *testing.T) {
	f := newFixture(t)
	f.api.created = *codeThread("c-new", "hi", 1, 1, time.Now())

	f.press(t, "l", "n")

	tree := f.tree()
	assert.Equal(t, comment.OptimisticCommentID, tree.CurrentCommentID)
	assert.Equal(t, composeThread, f.model.mode, "a new draft opens the composer")

	f.press(t, "h", "i", "enter")

	require.Len(t, f.api.codes, 1)
	assert.Equal(t, "hi", f.api.codes[0].Content)
	assert.Equal(t, "main.go", f.api.codes[0].CodeReference.Path)
	assert.Equal(t, 1, f.api.codes[0].CodeReference.Anchor)
	assert.Equal(t, composeNone, f.model.mode)

	_, ok := f.tree().Comments.Get(testSandbox, "c-new")
	assert.True(t, ok)
}

func TestModel_ComposerCancelDiscardsDraft(t *testing.T) {
	f := newFixture(t)

	f.press(t, "n")
	require.Equal(t, composeThread, f.model.mode)

	f.press(t, "esc")

	tree := f.tree()
	assert.False(t, tree.HasCurrent())
	_, ok := tree.Comments.Get(testSandbox, comment.OptimisticCommentID)
	assert.False(t, ok)
	assert.Equal(t, composeNone, f.model.mode)
}

func TestModel_GutterClickOpensThread(t *testing.T) {
	f := newFixture(t, codeThread("c1", "Looks off", 0, 4, time.Now()))

	f.click(t, 0, headerHeight)

	tree := f.tree()
	assert.Equal(t, "c1", tree.CurrentCommentID)
	require.NotNil(t, tree.Positions)
	require.NotNil(t, tree.Positions.Dialog)
	assert.Equal(t, headerHeight, tree.Positions.Dialog.Top)

	view := f.model.View()
	assert.Contains(t, view, "Looks off")
	assert.Contains(t, view, "main.go")

	// Clicking the active thread again closes it.
	f.click(t, 0, headerHeight)
	cur := f.tree()
	assert.False(t, cur.HasCurrent())
}

func TestModel_GutterClickOnEmptyLineStartsDraft(t *testing.T) {
	f := newFixture(t)

	f.click(t, 0, headerHeight+1)

	tree := f.tree()
	assert.Equal(t, comment.OptimisticCommentID, tree.CurrentCommentID)
	draft, ok := tree.Comments.Get(testSandbox, comment.OptimisticCommentID)
	require.True(t, ok)
	ref, ok := draft.CodeReference()
	require.True(t, ok)
	assert.Equal(t, 14, ref.Metadata.Anchor, "the draft starts at the clicked line")
}

func TestModel_CodeClickOpensCoveringThread(t *testing.T) {
	f := newFixture(t, codeThread("c1", "name it", 5, 9, time.Now()))
	gutter := gutterWidth("func main() {\n\tprintln(1)\n}\n")

	f.click(t, gutter+1, headerHeight)
	cur := f.tree()
	assert.False(t, cur.HasCurrent(), "offset 1 is outside the thread")

	f.click(t, gutter+6, headerHeight)
	assert.Equal(t, "c1", f.tree().CurrentCommentID)
}

func TestModel_SelectorChoosesThread(t *testing.T) {
	now := time.Now()
	f := newFixture(t,
		codeThread("c1", "first", 0, 4, now),
		codeThread("c2", "second", 0, 2, now.Add(time.Second)),
	)

	f.click(t, 0, headerHeight)

	tree := f.tree()
	require.NotNil(t, tree.MultiSelector)
	assert.ElementsMatch(t, []string{"c1", "c2"}, tree.MultiSelector.IDs)
	assert.Contains(t, f.model.View(), "Comments here")

	second := tree.MultiSelector.IDs[1]
	f.press(t, "2")

	tree = f.tree()
	assert.Nil(t, tree.MultiSelector)
	assert.Equal(t, second, tree.CurrentCommentID)
}

func TestModel_EscapeCascade(t *testing.T) {
	now := time.Now()
	f := newFixture(t,
		codeThread("c1", "first", 0, 4, now),
		codeThread("c2", "second", 0, 2, now.Add(time.Second)),
	)

	f.click(t, 0, headerHeight)
	require.NotNil(t, f.tree().MultiSelector)

	f.press(t, "esc")
	assert.Nil(t, f.tree().MultiSelector)

	f.press(t, "]")
	assert.Equal(t, "c1", f.tree().CurrentCommentID)

	f.press(t, "esc")
	cur := f.tree()
	assert.False(t, cur.HasCurrent())
}

func TestModel_CycleThreads(t *testing.T) {
	now := time.Now()
	f := newFixture(t,
		codeThread("c1", "first", 0, 4, now),
		codeThread("c2", "second", 15, 22, now.Add(time.Second)),
	)

	f.press(t, "]")
	assert.Equal(t, "c1", f.tree().CurrentCommentID)
	f.press(t, "]")
	assert.Equal(t, "c2", f.tree().CurrentCommentID)
	f.press(t, "]")
	assert.Equal(t, "c1", f.tree().CurrentCommentID)
	f.press(t, "[")
	assert.Equal(t, "c2", f.tree().CurrentCommentID)
}

func TestModel_ResolveAndFilter(t *testing.T) {
	f := newFixture(t, codeThread("c1", "fix", 0, 4, time.Now()))

	f.press(t, "]", "x")

	require.Len(t, f.api.updates, 1)
	assert.Equal(t, "c1", f.api.updates[0].CommentID)
	assert.True(t, f.api.updates[0].IsResolved)

	c, ok := f.tree().Comments.Get(testSandbox, "c1")
	require.True(t, ok)
	assert.True(t, c.IsResolved)

	assert.Equal(t, comment.FilterOpen, f.tree().SelectedFilter)
	f.press(t, "f")
	assert.Equal(t, comment.FilterResolved, f.tree().SelectedFilter)
}

func TestModel_ReplyAndEdit(t *testing.T) {
	f := newFixture(t, codeThread("c1", "fix", 0, 4, time.Now()))

	f.press(t, "]", "r")
	require.Equal(t, composeReply, f.model.mode)
	f.press(t, "o", "k", "enter")

	root, ok := f.tree().Comments.Get(testSandbox, "c1")
	require.True(t, ok)
	require.Len(t, root.Comments, 1)
	assert.Equal(t, "reply-1", root.Comments[0].ID)

	f.press(t, "e")
	require.Equal(t, composeEdit, f.model.mode)
	assert.Equal(t, "fix", f.model.composer.Value())
	f.press(t, "!", "enter")

	require.Len(t, f.api.updates, 1)
	assert.Equal(t, "fix!", f.api.updates[0].Content)
}

func TestModel_Delete(t *testing.T) {
	f := newFixture(t, codeThread("c1", "fix", 0, 4, time.Now()))

	f.press(t, "]", "D")
	require.NotNil(t, f.model.confirm)
	assert.Contains(t, f.model.View(), "Delete comment?")
	assert.Empty(t, f.api.deletes)

	f.press(t, "enter")

	assert.Nil(t, f.model.confirm)
	assert.Equal(t, []string{"c1"}, f.api.deletes)
	_, ok := f.tree().Comments.Get(testSandbox, "c1")
	assert.False(t, ok)
	cur := f.tree()
	assert.False(t, cur.HasCurrent())
}

func TestModel_DeleteCancelled(t *testing.T) {
	f := newFixture(t, codeThread("c1", "fix", 0, 4, time.Now()))

	f.press(t, "]", "D", "l", "enter")
	assert.Nil(t, f.model.confirm)

	f.press(t, "D", "esc")
	assert.Nil(t, f.model.confirm)

	assert.Empty(t, f.api.deletes)
	_, ok := f.tree().Comments.Get(testSandbox, "c1")
	assert.True(t, ok)
	cur := f.tree()
	assert.True(t, cur.HasCurrent())
}

func TestModel_NotificationsBecomeToasts(t *testing.T) {
	f := newFixture(t)

	f.notify.Error("boom")
	f.model = update(t, f.model, drainNotificationsMsg{})

	assert.True(t, f.model.toastController.HasToasts())
	assert.Contains(t, f.model.View(), "boom")

	f.press(t, "z")
	assert.False(t, f.model.toastController.HasToasts())
}

func TestModel_KeyboardSelection(t *testing.T) {
	f := newFixture(t)

	f.press(t, "v", "l", "l", "l", "l")

	ws := f.model.ws
	sel := ws.CurrentSelection()
	require.NotNil(t, sel)
	require.NotNil(t, sel.Range)
	assert.Equal(t, 0, sel.Range.Anchor)
	assert.Equal(t, 4, sel.Range.Head)

	f.press(t, "n", "esc")
	f.press(t, "esc")
	sel = ws.CurrentSelection()
	require.NotNil(t, sel)
	assert.Nil(t, sel.Range, "escape drops the range")
}

func TestModel_ScrollKeepsCursorVisible(t *testing.T) {
	f := newFixture(t)
	f.model = update(t, f.model, tuitest.WindowSize(100, 4))

	f.press(t, "j", "j", "j")

	assert.Equal(t, 2, f.model.scroll)
	assert.Equal(t, 2, f.model.ws.Layout().Scroll)
}

func TestModel_DragSelectsRange(t *testing.T) {
	f := newFixture(t)
	gutter := gutterWidth("func main() {\n\tprintln(1)\n}\n")

	f.click(t, gutter, headerHeight)
	f.model = update(t, f.model, tuitest.Drag(gutter+4, headerHeight))
	f.model = update(t, f.model, tuitest.Release(gutter+4, headerHeight))

	sel := f.model.ws.CurrentSelection()
	require.NotNil(t, sel)
	require.NotNil(t, sel.Range)
	assert.Equal(t, 0, sel.Range.Anchor)
	assert.Equal(t, 4, sel.Range.Head)
	assert.Equal(t, -1, f.model.dragAnchor)
}

func TestModel_ViewFrame(t *testing.T) {
	f := newFixture(t)

	lines := strings.Split(tuitest.StripANSI(f.model.View()), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "remarks")
	assert.Contains(t, lines[0], "main.go")
	assert.Contains(t, lines[0], "0 threads · sb-1")
	assert.Contains(t, lines[headerHeight], "func main() {")
}
