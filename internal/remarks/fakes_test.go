package remarks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/colonyops/remarks/internal/core/comment"
)

var errOffline = errors.New("network offline")

type fakeAPI struct {
	mu sync.Mutex

	created   comment.Comment
	createErr error
	updateErr error
	deleteErr error
	threadErr error
	listErr   error
	threads   map[string]comment.Thread
	list      []comment.Comment

	// during runs while a mutation is in flight, with the state unlocked.
	during func()

	createCalls []comment.CreateCommentInput
	codeCalls   []comment.CreateCodeCommentInput
	updateCalls []comment.UpdateCommentInput
	deleteCalls []string
	threadCalls []string
}

func (f *fakeAPI) inFlight() {
	if f.during != nil {
		f.during()
	}
}

func (f *fakeAPI) SandboxComments(_ context.Context, _ string) ([]comment.Comment, error) {
	return f.list, f.listErr
}

func (f *fakeAPI) Comment(_ context.Context, _, commentID string) (comment.Thread, error) {
	f.mu.Lock()
	f.threadCalls = append(f.threadCalls, commentID)
	f.mu.Unlock()
	if f.threadErr != nil {
		return comment.Thread{}, f.threadErr
	}
	return f.threads[commentID], nil
}

func (f *fakeAPI) CreateComment(_ context.Context, in comment.CreateCommentInput) (comment.Comment, error) {
	f.createCalls = append(f.createCalls, in)
	f.inFlight()
	return f.created, f.createErr
}

func (f *fakeAPI) CreateCodeComment(_ context.Context, in comment.CreateCodeCommentInput) (comment.Comment, error) {
	f.codeCalls = append(f.codeCalls, in)
	f.inFlight()
	return f.created, f.createErr
}

func (f *fakeAPI) UpdateComment(_ context.Context, in comment.UpdateCommentInput) (comment.Comment, error) {
	f.updateCalls = append(f.updateCalls, in)
	f.inFlight()
	if f.updateErr != nil {
		return comment.Comment{}, f.updateErr
	}
	return comment.Comment{ID: in.CommentID, Content: in.Content, IsResolved: in.IsResolved}, nil
}

func (f *fakeAPI) DeleteComment(_ context.Context, _, commentID string) error {
	f.deleteCalls = append(f.deleteCalls, commentID)
	f.inFlight()
	return f.deleteErr
}

type fakeEditor struct {
	module    *Module
	selection *Selection
	selectErr error
	opened    []string
}

func (e *fakeEditor) CurrentModule() (Module, bool) {
	if e.module == nil {
		return Module{}, false
	}
	return *e.module, true
}

func (e *fakeEditor) CurrentSelection() *Selection {
	return e.selection
}

func (e *fakeEditor) SelectModule(_ context.Context, path string) error {
	e.opened = append(e.opened, path)
	return e.selectErr
}

type fakeBoundary struct {
	rect  comment.Rect
	err   error
	calls []*comment.Reference
}

func (b *fakeBoundary) CodeReferenceBoundary(_ context.Context, _ string, ref *comment.Reference) (comment.Rect, error) {
	b.calls = append(b.calls, ref)
	return b.rect, b.err
}

type fakeNotifier struct {
	mu        sync.Mutex
	errors    []string
	successes []string
}

func (n *fakeNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *fakeNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *fakeNotifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteText(_ context.Context, text string) error {
	c.text = text
	return c.err
}

type fakeRouter struct{}

func (fakeRouter) CommentURL(commentID string) string {
	return "https://example.test/s/sb-1?comment=" + commentID
}

const testSandbox = "sb-1"

var testUser = comment.User{ID: "u-1", Name: "Ada Lovelace", Username: "ada", AvatarURL: "https://example.test/ada.png"}

type harness struct {
	svc       *CommentService
	api       *fakeAPI
	editor    *fakeEditor
	boundary  *fakeBoundary
	notifier  *fakeNotifier
	clipboard *fakeClipboard
}

func newHarness(t *testing.T, seed ...*comment.Comment) *harness {
	t.Helper()

	user := testUser
	state := comment.NewState(comment.Tree{User: &user, SandboxID: testSandbox})
	state.Update(func(tr *comment.Tree) {
		for _, c := range seed {
			tr.Comments.Put(testSandbox, c)
		}
	})

	h := &harness{
		api:       &fakeAPI{},
		editor:    &fakeEditor{},
		boundary:  &fakeBoundary{rect: comment.Rect{Left: 10, Top: 4, Right: 30, Bottom: 5}},
		notifier:  &fakeNotifier{},
		clipboard: &fakeClipboard{},
	}
	h.svc = NewCommentService(state, Effects{
		API:       h.api,
		Editor:    h.editor,
		Boundary:  h.boundary,
		Notifier:  h.notifier,
		Clipboard: h.clipboard,
		Router:    fakeRouter{},
	}, nil, zerolog.Nop())
	return h
}

func (h *harness) tree() comment.Tree {
	h.svc.Wait()
	return h.svc.State().Snapshot()
}

func (h *harness) get(id string) (*comment.Comment, bool) {
	return h.tree().Comments.Get(testSandbox, id)
}

// peek reads the live tree while an API call is in flight.
func (h *harness) peek(fn func(tr *comment.Tree)) {
	h.svc.State().View(fn)
}
