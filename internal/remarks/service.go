// Package remarks implements the comment actions: optimistic state transitions
// for threaded code comments that are reconciled with the remote API or rolled
// back when a call fails.
package remarks

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/eventbus"
	"github.com/colonyops/remarks/internal/core/logging"
)

// Messages shown to the user when an action fails or completes.
const (
	MsgCreateFailed    = "Unable to create your comment, please try again"
	MsgUpdateFailed    = "Unable to update your comment, please try again"
	MsgDeleteFailed    = "Unable to delete your comment, please try again"
	MsgFetchFailed     = "Unable to get your comment, please try again"
	MsgLoadFailed      = "Unable to load comments, please try again"
	MsgDraftFailed     = "Unable to start your comment, please try again"
	MsgOpenFailed      = "Unable to open the comment, please try again"
	MsgPermalinkCopied = "Comment permalink copied to clipboard"
)

// Effects bundles the collaborators the actions call out to.
type Effects struct {
	API       API
	Editor    Editor
	Boundary  BoundaryResolver
	Notifier  Notifier
	Clipboard Clipboard
	Router    Router
}

// CommentService runs comment actions against a shared comment.State.
//
// Every action holds the state lock only for its synchronous steps and
// releases it across remote calls, so a later action can observe the
// optimistic state left by an earlier one. Failures are logged and reported
// through the Notifier; no action returns an error.
type CommentService struct {
	state *comment.State
	fx    Effects
	bus   *eventbus.EventBus
	log   zerolog.Logger
	now   func() time.Time

	pending sync.WaitGroup
}

// NewCommentService creates a new CommentService. bus may be nil.
func NewCommentService(state *comment.State, fx Effects, bus *eventbus.EventBus, log zerolog.Logger) *CommentService {
	return &CommentService{
		state: state,
		fx:    fx,
		bus:   bus,
		log:   log,
		now:   time.Now,
	}
}

// State returns the state the service mutates.
func (s *CommentService) State() *comment.State {
	return s.state
}

// Wait blocks until background thread fetches started by SelectComment finish.
func (s *CommentService) Wait() {
	s.pending.Wait()
}

// SelectCommentsFilter sets the active display filter.
func (s *CommentService) SelectCommentsFilter(f comment.Filter) {
	s.state.Update(func(t *comment.Tree) {
		t.SelectedFilter = f
	})
}

func (s *CommentService) sandboxID() string {
	var id string
	s.state.View(func(t *comment.Tree) {
		id = t.SandboxID
	})
	return id
}

func withIDs(ctx context.Context, sandboxID, commentID string) context.Context {
	ctx = logging.WithSandboxID(ctx, sandboxID)
	if commentID != "" {
		ctx = logging.WithCommentID(ctx, commentID)
	}
	return ctx
}
