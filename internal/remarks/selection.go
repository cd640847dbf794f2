package remarks

import (
	"context"
	"slices"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/eventbus"
)

type clickOutcome int

const (
	clickNone clickOutcome = iota
	clickClose
	clickDraft
	clickOpen
)

// OnCommentClick routes a click that hit the comments with the given ids.
// Clicking the active comment closes it, clicking empty space starts a draft,
// a single hit opens that comment and several hits show the disambiguation
// overlay at the click's top-left corner.
func (s *CommentService) OnCommentClick(ctx context.Context, ids []string, bounds comment.Rect) {
	outcome := clickNone
	s.state.Update(func(t *comment.Tree) {
		if t.HasCurrent() && slices.Contains(ids, t.CurrentCommentID) {
			outcome = clickClose
			return
		}

		switch len(ids) {
		case 0:
			outcome = clickDraft
		case 1:
			outcome = clickOpen
		default:
			t.MultiSelector = &comment.MultiSelector{
				IDs: slices.Clone(ids),
				X:   bounds.Left,
				Y:   bounds.Top,
			}
		}
	})

	switch outcome {
	case clickClose:
		s.CloseComment()
	case clickDraft:
		s.CreateComment(ctx)
	case clickOpen:
		s.SelectComment(ctx, ids[0], bounds)
	}
}

// SelectComment opens a comment. Its replies are fetched in the background.
// Comments anchored to code first switch the editor to the referenced file so
// the dialog can be placed next to the code; others only record the trigger
// rectangle.
func (s *CommentService) SelectComment(ctx context.Context, commentID string, bounds comment.Rect) {
	var (
		sandboxID string
		ref       *comment.Reference
	)
	s.state.Update(func(t *comment.Tree) {
		t.MultiSelector = nil
		sandboxID = t.SandboxID
		if sandboxID == "" {
			return
		}
		if c, ok := t.Comments.Get(sandboxID, commentID); ok {
			if r, has := c.CodeReference(); has {
				cp := *r
				ref = &cp
			}
		}
	})
	if sandboxID == "" {
		return
	}

	if commentID != comment.OptimisticCommentID {
		s.fetchInBackground(ctx, commentID)
	}

	positions := comment.Positions{Trigger: bounds}
	if ref != nil {
		ctx = withIDs(ctx, sandboxID, commentID)
		if err := s.fx.Editor.SelectModule(ctx, ref.Metadata.Path); err != nil {
			s.log.Warn().Ctx(ctx).Err(err).Str("path", ref.Metadata.Path).Msg("open referenced file failed")
			s.fx.Notifier.Error(MsgOpenFailed)
			return
		}

		rect, err := s.fx.Boundary.CodeReferenceBoundary(ctx, commentID, ref)
		if err != nil {
			s.log.Warn().Ctx(ctx).Err(err).Msg("resolve comment boundary failed")
			s.fx.Notifier.Error(MsgOpenFailed)
			return
		}
		positions.Dialog = &rect
	}

	s.state.Update(func(t *comment.Tree) {
		if t.CurrentCommentID == comment.OptimisticCommentID && commentID != comment.OptimisticCommentID {
			t.Comments.Delete(sandboxID, comment.OptimisticCommentID)
		}
		t.CurrentCommentID = commentID
		t.Positions = &positions
	})

	s.bus.PublishCommentOpened(eventbus.CommentOpenedPayload{SandboxID: sandboxID, CommentID: commentID})
}

// fetchInBackground loads a thread's replies without blocking the caller and
// without being cancelled with the caller's context.
func (s *CommentService) fetchInBackground(ctx context.Context, commentID string) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.GetComments(ctx, commentID)
	}()
}

// CloseComment closes the active comment. An unsaved draft is discarded.
func (s *CommentService) CloseComment() {
	var sandboxID, closed string
	s.state.Update(func(t *comment.Tree) {
		if t.SandboxID == "" {
			return
		}
		sandboxID = t.SandboxID
		closed = t.CurrentCommentID
		if closed == comment.OptimisticCommentID {
			t.Comments.Delete(sandboxID, comment.OptimisticCommentID)
		}
		t.ClearCurrent()
	})

	if closed != "" {
		s.bus.PublishCommentClosed(eventbus.CommentClosedPayload{SandboxID: sandboxID, CommentID: closed})
	}
}

// DismissMultiSelector hides the disambiguation overlay without opening a
// comment.
func (s *CommentService) DismissMultiSelector() {
	s.state.Update(func(t *comment.Tree) {
		t.MultiSelector = nil
	})
}
