package remarks

import (
	"context"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/eventbus"
)

// AddCommentOptions configures AddComment.
type AddCommentOptions struct {
	Content string
	// ParentCommentID makes the new comment a reply. Empty for a thread.
	ParentCommentID string
}

// CreateComment starts a draft: it stores the optimistic placeholder, anchored
// to the editor selection when there is one, and opens it as the active
// comment.
func (s *CommentService) CreateComment(ctx context.Context) {
	ref := s.draftReference()
	now := s.now()

	var (
		sandboxID string
		ok        bool
	)
	s.state.Update(func(t *comment.Tree) {
		if t.User == nil || t.SandboxID == "" {
			return
		}
		sandboxID = t.SandboxID

		draft := &comment.Comment{
			ID:         comment.OptimisticCommentID,
			InsertedAt: now,
			UpdatedAt:  now,
			User:       *t.User,
		}
		if ref != nil {
			draft.References = []comment.Reference{*ref}
		}
		t.Comments.Put(sandboxID, draft)
		ok = true
	})
	if !ok {
		s.log.Debug().Msg("create comment skipped: no user or sandbox")
		return
	}

	ctx = withIDs(ctx, sandboxID, comment.OptimisticCommentID)
	rect, err := s.fx.Boundary.CodeReferenceBoundary(ctx, comment.OptimisticCommentID, ref)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("resolve draft boundary failed")
		s.state.Update(func(t *comment.Tree) {
			t.Comments.Delete(sandboxID, comment.OptimisticCommentID)
			if t.CurrentCommentID == comment.OptimisticCommentID {
				t.ClearCurrent()
			}
		})
		s.fx.Notifier.Error(MsgDraftFailed)
		return
	}

	opened := false
	s.state.Update(func(t *comment.Tree) {
		// The draft may have been discarded while the boundary was resolved.
		if _, exists := t.Comments.Get(sandboxID, comment.OptimisticCommentID); !exists {
			return
		}
		dialog := rect
		t.CurrentCommentID = comment.OptimisticCommentID
		t.Positions = &comment.Positions{Trigger: rect, Dialog: &dialog}
		opened = true
	})
	if opened {
		s.bus.PublishCommentOpened(eventbus.CommentOpenedPayload{SandboxID: sandboxID, CommentID: comment.OptimisticCommentID})
	}
}

// draftReference captures a code reference from the editor selection, nil
// when the editor has no selection.
func (s *CommentService) draftReference() *comment.Reference {
	if s.fx.Editor == nil {
		return nil
	}
	sel := s.fx.Editor.CurrentSelection()
	if sel == nil {
		return nil
	}
	mod, ok := s.fx.Editor.CurrentModule()
	if !ok {
		return nil
	}

	anchor, head, code := sel.Cursor, sel.Cursor, ""
	if sel.Range != nil {
		anchor, head = sel.Range.Anchor, sel.Range.Head
		code = substring(mod.Code, min(anchor, head), max(anchor, head))
	}

	return &comment.Reference{
		ID:   comment.OptimisticReferenceID,
		Type: comment.ReferenceCode,
		Metadata: comment.CodeReference{
			Anchor: anchor,
			Head:   head,
			Code:   code,
			Path:   mod.Path,
		},
		Resource: mod.Path,
	}
}

// substring returns the runes of s in [start, end), clamped to s.
func substring(s string, start, end int) string {
	runes := []rune(s)
	start = max(0, min(start, len(runes)))
	end = max(start, min(end, len(runes)))
	return string(runes[start:end])
}

// AddComment submits the draft. The placeholder is made visible (and linked
// into its parent's replies) before the API call; on success it is replaced
// by the server's record, on failure it is discarded.
func (s *CommentService) AddComment(ctx context.Context, opts AddCommentOptions) {
	now := s.now()

	var (
		sandboxID string
		parentID  string
		codeRef   *comment.CodeReference
		ok        bool
	)
	s.state.Update(func(t *comment.Tree) {
		if t.User == nil || t.SandboxID == "" {
			return
		}
		sandboxID = t.SandboxID

		draft, exists := t.Comments.Get(sandboxID, comment.OptimisticCommentID)
		if !exists {
			draft = &comment.Comment{
				ID:         comment.OptimisticCommentID,
				InsertedAt: now,
				UpdatedAt:  now,
				User:       *t.User,
			}
			t.Comments.Put(sandboxID, draft)
		}
		if opts.ParentCommentID != "" && draft.ParentComment == nil {
			draft.ParentComment = &comment.Ref{ID: opts.ParentCommentID}
		}
		draft.Content = opts.Content

		if draft.ParentComment != nil {
			parentID = draft.ParentComment.ID
			if parent, found := t.Comments.Get(sandboxID, parentID); found && parent.ChildIndex(comment.OptimisticCommentID) < 0 {
				parent.AppendChild(comment.OptimisticCommentID)
			}
		}
		if ref, found := draft.CodeReference(); found {
			md := ref.Metadata
			codeRef = &md
		}

		t.SelectedFilter = comment.FilterOpen
		ok = true
	})
	if !ok {
		s.log.Debug().Msg("add comment skipped: no user or sandbox")
		return
	}

	ctx = withIDs(ctx, sandboxID, "")

	var (
		created comment.Comment
		err     error
	)
	if codeRef != nil {
		created, err = s.fx.API.CreateCodeComment(ctx, comment.CreateCodeCommentInput{
			SandboxID:     sandboxID,
			Content:       opts.Content,
			CodeReference: *codeRef,
		})
	} else {
		created, err = s.fx.API.CreateComment(ctx, comment.CreateCommentInput{
			SandboxID:       sandboxID,
			Content:         opts.Content,
			ParentCommentID: parentID,
		})
	}

	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Str("parent_id", parentID).Msg("create comment failed")
		s.state.Update(func(t *comment.Tree) {
			t.Comments.Delete(sandboxID, comment.OptimisticCommentID)
			if parent, found := t.Comments.Get(sandboxID, parentID); found {
				parent.RemoveChild(comment.OptimisticCommentID)
			}
			if t.CurrentCommentID == comment.OptimisticCommentID {
				t.ClearCurrent()
			}
		})
		s.fx.Notifier.Error(MsgCreateFailed)
		return
	}

	record := &created
	s.state.Update(func(t *comment.Tree) {
		t.Comments.Delete(sandboxID, comment.OptimisticCommentID)
		t.Comments.Put(sandboxID, record)

		if parent, found := t.Comments.Get(sandboxID, parentID); found {
			if !parent.ReplaceChild(comment.OptimisticCommentID, record.ID) && parent.ChildIndex(record.ID) < 0 {
				parent.AppendChild(record.ID)
			}
		}

		if t.CurrentCommentID == comment.OptimisticCommentID {
			t.CurrentCommentID = record.ID
		}
	})

	s.log.Debug().Ctx(withIDs(ctx, sandboxID, record.ID)).Msg("comment created")
	s.bus.PublishCommentCreated(eventbus.CommentCreatedPayload{SandboxID: sandboxID, Comment: record.Clone()})
}

// UpdateComment edits a comment's content. Editing the draft submits it. The
// new content is applied before the call and kept even when the call fails.
func (s *CommentService) UpdateComment(ctx context.Context, commentID, content string) {
	sandboxID := s.sandboxID()
	if sandboxID == "" {
		return
	}

	if commentID == comment.OptimisticCommentID {
		s.AddComment(ctx, AddCommentOptions{Content: content})
		return
	}

	var (
		in comment.UpdateCommentInput
		ok bool
	)
	s.state.Update(func(t *comment.Tree) {
		c, found := t.Comments.Get(sandboxID, commentID)
		if !found {
			return
		}
		c.Content = content
		in = comment.UpdateCommentInput{
			SandboxID:  sandboxID,
			CommentID:  commentID,
			Content:    content,
			IsResolved: c.IsResolved,
		}
		ok = true
	})
	if !ok {
		s.log.Debug().Str("comment_id", commentID).Msg("update comment skipped: unknown comment")
		return
	}

	ctx = withIDs(ctx, sandboxID, commentID)
	updated, err := s.fx.API.UpdateComment(ctx, in)
	if err != nil {
		// TODO: revert the content once product confirms edits should roll back like resolve does.
		s.log.Warn().Ctx(ctx).Err(err).Msg("update comment failed")
		s.fx.Notifier.Error(MsgUpdateFailed)
		return
	}

	s.mergeUpdatedAt(sandboxID, commentID, updated)
	s.bus.PublishCommentUpdated(eventbus.CommentUpdatedPayload{SandboxID: sandboxID, CommentID: commentID})
}

// ResolveComment sets a comment's resolved flag, restoring the previous value
// when the call fails.
func (s *CommentService) ResolveComment(ctx context.Context, commentID string, resolved bool) {
	sandboxID := s.sandboxID()
	if sandboxID == "" {
		return
	}

	var (
		previous bool
		in       comment.UpdateCommentInput
		ok       bool
	)
	s.state.Update(func(t *comment.Tree) {
		c, found := t.Comments.Get(sandboxID, commentID)
		if !found {
			return
		}
		previous = c.IsResolved
		c.IsResolved = resolved
		in = comment.UpdateCommentInput{
			SandboxID:  sandboxID,
			CommentID:  commentID,
			Content:    c.Content,
			IsResolved: resolved,
		}
		ok = true
	})
	if !ok {
		s.log.Debug().Str("comment_id", commentID).Msg("resolve comment skipped: unknown comment")
		return
	}

	ctx = withIDs(ctx, sandboxID, commentID)
	updated, err := s.fx.API.UpdateComment(ctx, in)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Bool("resolved", resolved).Msg("resolve comment failed")
		s.state.Update(func(t *comment.Tree) {
			if c, found := t.Comments.Get(sandboxID, commentID); found {
				c.IsResolved = previous
			}
		})
		s.fx.Notifier.Error(MsgUpdateFailed)
		return
	}

	s.mergeUpdatedAt(sandboxID, commentID, updated)
	s.bus.PublishCommentResolved(eventbus.CommentResolvedPayload{SandboxID: sandboxID, CommentID: commentID, IsResolved: resolved})
}

func (s *CommentService) mergeUpdatedAt(sandboxID, commentID string, updated comment.Comment) {
	if updated.UpdatedAt.IsZero() {
		return
	}
	s.state.Update(func(t *comment.Tree) {
		if c, found := t.Comments.Get(sandboxID, commentID); found {
			c.UpdatedAt = updated.UpdatedAt
		}
	})
}

// DeleteComment removes a comment (and its stub in the parent's replies)
// before calling the API, and puts both back exactly as they were when the
// call fails. Deleting the draft only discards it locally.
func (s *CommentService) DeleteComment(ctx context.Context, commentID string) {
	sandboxID := s.sandboxID()
	if sandboxID == "" {
		return
	}

	if commentID == comment.OptimisticCommentID {
		s.discardDraft(sandboxID)
		return
	}

	var (
		deleted  *comment.Comment
		parentID string
		childIdx = -1
	)
	s.state.Update(func(t *comment.Tree) {
		c, found := t.Comments.Get(sandboxID, commentID)
		if !found {
			return
		}
		deleted = c
		t.Comments.Delete(sandboxID, commentID)
		if c.ParentComment != nil {
			parentID = c.ParentComment.ID
			if parent, ok := t.Comments.Get(sandboxID, parentID); ok {
				childIdx = parent.RemoveChild(commentID)
			}
		}
	})
	if deleted == nil {
		s.log.Debug().Str("comment_id", commentID).Msg("delete comment skipped: unknown comment")
		return
	}

	ctx = withIDs(ctx, sandboxID, commentID)
	if err := s.fx.API.DeleteComment(ctx, sandboxID, commentID); err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("delete comment failed")
		s.state.Update(func(t *comment.Tree) {
			t.Comments.Put(sandboxID, deleted)
			if childIdx < 0 {
				return
			}
			if parent, ok := t.Comments.Get(sandboxID, parentID); ok && parent.ChildIndex(commentID) < 0 {
				parent.InsertChild(childIdx, commentID)
			}
		})
		s.fx.Notifier.Error(MsgDeleteFailed)
		return
	}

	closed := false
	s.state.Update(func(t *comment.Tree) {
		if t.CurrentCommentID == commentID {
			t.ClearCurrent()
			closed = true
		}
	})
	if closed {
		s.bus.PublishCommentClosed(eventbus.CommentClosedPayload{SandboxID: sandboxID, CommentID: commentID})
	}
	s.bus.PublishCommentDeleted(eventbus.CommentDeletedPayload{SandboxID: sandboxID, CommentID: commentID})
}

func (s *CommentService) discardDraft(sandboxID string) {
	s.state.Update(func(t *comment.Tree) {
		if draft, ok := t.Comments.Get(sandboxID, comment.OptimisticCommentID); ok && draft.ParentComment != nil {
			if parent, found := t.Comments.Get(sandboxID, draft.ParentComment.ID); found {
				parent.RemoveChild(comment.OptimisticCommentID)
			}
		}
		t.Comments.Delete(sandboxID, comment.OptimisticCommentID)
		if t.CurrentCommentID == comment.OptimisticCommentID {
			t.ClearCurrent()
		}
	})
}

// GetComments loads a thread's replies and merges each into the store,
// overwriting local records with the server's.
func (s *CommentService) GetComments(ctx context.Context, commentID string) {
	sandboxID := s.sandboxID()
	if sandboxID == "" {
		return
	}

	ctx = withIDs(ctx, sandboxID, commentID)
	thread, err := s.fx.API.Comment(ctx, sandboxID, commentID)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("get comment thread failed")
		s.fx.Notifier.Error(MsgFetchFailed)
		return
	}

	s.state.Update(func(t *comment.Tree) {
		for i := range thread.Replies {
			reply := thread.Replies[i]
			t.Comments.Put(sandboxID, &reply)
		}
	})

	s.bus.PublishCommentThreadLoaded(eventbus.CommentThreadLoadedPayload{
		SandboxID: sandboxID,
		CommentID: commentID,
		Replies:   len(thread.Replies),
	})
}

// LoadComments replaces the sandbox's comments with the server's list. An
// unsaved draft survives the reload.
func (s *CommentService) LoadComments(ctx context.Context) {
	sandboxID := s.sandboxID()
	if sandboxID == "" {
		return
	}

	ctx = withIDs(ctx, sandboxID, "")
	list, err := s.fx.API.SandboxComments(ctx, sandboxID)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("load comments failed")
		s.fx.Notifier.Error(MsgLoadFailed)
		return
	}

	records := make([]*comment.Comment, 0, len(list)+1)
	for i := range list {
		records = append(records, &list[i])
	}

	s.state.Update(func(t *comment.Tree) {
		if draft, ok := t.Comments.Get(sandboxID, comment.OptimisticCommentID); ok {
			records = append(records, draft)
		}
		t.Comments.Replace(sandboxID, records)
	})

	s.bus.PublishCommentsLoaded(eventbus.CommentsLoadedPayload{SandboxID: sandboxID, Count: len(list)})
}
