package remarks

import "context"

// CopyPermalinkToClipboard copies a shareable link to the comment and
// confirms it to the user. Clipboard failures are logged only.
func (s *CommentService) CopyPermalinkToClipboard(ctx context.Context, commentID string) {
	link := s.fx.Router.CommentURL(commentID)
	if err := s.fx.Clipboard.WriteText(ctx, link); err != nil {
		s.log.Warn().Err(err).Str("comment_id", commentID).Msg("copy permalink failed")
	}
	s.fx.Notifier.Success(MsgPermalinkCopied)
}
