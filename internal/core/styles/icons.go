package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

var (
	IconComment  = "●"
	IconResolved = "✓"
	IconMany     = "◆"
	IconDraft    = "✎"
	IconReply    = "↳"
)

// Notification icons
var (
	IconNotifyInfo    = "ℹ"
	IconNotifySuccess = "✓"
	IconNotifyWarning = "⚠"
	IconNotifyError   = "✗"
)
