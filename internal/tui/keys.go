package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings of the comment viewer.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Mark     key.Binding

	Draft      key.Binding
	Compose    key.Binding
	Reply      key.Binding
	Edit       key.Binding
	Resolve    key.Binding
	Delete     key.Binding
	Permalink  key.Binding
	Filter     key.Binding
	NextThread key.Binding
	PrevThread key.Binding
	Reload     key.Binding
	History    key.Binding
	Dismiss    key.Binding
	DismissAll key.Binding

	Choose key.Binding
	Close  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Mark:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "select")),

		Draft:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new comment")),
		Compose:    key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i", "write")),
		Reply:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reply")),
		Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Resolve:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "resolve")),
		Delete:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete")),
		Permalink:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
		Filter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		NextThread: key.NewBinding(key.WithKeys("]", "tab"), key.WithHelp("]", "next thread")),
		PrevThread: key.NewBinding(key.WithKeys("[", "shift+tab"), key.WithHelp("[", "prev thread")),
		Reload:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		History:    key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "notifications")),
		Dismiss:    key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "dismiss toast")),
		DismissAll: key.NewBinding(key.WithKeys("Z"), key.WithHelp("Z", "dismiss all")),

		Choose: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "choose")),
		Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Draft, k.Compose, k.Reply, k.Resolve, k.Filter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown, k.Mark},
		{k.Draft, k.Compose, k.Reply, k.Edit, k.Resolve, k.Delete},
		{k.Permalink, k.Filter, k.NextThread, k.PrevThread, k.Reload, k.History},
		{k.Dismiss, k.DismissAll, k.Choose, k.Close, k.Help, k.Quit},
	}
}

// composerKeyMap holds the bindings active while writing a comment.
type composerKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
}

func defaultComposerKeyMap() composerKeyMap {
	return composerKeyMap{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k composerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel}
}

func (k composerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
