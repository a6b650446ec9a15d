package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	// Global
	Quit      key.Binding
	ForceQuit key.Binding
	NextTab   key.Binding
	StatusTab key.Binding
	FilesTab  key.Binding
	Help      key.Binding
	Dismiss   key.Binding

	// Status view
	Pause         key.Binding
	Resume        key.Binding
	Stop          key.Binding
	Reboot        key.Binding
	RefreshStatus key.Binding
	BrowseFiles   key.Binding

	// Files view
	Open    key.Binding
	Back    key.Binding
	Refresh key.Binding
	Upload  key.Binding

	// Details dialog
	Print  key.Binding
	Delete key.Binding
	Close  key.Binding

	// Confirmation prompts
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap provides sensible default keybindings.
var DefaultKeyMap = KeyMap{
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
	StatusTab: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "home")),
	FilesTab:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "files")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Dismiss:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ok")),

	Pause:         key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Resume:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
	Stop:          key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
	Reboot:        key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "reboot")),
	RefreshStatus: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
	BrowseFiles:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "browse files")),

	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:    key.NewBinding(key.WithKeys("backspace"), key.WithHelp("backspace", "parent dir")),
	Refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
	Upload:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),

	Print:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "print")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),

	Confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
	Deny:    key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
}

// helpKeys adapts a list of bindings to help.KeyMap.
type helpKeys []key.Binding

func (h helpKeys) ShortHelp() []key.Binding {
	return h
}

func (h helpKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{h}
}
