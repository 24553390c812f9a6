package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	NextFile    key.Binding
	PrevFile    key.Binding
	NextHunk    key.Binding
	PrevHunk    key.Binding
	Approve     key.Binding
	Reject      key.Binding
	Save        key.Binding
	Clear       key.Binding
	ApproveFile key.Binding
	Identical   key.Binding
	MovePair    key.Binding
	Trust       key.Binding
	Classify    key.Binding
	Group       key.Binding
	Toggle      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	NextFile: key.NewBinding(
		key.WithKeys("n", "tab"),
		key.WithHelp("n/tab", "next file"),
	),
	PrevFile: key.NewBinding(
		key.WithKeys("N", "shift+tab"),
		key.WithHelp("N/S-tab", "prev file"),
	),
	NextHunk: key.NewBinding(
		key.WithKeys("]", "J"),
		key.WithHelp("]/J", "next hunk"),
	),
	PrevHunk: key.NewBinding(
		key.WithKeys("[", "K"),
		key.WithHelp("[/K", "prev hunk"),
	),
	Approve: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "approve hunk"),
	),
	Reject: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reject hunk"),
	),
	Save: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "save hunk for later"),
	),
	Clear: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "clear hunk status"),
	),
	ApproveFile: key.NewBinding(
		key.WithKeys("A"),
		key.WithHelp("A", "approve file"),
	),
	Identical: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "approve identical hunks"),
	),
	MovePair: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "approve move pair"),
	),
	Trust: key.NewBinding(
		key.WithKeys("T"),
		key.WithHelp("T", "trust pattern"),
	),
	Classify: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "classify hunks"),
	),
	Group: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "group hunks"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "unified/split"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// helpOrder is the order of bindings on the help screen.
func (k keyMap) helpOrder() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.NextFile, k.PrevFile, k.NextHunk, k.PrevHunk,
		k.Approve, k.Reject, k.Save, k.Clear, k.ApproveFile, k.Identical, k.MovePair,
		k.Trust, k.Classify, k.Group, k.Toggle, k.Help, k.Quit,
	}
}
