// Package keys defines the key bindings shared by every screen.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Enter  key.Binding
	Toggle key.Binding
	Tab    key.Binding
	Back   key.Binding
	Save   key.Binding
	Quit   key.Binding

	New      key.Binding
	Create   key.Binding
	Profile  key.Binding
	Expenses key.Binding
	Balances key.Binding
	Paid     key.Binding
	Refresh  key.Binding
	Leave    key.Binding
	Logout   key.Binding
	Switch   key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous day")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next day")),
		Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("↵", "open")),
		Toggle: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Tab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new expense")),
		Create:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new task/event")),
		Profile:  key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "profile")),
		Expenses: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expenses")),
		Balances: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "balances")),
		Paid:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "mark paid")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Leave:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "leave dorm")),
		Logout:   key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "log out")),
		Switch:   key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "login/signup")),
	}
}

// Help renders "key desc" pairs for a help line.
func Help(bindings ...key.Binding) [][2]string {
	out := make([][2]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, [2]string{h.Key, h.Desc})
	}
	return out
}
