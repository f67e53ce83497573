// Package ui is the terminal front end.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmynk/kotconnect/internal/session"
	"github.com/mmynk/kotconnect/internal/ui/views"
)

// App is the root model. Screens form a stack: home stays underneath the
// event, expense, creator and profile screens so its subscription keeps
// running.
type App struct {
	env    *views.Env
	stack  []views.Screen
	width  int
	height int
}

// NewApp starts on the home screen when a session was restored, on the login
// screen otherwise.
func NewApp(env *views.Env) *App {
	a := &App{env: env}
	if env.App.Session.State() == session.LoggedIn {
		a.stack = []views.Screen{views.NewHomeView(env)}
	} else {
		a.stack = []views.Screen{views.NewLoginView(env)}
	}
	return a
}

func (a *App) top() views.Screen {
	return a.stack[len(a.stack)-1]
}

func (a *App) sized() tea.Cmd {
	w, h := a.width, a.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	}
}

// push opens a screen on top of the stack.
func (a *App) push(s views.Screen) tea.Cmd {
	a.stack = append(a.stack, s)
	return tea.Batch(s.Init(), a.sized())
}

// reset closes every screen and starts over with s.
func (a *App) reset(s views.Screen) tea.Cmd {
	for _, old := range a.stack {
		old.Close()
	}
	a.stack = nil
	return a.push(s)
}

func (a *App) Init() tea.Cmd {
	return a.top().Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, a.broadcast(msg)

	case tea.FocusMsg:
		a.env.App.Focus()
		return a, nil

	case views.LoggedIn:
		return a, a.reset(views.NewHomeView(a.env))

	case views.LoggedOut:
		return a, a.reset(views.NewLoginView(a.env))

	case views.OpenEvent:
		return a, a.push(views.NewEventView(a.env, msg.ID))

	case views.OpenExpenses:
		return a, a.push(views.NewExpensesView(a.env, msg.Dorm))

	case views.OpenExpenseForm:
		return a, a.push(views.NewExpenseFormView(a.env, msg.Dorm))

	case views.OpenCreator:
		return a, a.push(views.NewCreatorView(a.env, msg.Day))

	case views.OpenProfile:
		return a, a.push(views.NewProfileView(a.env))

	case views.Back:
		if len(a.stack) > 1 {
			a.top().Close()
			a.stack = a.stack[:len(a.stack)-1]
		}
		return a, nil
	}

	if views.IsSubscriptionUpdate(msg) {
		return a, a.broadcast(msg)
	}

	next, cmd := a.top().Update(msg)
	a.stack[len(a.stack)-1] = next
	return a, cmd
}

// broadcast hands msg to every screen on the stack. Subscription updates
// belong to whichever screen opened the subscription, not only the top one.
func (a *App) broadcast(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(a.stack))
	for i, s := range a.stack {
		next, cmd := s.Update(msg)
		a.stack[i] = next
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (a *App) View() string {
	return a.top().View()
}

// Close releases every open screen.
func (a *App) Close() {
	for _, s := range a.stack {
		s.Close()
	}
	a.stack = nil
}
