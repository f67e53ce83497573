// Package views holds the screens of the terminal UI. Each screen opens its
// cache subscriptions when it is created and closes them in Close; messages
// from a closed subscription are ignored.
package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmynk/kotconnect/internal/api"
	"github.com/mmynk/kotconnect/internal/app"
	"github.com/mmynk/kotconnect/internal/cache"
	"github.com/mmynk/kotconnect/internal/models"
	"github.com/mmynk/kotconnect/internal/service"
	"github.com/mmynk/kotconnect/internal/ui/keys"
	"github.com/mmynk/kotconnect/internal/ui/styles"
)

// Env is what every screen needs.
type Env struct {
	Ctx    context.Context
	App    *app.App
	Styles *styles.Styles
	Keys   keys.KeyMap
	Now    func() time.Time
}

// Screen is one page of the UI.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View() string
	// Close releases the screen's subscriptions.
	Close()
}

// Navigation messages, handled by the root model.
type (
	LoggedIn        struct{}
	LoggedOut       struct{}
	Back            struct{}
	OpenEvent       struct{ ID int64 }
	OpenExpenses    struct{ Dorm *models.Dorm }
	OpenExpenseForm struct{ Dorm *models.Dorm }
	// OpenCreator opens the task and event creator on Day.
	OpenCreator struct{ Day string }
	OpenProfile struct{}
)

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// stateMsg carries one update of a subscription.
type stateMsg struct {
	sub   *cache.Subscription
	state cache.State
}

// watch waits for the next update of sub. It returns nil for inert
// subscriptions; a closed subscription ends the loop.
func watch(sub *cache.Subscription) tea.Cmd {
	ch := sub.Updates()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg{sub: sub, state: st}
	}
}

// doneMsg reports the outcome of an action.
type doneMsg struct {
	op  string
	err error
}

// run executes an action off the UI goroutine.
func run(op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{op: op, err: fn()}
	}
}

// ErrorText is the message shown to the user for err.
func ErrorText(err error) string {
	var reqErr *api.RequestError
	var vErr *service.ValidationError
	switch {
	case err == nil:
		return ""
	case api.IsUnauthorized(err):
		return "Your session is no longer valid. Log out (O) and log in again."
	case errors.As(err, &reqErr):
		return reqErr.Message
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.Is(err, service.ErrInvalidResponse):
		return "The server sent an unexpected response."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server did not respond in time."
	}
	return err.Error()
}

func renderHelp(s *styles.Styles, pairs [][2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s %s", s.HelpKey.Render(p[0]), s.HelpDesc.Render(p[1])))
	}
	return s.Help.Render(strings.Join(parts, " • "))
}

func renderStatus(s *styles.Styles, status string, err error) string {
	if err != nil {
		return s.Error.Render(ErrorText(err))
	}
	if status != "" {
		return s.StatusBar.Render(status)
	}
	return ""
}

// page joins blocks vertically, skipping empty ones.
func page(width, height int, blocks ...string) string {
	var kept []string
	for _, b := range blocks {
		if b != "" {
			kept = append(kept, b)
		}
	}
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, kept...), width, height)
}

func username(env *Env) string {
	if sess := env.App.Session.Current(); sess != nil {
		return sess.Username
	}
	return ""
}

// IsSubscriptionUpdate reports whether msg carries a subscription state.
func IsSubscriptionUpdate(msg tea.Msg) bool {
	_, ok := msg.(stateMsg)
	return ok
}
