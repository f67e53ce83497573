package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/kotconnect/internal/api"
	"github.com/mmynk/kotconnect/internal/app"
	"github.com/mmynk/kotconnect/internal/backendtest"
	"github.com/mmynk/kotconnect/internal/cache"
	"github.com/mmynk/kotconnect/internal/config"
	"github.com/mmynk/kotconnect/internal/models"
	"github.com/mmynk/kotconnect/internal/service"
	"github.com/mmynk/kotconnect/internal/ui/keys"
	"github.com/mmynk/kotconnect/internal/ui/styles"
)

func newEnv(t *testing.T) (*Env, *backendtest.Server) {
	t.Helper()
	backend, url := backendtest.Start(t)

	cfg := config.Default()
	cfg.APIBase = url
	cfg.Platform = config.PlatformWeb
	cfg.DataDir = t.TempDir()

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return &Env{
		Ctx:    context.Background(),
		App:    a,
		Styles: styles.NewStyles(),
		Keys:   keys.DefaultKeyMap(),
		Now:    time.Now,
	}, backend
}

func register(t *testing.T, backend *backendtest.Server, name string) {
	t.Helper()
	_, _, err := backend.Register(context.Background(), models.SignupInput{
		Username: name, Email: name + "@example.com", Geboortedatum: "2001-02-03", Locatie: "Leuven", Password: "secret1",
	})
	require.NoError(t, err)
}

// findDone runs cmd, expanding batches, and returns the first doneMsg.
func findDone(t *testing.T, cmd tea.Cmd) doneMsg {
	t.Helper()
	require.NotNil(t, cmd)
	switch msg := cmd().(type) {
	case doneMsg:
		return msg
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if done, ok := c().(doneMsg); ok {
				return done
			}
		}
	}
	t.Fatal("no doneMsg produced")
	return doneMsg{}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unauthorized", &api.RequestError{StatusCode: 401, Message: "Invalid token"}, "Your session is no longer valid. Log out (O) and log in again."},
		{"request error", fmt.Errorf("join: %w", &api.RequestError{StatusCode: 404, Message: "Dorm with code NOPE00 not found"}), "Dorm with code NOPE00 not found"},
		{"validation", &service.ValidationError{Field: "title", Err: service.ErrMissingTitle}, service.ErrMissingTitle.Error()},
		{"invalid response", fmt.Errorf("decode: %w", service.ErrInvalidResponse), "The server sent an unexpected response."},
		{"timeout", context.DeadlineExceeded, "The server did not respond in time."},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorText(tt.err))
		})
	}
}

func TestLoginView_Submit(t *testing.T) {
	env, backend := newEnv(t)
	register(t, backend, "nathan")

	v := NewLoginView(env)
	v.inputs[fieldUsername].SetValue("nathan")
	v.inputs[fieldPassword].SetValue("secret1")
	v.focus(1)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	done := findDone(t, cmd)
	require.NoError(t, done.err)

	_, cmd = v.Update(done)
	require.NotNil(t, cmd)
	assert.Equal(t, LoggedIn{}, cmd())
	assert.Equal(t, "nathan", env.App.Session.Current().Username)
}

func TestLoginView_WrongPassword(t *testing.T) {
	env, backend := newEnv(t)
	register(t, backend, "nathan")

	v := NewLoginView(env)
	v.inputs[fieldUsername].SetValue("nathan")
	v.inputs[fieldPassword].SetValue("nope")
	v.focus(1)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	done := findDone(t, cmd)
	_, cmd = v.Update(done)

	assert.Nil(t, cmd)
	assert.Error(t, v.err)
	assert.False(t, v.busy)
}

func TestLoginView_EnterMovesFocusFirst(t *testing.T) {
	env, _ := newEnv(t)
	v := NewLoginView(env)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, v.focusIdx)
	assert.False(t, v.busy)

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.True(t, v.signup)
	assert.Len(t, v.fields(), 5)
	assert.Equal(t, 0, v.focusIdx)
}

func TestHomeView_IgnoresOtherSubscriptions(t *testing.T) {
	env, backend := newEnv(t)
	register(t, backend, "nathan")
	require.NoError(t, env.App.Login(env.Ctx, "nathan", "secret1"))

	v := NewHomeView(env)
	defer v.Close()
	other := env.App.WatchDorm()
	defer other.Close()

	_, cmd := v.Update(stateMsg{sub: other, state: cache.State{Data: &models.Dorm{Name: "Elsewhere"}}})
	assert.Nil(t, cmd)
	assert.NotEqual(t, "Elsewhere", dormName(v.dorm()))

	_, cmd = v.Update(stateMsg{sub: v.sub, state: cache.State{Data: &models.Dorm{Name: "Kot Tiensestraat", Code: "KOT42"}}})
	assert.NotNil(t, cmd, "the watch loop continues")
	assert.Equal(t, "Kot Tiensestraat", dormName(v.dorm()))
	assert.Contains(t, v.View(), "KOT42")
}

func TestHomeView_NoDormShowsForm(t *testing.T) {
	env, backend := newEnv(t)
	register(t, backend, "nathan")
	require.NoError(t, env.App.Login(env.Ctx, "nathan", "secret1"))

	v := NewHomeView(env)
	defer v.Close()

	v.Update(stateMsg{sub: v.sub, state: cache.State{Data: (*models.Dorm)(nil)}})
	assert.True(t, v.noDorm())
	assert.Contains(t, v.View(), "You are not in a dorm yet")

	v.name.SetValue("Kot Tiensestraat")
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	done := findDone(t, cmd)
	require.NoError(t, done.err)
	assert.Equal(t, "create", done.op)

	dorm, err := env.App.Dorm(env.Ctx)
	require.NoError(t, err)
	require.NotNil(t, dorm)
	assert.Equal(t, "Kot Tiensestraat", dorm.Name)
}

func TestExpenseFormView_ValidatesBeforeSending(t *testing.T) {
	env, backend := newEnv(t)
	dorm := &models.Dorm{ID: 1, Name: "Kot", Users: []models.User{
		{ID: models.Ptr(int64(1)), Username: "nathan"},
		{ID: models.Ptr(int64(2)), Username: "lotte"},
	}}

	v := NewExpenseFormView(env, dorm)
	assert.Equal(t, []int64{1, 2}, v.form.Selected, "every member starts selected")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.ErrorIs(t, v.err, service.ErrMissingTitle)

	v.form.Title = "Groceries"
	v.form.Amount = "abc"
	v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.ErrorIs(t, v.err, service.ErrInvalidAmount)

	v.form.Amount = "12,50"
	assert.True(t, strings.Contains(v.View(), "€6.25 each"))

	assert.Zero(t, backend.Hits("POST /expenses/:dormCode"))
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loggedInEnv(t *testing.T, name string) (*Env, *backendtest.Server) {
	t.Helper()
	env, backend := newEnv(t)
	register(t, backend, name)
	require.NoError(t, env.App.Login(env.Ctx, name, "secret1"))
	return env, backend
}

func TestHomeView_OpensCreatorAndProfile(t *testing.T) {
	env, _ := loggedInEnv(t, "nathan")
	v := NewHomeView(env)
	defer v.Close()
	v.Update(stateMsg{sub: v.sub, state: cache.State{Data: &models.Dorm{Name: "Kot", Code: "KOT42"}}})

	_, cmd := v.Update(keyRunes("c"))
	require.NotNil(t, cmd)
	assert.Equal(t, OpenCreator{Day: v.day}, cmd())

	_, cmd = v.Update(keyRunes("P"))
	require.NotNil(t, cmd)
	assert.Equal(t, OpenProfile{}, cmd())
}

func TestCreatorView_CreatesTask(t *testing.T) {
	env, backend := loggedInEnv(t, "nathan")
	_, err := env.App.CreateDorm(env.Ctx, "Kot")
	require.NoError(t, err)

	v := NewCreatorView(env, "2025-03-14")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.ErrorIs(t, v.err, service.ErrMissingName)
	assert.Zero(t, backend.Hits("POST /events/:dormCode"))

	v.setFocus(creatorKind)
	v.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.Contains(t, v.View(), "New Task")

	v.inputs[creatorName].SetValue("Trash")
	v.setFocus(creatorType)
	v.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, models.TaskTrash, v.form.Type())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	done := findDone(t, cmd)
	require.NoError(t, done.err)
	assert.Equal(t, 1, backend.Hits("POST /tasks/:dormCode"))

	_, cmd = v.Update(done)
	require.NotNil(t, cmd)
	assert.Equal(t, Back{}, cmd())

	dorm, err := env.App.Dorm(env.Ctx)
	require.NoError(t, err)
	require.NotNil(t, dorm)
	require.Len(t, dorm.Tasks, 1)
	assert.Equal(t, "Trash", dorm.Tasks[0].Title)
	assert.Equal(t, models.TaskTrash, dorm.Tasks[0].Type)
}

func TestCreatorView_CreatesEvent(t *testing.T) {
	env, backend := loggedInEnv(t, "nathan")
	_, err := env.App.CreateDorm(env.Ctx, "Kot")
	require.NoError(t, err)

	v := NewCreatorView(env, "2025-03-14")
	v.inputs[creatorName].SetValue("Quiz")
	v.inputs[creatorTime].SetValue("8pm")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.ErrorIs(t, v.err, service.ErrInvalidTime)

	v.inputs[creatorTime].SetValue("20:30")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	done := findDone(t, cmd)
	require.NoError(t, done.err)
	assert.Equal(t, 1, backend.Hits("POST /events/:dormCode"))

	dorm, err := env.App.Dorm(env.Ctx)
	require.NoError(t, err)
	require.Len(t, dorm.Events, 1)
	assert.Equal(t, "2025-03-14T20:30:00", dorm.Events[0].Date)
}

func TestProfileView_SavesChanges(t *testing.T) {
	env, backend := loggedInEnv(t, "nathan")
	v := NewProfileView(env)
	defer v.Close()

	profile, err := env.App.Profile(env.Ctx)
	require.NoError(t, err)
	v.Update(stateMsg{sub: v.sub, state: cache.State{Data: profile}})
	assert.Equal(t, "Leuven", v.inputs[profileLocation].Value())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing to save", v.status)

	v.inputs[profileLocation].SetValue("Gent")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	done := findDone(t, cmd)
	require.NoError(t, done.err)
	assert.Equal(t, "save", done.op)
	assert.Equal(t, 1, backend.Hits("PUT /users/me"))

	v.Update(done)
	assert.Equal(t, "Profile saved", v.status)
	saved, err := env.App.Profile(env.Ctx)
	require.NoError(t, err)
	assert.Equal(t, "Gent", saved.Locatie)
}

func TestProfileView_DeleteAccount(t *testing.T) {
	env, _ := loggedInEnv(t, "nathan")
	v := NewProfileView(env)
	defer v.Close()

	v.setFocus(profileDelete)
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, v.View(), "Delete your account?")

	_, cmd := v.Update(keyRunes("n"))
	assert.Nil(t, cmd, "anything but y cancels")
	assert.NotEmpty(t, env.App.Session.Token())

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd = v.Update(keyRunes("y"))
	done := findDone(t, cmd)
	require.NoError(t, done.err)
	assert.Empty(t, env.App.Session.Token())

	_, cmd = v.Update(done)
	require.NotNil(t, cmd)
	assert.Equal(t, LoggedOut{}, cmd())

	err := env.App.Login(env.Ctx, "nathan", "secret1")
	assert.True(t, api.IsUnauthorized(err), "the account is gone")
}

func TestExpensesView_BalancesFromApp(t *testing.T) {
	env, _ := loggedInEnv(t, "nathan")
	dorm, err := env.App.CreateDorm(env.Ctx, "Kot")
	require.NoError(t, err)
	profile, err := env.App.Profile(env.Ctx)
	require.NoError(t, err)
	self, ok := profile.UserID()
	require.True(t, ok)
	_, err = env.App.CreateExpense(env.Ctx, "Groceries", 30, []int64{self})
	require.NoError(t, err)

	v := NewExpensesView(env, dorm)
	defer v.Close()

	_, cmd := v.Update(keyRunes("b"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(balancesMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	require.Len(t, msg.balances, 1)
	assert.Equal(t, "nathan", msg.balances[0].Username)

	v.Update(msg)
	assert.Contains(t, v.renderBalances(), "Everyone is even")
}

func dormName(d *models.Dorm) string {
	if d == nil {
		return ""
	}
	return d.Name
}
