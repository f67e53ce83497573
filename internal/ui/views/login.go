package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmynk/kotconnect/internal/models"
	"github.com/mmynk/kotconnect/internal/ui/styles"
)

const (
	fieldUsername = iota
	fieldEmail
	fieldBirthDate
	fieldLocation
	fieldPassword
	fieldCount
)

// LoginView logs in or signs up.
type LoginView struct {
	env      *Env
	inputs   [fieldCount]textinput.Model
	signup   bool
	focusIdx int
	busy     bool
	spinner  spinner.Model
	err      error
	width    int
	height   int
}

// NewLoginView creates the login screen.
func NewLoginView(env *Env) *LoginView {
	placeholders := [fieldCount]string{
		fieldUsername:  "Username",
		fieldEmail:     "Email",
		fieldBirthDate: "Birth date (2001-12-31)",
		fieldLocation:  "Location",
		fieldPassword:  "Password",
	}

	v := &LoginView{env: env, spinner: spinner.New(spinner.WithSpinner(spinner.Dot))}
	for i := range v.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 100
		v.inputs[i] = in
	}
	v.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	v.inputs[fieldPassword].EchoCharacter = '•'
	if sess := env.App.Session.Current(); sess != nil {
		v.inputs[fieldUsername].SetValue(sess.Username)
	}
	v.inputs[fieldUsername].Focus()
	return v
}

// fields lists the visible inputs in tab order.
func (v *LoginView) fields() []int {
	if v.signup {
		return []int{fieldUsername, fieldEmail, fieldBirthDate, fieldLocation, fieldPassword}
	}
	return []int{fieldUsername, fieldPassword}
}

func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *LoginView) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		return v, nil

	case spinner.TickMsg:
		if !v.busy {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case doneMsg:
		v.busy = false
		v.err = msg.err
		if msg.err == nil {
			return v, send(LoggedIn{})
		}
		return v, nil

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit
		case key.Matches(msg, v.env.Keys.Switch):
			v.signup = !v.signup
			v.err = nil
			v.focus(0)
			return v, nil
		case msg.String() == "shift+tab" || msg.String() == "up":
			v.focus(v.focusIdx - 1)
			return v, nil
		case key.Matches(msg, v.env.Keys.Tab) || msg.String() == "down":
			v.focus(v.focusIdx + 1)
			return v, nil
		case key.Matches(msg, v.env.Keys.Enter):
			if v.focusIdx < len(v.fields())-1 {
				v.focus(v.focusIdx + 1)
				return v, nil
			}
			return v, v.submit()
		}
	}

	var cmd tea.Cmd
	idx := v.fields()[v.focusIdx]
	v.inputs[idx], cmd = v.inputs[idx].Update(msg)
	return v, cmd
}

func (v *LoginView) focus(i int) {
	n := len(v.fields())
	v.focusIdx = (i + n) % n
	for j := range v.inputs {
		v.inputs[j].Blur()
	}
	v.inputs[v.fields()[v.focusIdx]].Focus()
}

func (v *LoginView) value(field int) string {
	return strings.TrimSpace(v.inputs[field].Value())
}

func (v *LoginView) submit() tea.Cmd {
	v.busy = true
	v.err = nil
	a, ctx := v.env.App, v.env.Ctx
	username, password := v.value(fieldUsername), v.inputs[fieldPassword].Value()

	if !v.signup {
		return tea.Batch(v.spinner.Tick, run("login", func() error {
			return a.Login(ctx, username, password)
		}))
	}

	input := models.SignupInput{
		Username:      username,
		Email:         v.value(fieldEmail),
		Geboortedatum: v.value(fieldBirthDate),
		Locatie:       v.value(fieldLocation),
		Password:      password,
	}
	return tea.Batch(v.spinner.Tick, run("signup", func() error {
		created, err := a.Signup(ctx, input)
		if err != nil {
			return err
		}
		if created.Token == "" {
			return a.Login(ctx, username, password)
		}
		return nil
	}))
}

func (v *LoginView) View() string {
	s := v.env.Styles
	inputWidth := clamp(styles.ContentWidth(v.width)-6, 20, 50)

	title := "Log in to KotConnect"
	if v.signup {
		title = "Create a KotConnect account"
	}

	blocks := []string{s.Title.Render(title), ""}
	for i, field := range v.fields() {
		style := s.Input
		if i == v.focusIdx {
			style = s.InputFocused
		}
		blocks = append(blocks, style.Width(inputWidth).Render(v.inputs[field].View()))
	}

	status := ""
	if v.busy {
		status = v.spinner.View() + " Contacting server..."
	}
	blocks = append(blocks, "", renderStatus(s, status, v.err))

	switchHint := "create account"
	if v.signup {
		switchHint = "log in instead"
	}
	blocks = append(blocks, renderHelp(s, [][2]string{
		{"tab", "next"}, {"↵", "submit"}, {"ctrl+n", switchHint}, {"ctrl+c", "quit"},
	}))

	form := lipgloss.JoinVertical(lipgloss.Left, blocks...)
	centered := lipgloss.Place(styles.ContentWidth(v.width), v.height, lipgloss.Center, lipgloss.Center, form)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *LoginView) Close() {}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
