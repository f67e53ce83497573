package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmynk/kotconnect/internal/models"
	"github.com/mmynk/kotconnect/internal/ui/styles"
	vm "github.com/mmynk/kotconnect/internal/views"
)

const (
	focusTitle = iota
	focusAmount
	focusMembers
)

// ExpenseFormView creates an expense split equally between selected members.
type ExpenseFormView struct {
	env    *Env
	dorm   *models.Dorm
	form   vm.ExpenseForm
	title  textinput.Model
	amount textinput.Model
	focus  int
	cursor int
	busy   bool
	err    error
	width  int
	height int
}

// NewExpenseFormView opens the form for dorm with every member selected.
func NewExpenseFormView(env *Env, dorm *models.Dorm) *ExpenseFormView {
	title := textinput.New()
	title.Placeholder = "What was it for?"
	title.CharLimit = 100
	title.Focus()

	amount := textinput.New()
	amount.Placeholder = "0.00"
	amount.CharLimit = 12

	v := &ExpenseFormView{env: env, dorm: dorm, title: title, amount: amount}
	for _, u := range dorm.Users {
		if id, ok := u.UserID(); ok {
			v.form.Toggle(id)
		}
	}
	return v
}

func (v *ExpenseFormView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *ExpenseFormView) Close() {}

func (v *ExpenseFormView) setFocus(i int) {
	v.focus = (i + 3) % 3
	v.title.Blur()
	v.amount.Blur()
	switch v.focus {
	case focusTitle:
		v.title.Focus()
	case focusAmount:
		v.amount.Focus()
	}
}

func (v *ExpenseFormView) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		return v, nil

	case doneMsg:
		v.busy = false
		v.err = msg.err
		if msg.err == nil {
			v.form.Reset()
			return v, send(Back{})
		}
		return v, nil

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		k := v.env.Keys
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit
		case key.Matches(msg, k.Back):
			return v, send(Back{})
		case key.Matches(msg, k.Save):
			return v, v.submit()
		case key.Matches(msg, k.Tab):
			v.setFocus(v.focus + 1)
			return v, nil
		case msg.String() == "shift+tab":
			v.setFocus(v.focus - 1)
			return v, nil
		}

		if v.focus == focusMembers {
			return v.updateMembers(msg)
		}
		if key.Matches(msg, k.Enter) {
			v.setFocus(v.focus + 1)
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.focus {
	case focusTitle:
		v.title, cmd = v.title.Update(msg)
		v.form.Title = v.title.Value()
	case focusAmount:
		v.amount, cmd = v.amount.Update(msg)
		v.form.Amount = v.amount.Value()
	}
	return v, cmd
}

func (v *ExpenseFormView) updateMembers(msg tea.KeyMsg) (Screen, tea.Cmd) {
	k := v.env.Keys
	switch {
	case key.Matches(msg, k.Up):
		v.cursor = max(v.cursor-1, 0)
	case key.Matches(msg, k.Down):
		v.cursor = min(v.cursor+1, max(len(v.dorm.Users)-1, 0))
	case key.Matches(msg, k.Toggle):
		if v.cursor < len(v.dorm.Users) {
			if id, ok := v.dorm.Users[v.cursor].UserID(); ok {
				v.form.Toggle(id)
			}
		}
	case key.Matches(msg, k.Enter):
		return v, v.submit()
	}
	return v, nil
}

func (v *ExpenseFormView) submit() tea.Cmd {
	if err := v.form.Validate(); err != nil {
		v.err = err
		return nil
	}
	amount, _ := v.form.ParsedAmount()
	title := strings.TrimSpace(v.form.Title)
	ids := append([]int64(nil), v.form.Selected...)

	v.busy, v.err = true, nil
	a, ctx := v.env.App, v.env.Ctx
	return run("create", func() error {
		_, err := a.CreateExpense(ctx, title, amount, ids)
		return err
	})
}

func (v *ExpenseFormView) View() string {
	s := v.env.Styles
	width := clamp(styles.ContentWidth(v.width)-6, 20, 40)

	inputStyle := func(focus int) lipgloss.Style {
		if v.focus == focus {
			return s.InputFocused
		}
		return s.Input
	}

	members := make([]string, 0, len(v.dorm.Users))
	for i, u := range v.dorm.Users {
		check := "[ ]"
		if id, ok := u.UserID(); ok && v.form.IsSelected(id) {
			check = "[x]"
		}
		style := s.ListItem
		if v.focus == focusMembers && i == v.cursor {
			style = s.ListSelected
		}
		members = append(members, style.Render(fmt.Sprintf("%s %s", check, u.Username)))
	}

	preview := s.TitleMuted.Render(v.form.SplitLabel())
	if p := v.form.Preview(); p != "" {
		preview += " · " + s.Amount.Render(p+" each")
	}

	return page(v.width, v.height,
		s.Title.Render("New expense · "+v.dorm.Name),
		"Title",
		inputStyle(focusTitle).Width(width).Render(v.title.View()),
		"Amount (€)",
		inputStyle(focusAmount).Width(width).Render(v.amount.View()),
		s.Subtitle.Render("Split between"),
		strings.Join(members, "\n"),
		preview,
		renderStatus(s, "", v.err),
		renderHelp(s, [][2]string{{"tab", "next"}, {"space", "toggle member"}, {"ctrl+s", "save"}, {"esc", "cancel"}}),
	)
}
