package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmynk/kotconnect/internal/cache"
	"github.com/mmynk/kotconnect/internal/models"
	"github.com/mmynk/kotconnect/internal/ui/styles"
	vm "github.com/mmynk/kotconnect/internal/views"
)

type agendaItem struct {
	task  *models.Task
	event *models.Event
}

// HomeView shows the dorm agenda, or the join/create form when the user has
// no dorm yet.
type HomeView struct {
	env   *Env
	sub   *cache.Subscription
	state cache.State

	day    string
	cursor int

	code      textinput.Model
	name      textinput.Model
	formFocus int

	confirmLeave bool
	busy         bool
	status       string
	err          error
	width        int
	height       int
}

// NewHomeView subscribes to the dorm.
func NewHomeView(env *Env) *HomeView {
	code := textinput.New()
	code.Placeholder = "Dorm code"
	code.CharLimit = 12
	code.Focus()

	name := textinput.New()
	name.Placeholder = "New dorm name"
	name.CharLimit = 100

	sub := env.App.WatchDorm()
	return &HomeView{
		env:   env,
		sub:   sub,
		state: sub.State(),
		day:   vm.Today(env.Now()),
		code:  code,
		name:  name,
	}
}

func (v *HomeView) Init() tea.Cmd {
	return tea.Batch(watch(v.sub), textinput.Blink)
}

func (v *HomeView) Close() {
	v.sub.Close()
}

func (v *HomeView) dorm() *models.Dorm {
	d, _ := cache.Value[*models.Dorm](v.state)
	return d
}

// noDorm reports a loaded state without a dorm.
func (v *HomeView) noDorm() bool {
	_, ok := cache.Value[*models.Dorm](v.state)
	return ok && v.dorm() == nil
}

func (v *HomeView) agenda() []agendaItem {
	d := v.dorm()
	var items []agendaItem
	for _, t := range vm.TasksOn(d, v.day) {
		items = append(items, agendaItem{task: &t})
	}
	for _, e := range vm.EventsOn(d, v.day) {
		items = append(items, agendaItem{event: &e})
	}
	return items
}

func (v *HomeView) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		return v, nil

	case stateMsg:
		if msg.sub != v.sub {
			return v, nil
		}
		v.state = msg.state
		v.cursor = min(v.cursor, max(len(v.agenda())-1, 0))
		return v, watch(v.sub)

	case doneMsg:
		v.busy = false
		v.err = msg.err
		if msg.err != nil {
			return v, nil
		}
		switch msg.op {
		case "logout":
			return v, send(LoggedOut{})
		case "task":
			v.status = "Task updated"
		case "join", "create":
			v.status = "Welcome to your dorm"
			v.code.Reset()
			v.name.Reset()
		case "leave":
			v.status = "You left the dorm"
		}
		return v, nil

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		if v.confirmLeave {
			return v.updateConfirmLeave(msg)
		}
		if v.noDorm() {
			return v.updateForm(msg)
		}
		return v.updateAgenda(msg)
	}
	return v, nil
}

func (v *HomeView) updateConfirmLeave(msg tea.KeyMsg) (Screen, tea.Cmd) {
	v.confirmLeave = false
	switch msg.String() {
	case "y", "Y":
		v.busy = true
		a, ctx := v.env.App, v.env.Ctx
		return v, run("leave", func() error { return a.LeaveDorm(ctx) })
	}
	return v, nil
}

func (v *HomeView) updateForm(msg tea.KeyMsg) (Screen, tea.Cmd) {
	a, ctx := v.env.App, v.env.Ctx
	switch {
	case msg.String() == "ctrl+c":
		return v, tea.Quit
	case key.Matches(msg, v.env.Keys.Back):
		v.busy = true
		return v, run("logout", func() error { a.Logout(ctx); return nil })
	case key.Matches(msg, v.env.Keys.Tab), msg.String() == "shift+tab":
		v.formFocus = 1 - v.formFocus
		v.code.Blur()
		v.name.Blur()
		if v.formFocus == 0 {
			v.code.Focus()
		} else {
			v.name.Focus()
		}
		return v, nil
	case key.Matches(msg, v.env.Keys.Enter):
		v.err, v.status = nil, ""
		if v.formFocus == 0 {
			code := strings.ToUpper(strings.TrimSpace(v.code.Value()))
			v.busy = true
			return v, run("join", func() error { _, err := a.JoinDorm(ctx, code); return err })
		}
		name := strings.TrimSpace(v.name.Value())
		v.busy = true
		return v, run("create", func() error { _, err := a.CreateDorm(ctx, name); return err })
	}

	var cmd tea.Cmd
	if v.formFocus == 0 {
		v.code, cmd = v.code.Update(msg)
	} else {
		v.name, cmd = v.name.Update(msg)
	}
	return v, cmd
}

func (v *HomeView) updateAgenda(msg tea.KeyMsg) (Screen, tea.Cmd) {
	a, ctx, k := v.env.App, v.env.Ctx, v.env.Keys
	items := v.agenda()

	switch {
	case key.Matches(msg, k.Quit):
		return v, tea.Quit
	case key.Matches(msg, k.Left):
		v.day, v.cursor = vm.ShiftDay(v.day, -1), 0
	case key.Matches(msg, k.Right):
		v.day, v.cursor = vm.ShiftDay(v.day, 1), 0
	case key.Matches(msg, k.Up):
		v.cursor = max(v.cursor-1, 0)
	case key.Matches(msg, k.Down):
		v.cursor = min(v.cursor+1, max(len(items)-1, 0))
	case msg.String() == "t":
		v.day, v.cursor = vm.Today(v.env.Now()), 0
	case key.Matches(msg, k.Enter), key.Matches(msg, k.Toggle):
		if v.cursor >= len(items) {
			return v, nil
		}
		item := items[v.cursor]
		if item.event != nil {
			return v, send(OpenEvent{ID: item.event.ID})
		}
		if item.task.ID == nil {
			return v, nil
		}
		id := *item.task.ID
		v.busy, v.err, v.status = true, nil, ""
		return v, run("task", func() error { _, err := a.CompleteTask(ctx, id); return err })
	case key.Matches(msg, k.Expenses) && v.dorm() != nil:
		return v, send(OpenExpenses{Dorm: v.dorm()})
	case key.Matches(msg, k.New) && v.dorm() != nil:
		return v, send(OpenExpenseForm{Dorm: v.dorm()})
	case key.Matches(msg, k.Create) && v.dorm() != nil:
		return v, send(OpenCreator{Day: v.day})
	case key.Matches(msg, k.Profile):
		return v, send(OpenProfile{})
	case key.Matches(msg, k.Refresh):
		return v, run("refresh", func() error { return a.RefreshDorm(ctx) })
	case key.Matches(msg, k.Leave):
		if v.dorm() != nil {
			v.confirmLeave = true
		}
	case key.Matches(msg, k.Logout):
		v.busy = true
		return v, run("logout", func() error { a.Logout(ctx); return nil })
	}
	return v, nil
}

func (v *HomeView) View() string {
	s := v.env.Styles

	switch {
	case v.confirmLeave:
		return page(v.width, v.height,
			s.Title.Foreground(styles.Current.Error).Render("Leave this dorm?"),
			"",
			s.ButtonPrimary.Render(" Y - Yes ")+"  "+s.Button.Render(" N - No "),
		)
	case v.noDorm():
		return v.renderForm()
	case v.dorm() == nil:
		if v.state.Err != nil {
			return page(v.width, v.height,
				renderStatus(s, "", v.state.Err),
				renderHelp(s, [][2]string{{"r", "retry"}, {"O", "log out"}, {"q", "quit"}}),
			)
		}
		return s.TitleMuted.Render("Loading your dorm...")
	}
	return v.renderAgenda()
}

func (v *HomeView) renderForm() string {
	s := v.env.Styles
	width := clamp(styles.ContentWidth(v.width)-6, 20, 40)

	codeStyle, nameStyle := s.InputFocused, s.Input
	if v.formFocus == 1 {
		codeStyle, nameStyle = s.Input, s.InputFocused
	}

	return page(v.width, v.height,
		s.Title.Render("You are not in a dorm yet"),
		s.TitleMuted.Render("Join with a code from a roommate, or start a new dorm."),
		"",
		"Join:",
		codeStyle.Width(width).Render(v.code.View()),
		"Create:",
		nameStyle.Width(width).Render(v.name.View()),
		renderStatus(s, v.status, v.err),
		renderHelp(s, [][2]string{{"tab", "switch"}, {"↵", "submit"}, {"esc", "log out"}}),
	)
}

func (v *HomeView) renderAgenda() string {
	s := v.env.Styles
	d := v.dorm()

	header := fmt.Sprintf("%s %s", s.Title.Render(d.Name), s.Badge.Render(d.Code))
	if v.state.IsValidating {
		header += s.TitleMuted.Render("  syncing...")
	}

	label, err := vm.DayLabel(v.day)
	if err != nil {
		label = v.day
	}

	var lines []string
	items := v.agenda()
	if len(items) == 0 {
		lines = append(lines, s.TitleMuted.Render("  Nothing planned"))
	}
	for i, item := range items {
		style := s.ListItem
		if i == v.cursor {
			style = s.ListSelected
		}
		lines = append(lines, style.Render(v.itemLine(item)))
	}

	var upcoming []string
	for _, day := range vm.MarkedDays(vm.MarkedDates(d, v.day)) {
		if day > v.day && len(upcoming) < 5 {
			if l, err := vm.DayLabel(day); err == nil {
				upcoming = append(upcoming, "  "+l)
			}
		}
	}
	upcomingBlock := ""
	if len(upcoming) > 0 {
		upcomingBlock = s.Subtitle.Render("Coming up") + "\n" + strings.Join(upcoming, "\n")
	}

	k := v.env.Keys
	return page(v.width, v.height,
		header,
		s.TitleMuted.Render(fmt.Sprintf("%d members • logged in as %s", len(d.Users), username(v.env))),
		s.Subtitle.Render("◀ "+label+" ▶"),
		strings.Join(lines, "\n"),
		upcomingBlock,
		renderStatus(s, v.status, firstErr(v.err, v.state.Err)),
		renderHelp(s, [][2]string{
			{"←/→", "day"}, {"↵", "toggle/open"},
			{k.Expenses.Help().Key, "expenses"}, {k.New.Help().Key, "new expense"},
			{k.Create.Help().Key, "new task/event"}, {k.Profile.Help().Key, "profile"},
			{"L", "leave"}, {"O", "log out"}, {"q", "quit"},
		}),
	)
}

func (v *HomeView) itemLine(item agendaItem) string {
	s := v.env.Styles
	if item.task != nil {
		t := item.task
		check := "[ ]"
		title := t.Title
		if t.Done {
			check = "[x]"
			title = s.Done.Render(title)
		}
		who := ""
		if t.AssignedUser != nil {
			who = " · " + t.AssignedUser.Username
		}
		return fmt.Sprintf("%s %s (%s)%s", check, title, strings.ToLower(string(t.Type)), who)
	}

	e := item.event
	mark := "◇"
	if vm.IsParticipating(e, username(v.env)) {
		mark = "◆"
	}
	when := ""
	if _, t, ok := strings.Cut(e.Date, "T"); ok && len(t) >= 5 {
		when = " " + t[:5]
	}
	return fmt.Sprintf("%s %s%s · %d going", mark, e.Name, when, len(e.Participants))
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
