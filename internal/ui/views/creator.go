package views

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmynk/kotconnect/internal/ui/styles"
	vm "github.com/mmynk/kotconnect/internal/views"
)

const (
	creatorKind = iota
	creatorName
	creatorDate
	creatorTime
	creatorType
	creatorLocation
	creatorDescription
	creatorFieldCount
)

// CreatorView creates a task or an event in the user's dorm.
type CreatorView struct {
	env    *Env
	form   vm.CreatorForm
	inputs [creatorFieldCount]textinput.Model
	focus  int
	busy   bool
	err    error
	width  int
	height int
}

// NewCreatorView opens the creator with day as the date.
func NewCreatorView(env *Env, day string) *CreatorView {
	placeholders := map[int]string{
		creatorName:        "Name",
		creatorDate:        "Date (2025-03-14)",
		creatorTime:        "Time (20:30, optional)",
		creatorLocation:    "Location",
		creatorDescription: "Description",
	}
	v := &CreatorView{env: env, form: vm.NewCreatorForm(day)}
	for i, p := range placeholders {
		in := textinput.New()
		in.Placeholder = p
		in.CharLimit = 200
		v.inputs[i] = in
	}
	v.inputs[creatorDate].SetValue(day)
	v.inputs[creatorDate].CharLimit = 10
	v.inputs[creatorTime].CharLimit = 5
	v.setFocus(creatorName)
	return v
}

// fields lists the visible rows in tab order.
func (v *CreatorView) fields() []int {
	if v.form.Kind == vm.CreatorTask {
		return []int{creatorKind, creatorName, creatorDate, creatorType, creatorDescription}
	}
	return []int{creatorKind, creatorName, creatorDate, creatorTime, creatorLocation, creatorDescription}
}

func isText(field int) bool {
	return field != creatorKind && field != creatorType
}

func (v *CreatorView) setFocus(field int) {
	v.focus = field
	for i := range v.inputs {
		v.inputs[i].Blur()
	}
	if isText(field) {
		v.inputs[field].Focus()
	}
}

// move shifts the focus by n rows, wrapping around.
func (v *CreatorView) move(n int) {
	fields := v.fields()
	pos := 0
	for i, f := range fields {
		if f == v.focus {
			pos = i
		}
	}
	pos = (pos + n + len(fields)) % len(fields)
	v.setFocus(fields[pos])
}

func (v *CreatorView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *CreatorView) Close() {}

func (v *CreatorView) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		return v, nil

	case doneMsg:
		v.busy = false
		v.err = msg.err
		if msg.err == nil {
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
		case key.Matches(msg, k.Tab), msg.String() == "down":
			v.move(1)
			return v, nil
		case msg.String() == "shift+tab", msg.String() == "up":
			v.move(-1)
			return v, nil
		case key.Matches(msg, k.Enter):
			fields := v.fields()
			if v.focus == fields[len(fields)-1] {
				return v, v.submit()
			}
			v.move(1)
			return v, nil
		}

		if !isText(v.focus) {
			v.updateChoice(msg)
			return v, nil
		}
	}

	if !isText(v.focus) {
		return v, nil
	}
	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	v.sync()
	return v, cmd
}

// updateChoice handles the kind and category rows, which cycle instead of
// taking text.
func (v *CreatorView) updateChoice(msg tea.KeyMsg) {
	k := v.env.Keys
	step := 0
	switch {
	case key.Matches(msg, k.Left):
		step = -1
	case key.Matches(msg, k.Right), key.Matches(msg, k.Toggle):
		step = 1
	}
	if step == 0 {
		return
	}
	v.err = nil
	if v.focus == creatorKind {
		v.form.ToggleKind()
		return
	}
	v.form.CycleType(step)
}

func (v *CreatorView) sync() {
	v.form.Name = v.inputs[creatorName].Value()
	v.form.Date = v.inputs[creatorDate].Value()
	v.form.Time = v.inputs[creatorTime].Value()
	v.form.Location = v.inputs[creatorLocation].Value()
	v.form.Description = v.inputs[creatorDescription].Value()
}

func (v *CreatorView) submit() tea.Cmd {
	v.sync()
	if err := v.form.Validate(); err != nil {
		v.err = err
		return nil
	}

	v.busy, v.err = true, nil
	a, ctx := v.env.App, v.env.Ctx
	if v.form.Kind == vm.CreatorTask {
		input := v.form.TaskInput()
		return run("create", func() error {
			_, err := a.CreateTask(ctx, input)
			return err
		})
	}
	input := v.form.EventInput()
	return run("create", func() error {
		_, err := a.CreateEvent(ctx, input)
		return err
	})
}

func (v *CreatorView) View() string {
	s := v.env.Styles
	width := clamp(styles.ContentWidth(v.width)-6, 20, 40)

	style := func(field int) lipgloss.Style {
		if v.focus == field {
			return s.InputFocused
		}
		return s.Input
	}
	labels := map[int]string{
		creatorKind:        "Create",
		creatorName:        "Name",
		creatorDate:        "Date",
		creatorTime:        "Time",
		creatorType:        "Type",
		creatorLocation:    "Location",
		creatorDescription: "Description",
	}
	if v.form.Kind == vm.CreatorTask {
		labels[creatorName] = "Title"
	}

	blocks := []string{s.Title.Render("New " + v.form.Kind.String())}
	for _, f := range v.fields() {
		var row string
		switch f {
		case creatorKind:
			row = "◀ " + v.form.Kind.String() + " ▶"
		case creatorType:
			row = "◀ " + string(v.form.Type()) + " ▶"
		default:
			row = v.inputs[f].View()
		}
		blocks = append(blocks, labels[f], style(f).Width(width).Render(row))
	}

	return page(v.width, v.height, append(blocks,
		renderStatus(s, "", v.err),
		renderHelp(s, [][2]string{{"tab", "next"}, {"←/→", "change"}, {"ctrl+s", "save"}, {"esc", "cancel"}}),
	)...)
}
