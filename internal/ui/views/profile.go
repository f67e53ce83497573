package views

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmynk/kotconnect/internal/auth"
	"github.com/mmynk/kotconnect/internal/cache"
	"github.com/mmynk/kotconnect/internal/models"
	"github.com/mmynk/kotconnect/internal/ui/styles"
	vm "github.com/mmynk/kotconnect/internal/views"
)

const (
	profileUsername = iota
	profileEmail
	profileBirthDate
	profileLocation
	profileLogout
	profileDelete
	profileRowCount
)

// ProfileView edits the user's profile and holds the account settings.
type ProfileView struct {
	env    *Env
	sub    *cache.Subscription
	state  cache.State
	inputs [profileLocation + 1]textinput.Model
	// filled is set once the inputs hold the loaded profile.
	filled bool
	focus  int

	confirmDelete bool
	busy          bool
	status        string
	err           error
	width         int
	height        int
}

// NewProfileView subscribes to the profile.
func NewProfileView(env *Env) *ProfileView {
	placeholders := [...]string{
		profileUsername:  "Username",
		profileEmail:     "Email",
		profileBirthDate: "Birth date (2001-12-31)",
		profileLocation:  "Location",
	}
	sub := env.App.WatchProfile()
	v := &ProfileView{env: env, sub: sub, state: sub.State()}
	for i := range v.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 100
		v.inputs[i] = in
	}
	v.fill()
	v.setFocus(profileUsername)
	return v
}

func (v *ProfileView) Init() tea.Cmd {
	return tea.Batch(watch(v.sub), textinput.Blink)
}

func (v *ProfileView) Close() {
	v.sub.Close()
}

func (v *ProfileView) profile() *models.User {
	u, _ := cache.Value[*models.User](v.state)
	return u
}

// fill copies the loaded profile into the inputs once.
func (v *ProfileView) fill() {
	u := v.profile()
	if v.filled || u == nil {
		return
	}
	f := vm.FieldsOf(u)
	v.inputs[profileUsername].SetValue(f.Username)
	v.inputs[profileEmail].SetValue(f.Email)
	v.inputs[profileBirthDate].SetValue(f.Geboortedatum)
	v.inputs[profileLocation].SetValue(f.Locatie)
	v.filled = true
}

func (v *ProfileView) setFocus(row int) {
	v.focus = (row + profileRowCount) % profileRowCount
	for i := range v.inputs {
		v.inputs[i].Blur()
	}
	if v.focus < len(v.inputs) {
		v.inputs[v.focus].Focus()
	}
}

func (v *ProfileView) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		return v, nil

	case stateMsg:
		if msg.sub != v.sub {
			return v, nil
		}
		v.state = msg.state
		v.fill()
		return v, watch(v.sub)

	case doneMsg:
		v.busy = false
		v.err = msg.err
		if msg.err != nil {
			return v, nil
		}
		switch msg.op {
		case "save":
			v.status = "Profile saved"
		case "logout", "delete":
			return v, send(LoggedOut{})
		}
		return v, nil

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		if v.confirmDelete {
			return v.updateConfirmDelete(msg)
		}
		k := v.env.Keys
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit
		case key.Matches(msg, k.Back):
			return v, send(Back{})
		case key.Matches(msg, k.Save):
			return v, v.save()
		case key.Matches(msg, k.Tab), msg.String() == "down":
			v.setFocus(v.focus + 1)
			return v, nil
		case msg.String() == "shift+tab", msg.String() == "up":
			v.setFocus(v.focus - 1)
			return v, nil
		case key.Matches(msg, k.Enter):
			return v, v.activate()
		}
	}

	if v.focus >= len(v.inputs) {
		return v, nil
	}
	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return v, cmd
}

// activate runs the focused row: an input saves, the settings rows act.
func (v *ProfileView) activate() tea.Cmd {
	a, ctx := v.env.App, v.env.Ctx
	switch v.focus {
	case profileLogout:
		v.busy = true
		return run("logout", func() error { a.Logout(ctx); return nil })
	case profileDelete:
		v.confirmDelete = true
		return nil
	}
	return v.save()
}

func (v *ProfileView) updateConfirmDelete(msg tea.KeyMsg) (Screen, tea.Cmd) {
	v.confirmDelete = false
	switch msg.String() {
	case "y", "Y":
		v.busy, v.err, v.status = true, nil, ""
		a, ctx := v.env.App, v.env.Ctx
		return v, run("delete", func() error { return a.DeleteAccount(ctx) })
	}
	return v, nil
}

func (v *ProfileView) save() tea.Cmd {
	v.err, v.status = nil, ""
	update, ok, err := vm.ProfileChanges(v.profile(), vm.ProfileFields{
		Username:      v.inputs[profileUsername].Value(),
		Email:         v.inputs[profileEmail].Value(),
		Geboortedatum: v.inputs[profileBirthDate].Value(),
		Locatie:       v.inputs[profileLocation].Value(),
	})
	if err != nil {
		v.err = err
		return nil
	}
	if !ok {
		v.status = "Nothing to save"
		return nil
	}
	v.busy = true
	a, ctx := v.env.App, v.env.Ctx
	return run("save", func() error { return a.UpdateProfile(ctx, update) })
}

// sessionLine shows when the stored token runs out. Nothing is enforced
// here; the backend rejects expired tokens.
func (v *ProfileView) sessionLine() string {
	info, err := auth.Inspect(v.env.App.Session.Token())
	if err != nil || info.ExpiresAt.IsZero() {
		return ""
	}
	return "Session valid until " + info.ExpiresAt.Local().Format("2 Jan 2006 15:04")
}

func (v *ProfileView) View() string {
	s := v.env.Styles

	if v.confirmDelete {
		return page(v.width, v.height,
			s.Title.Foreground(styles.Current.Error).Render("Delete your account?"),
			s.TitleMuted.Render("This cannot be undone."),
			"",
			s.ButtonPrimary.Render(" Y - Yes ")+"  "+s.Button.Render(" N - No "),
		)
	}
	if v.profile() == nil {
		if v.state.Err != nil {
			return page(v.width, v.height,
				renderStatus(s, "", v.state.Err),
				renderHelp(s, [][2]string{{"esc", "back"}}),
			)
		}
		return s.TitleMuted.Render("Loading your profile...")
	}

	width := clamp(styles.ContentWidth(v.width)-6, 20, 40)
	labels := [...]string{"Username", "Email", "Birth date", "Location"}
	blocks := []string{s.Title.Render("Profile")}
	if line := v.sessionLine(); line != "" {
		blocks = append(blocks, s.TitleMuted.Render(line))
	}
	for i := range v.inputs {
		style := s.Input
		if i == v.focus {
			style = s.InputFocused
		}
		blocks = append(blocks, labels[i], style.Width(width).Render(v.inputs[i].View()))
	}

	button := func(row int, label string) string {
		if v.focus == row {
			return s.ButtonFocused.Render(label)
		}
		return s.Button.Render(label)
	}
	blocks = append(blocks,
		s.Subtitle.Render("Settings"),
		button(profileLogout, " Log out ")+"  "+button(profileDelete, " Delete account "),
		renderStatus(s, v.status, firstErr(v.err, v.state.Err)),
		renderHelp(s, [][2]string{{"tab", "next"}, {"ctrl+s", "save"}, {"↵", "select"}, {"esc", "back"}}),
	)
	return page(v.width, v.height, blocks...)
}
