package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmynk/kotconnect/internal/cache"
	"github.com/mmynk/kotconnect/internal/models"
	vm "github.com/mmynk/kotconnect/internal/views"
)

// EventView shows one event and lets the user join or leave it.
type EventView struct {
	env    *Env
	id     int64
	sub    *cache.Subscription
	state  cache.State
	busy   bool
	status string
	err    error
	width  int
	height int
}

// NewEventView subscribes to event id.
func NewEventView(env *Env, id int64) *EventView {
	sub := env.App.WatchEvent(id)
	return &EventView{env: env, id: id, sub: sub, state: sub.State()}
}

func (v *EventView) Init() tea.Cmd {
	return watch(v.sub)
}

func (v *EventView) Close() {
	v.sub.Close()
}

func (v *EventView) event() *models.Event {
	e, _ := cache.Value[*models.Event](v.state)
	return e
}

func (v *EventView) Update(msg tea.Msg) (Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height

	case stateMsg:
		if msg.sub != v.sub {
			return v, nil
		}
		v.state = msg.state
		return v, watch(v.sub)

	case doneMsg:
		v.busy = false
		v.err = msg.err
		if msg.err == nil && msg.op == "participate" {
			if vm.IsParticipating(v.event(), username(v.env)) {
				v.status = "You are going"
			} else {
				v.status = "You left the event"
			}
		}

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		k := v.env.Keys
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit
		case key.Matches(msg, k.Back), msg.String() == "q":
			return v, send(Back{})
		case key.Matches(msg, k.Enter), key.Matches(msg, k.Toggle):
			if v.event() == nil {
				return v, nil
			}
			v.busy, v.err, v.status = true, nil, ""
			a, ctx, id := v.env.App, v.env.Ctx, v.id
			return v, run("participate", func() error {
				_, err := a.ToggleEventParticipation(ctx, id)
				return err
			})
		}
	}
	return v, nil
}

func (v *EventView) View() string {
	s := v.env.Styles
	e := v.event()
	if e == nil {
		if v.state.Err != nil {
			return page(v.width, v.height, renderStatus(s, "", v.state.Err),
				renderHelp(s, [][2]string{{"esc", "back"}}))
		}
		return s.TitleMuted.Render("Loading event...")
	}

	var details []string
	if day, t, ok := strings.Cut(e.Date, "T"); ok {
		label, err := vm.DayLabel(day)
		if err != nil {
			label = day
		}
		details = append(details, fmt.Sprintf("When:  %s %s", label, strings.TrimSuffix(t, ":00")))
	} else if e.Date != "" {
		details = append(details, "When:  "+e.Date)
	}
	if e.Location != "" {
		details = append(details, "Where: "+e.Location)
	}
	if e.Organizer != nil {
		details = append(details, "By:    "+e.Organizer.Username)
	}

	going := make([]string, 0, len(e.Participants))
	for _, p := range e.Participants {
		going = append(going, "  • "+p.Username)
	}
	if len(going) == 0 {
		going = append(going, s.TitleMuted.Render("  Nobody yet"))
	}

	action := vm.ParticipationAction(e, username(v.env))
	return page(v.width, v.height,
		s.Title.Render(e.Name),
		strings.Join(details, "\n"),
		e.Description,
		s.Subtitle.Render(fmt.Sprintf("Going (%d)", len(e.Participants))),
		strings.Join(going, "\n"),
		s.ButtonPrimary.Render(" "+action+" "),
		renderStatus(s, v.status, firstErr(v.err, v.state.Err)),
		renderHelp(s, [][2]string{{"↵", strings.ToLower(action)}, {"esc", "back"}}),
	)
}
