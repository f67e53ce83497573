package views

import (
	"strings"
	"time"

	"github.com/mmynk/kotconnect/internal/models"
	"github.com/mmynk/kotconnect/internal/service"
)

// TimeLayout is the clock time accepted by the creator.
const TimeLayout = "15:04"

// CreatorKind selects what the creator makes.
type CreatorKind int

const (
	CreatorEvent CreatorKind = iota
	CreatorTask
)

func (k CreatorKind) String() string {
	if k == CreatorTask {
		return "Task"
	}
	return "Event"
}

// CreatorForm is the state of the task and event creator. Fields that only
// one kind uses are ignored by the other.
type CreatorForm struct {
	Kind CreatorKind
	// Name is the event name or the task title.
	Name        string
	Date        string
	Time        string
	Location    string
	Description string
	typeIndex   int
}

// NewCreatorForm starts an event on day.
func NewCreatorForm(day string) CreatorForm {
	return CreatorForm{Date: day}
}

// ToggleKind switches between event and task, keeping the shared fields.
func (f *CreatorForm) ToggleKind() {
	if f.Kind == CreatorEvent {
		f.Kind = CreatorTask
	} else {
		f.Kind = CreatorEvent
	}
}

// Type is the selected task category.
func (f *CreatorForm) Type() models.TaskType {
	return models.TaskTypes[f.typeIndex]
}

// CycleType moves the category selection by n, wrapping around.
func (f *CreatorForm) CycleType(n int) {
	count := len(models.TaskTypes)
	f.typeIndex = ((f.typeIndex+n)%count + count) % count
}

// Validate checks the fields the selected kind sends.
func (f *CreatorForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		if f.Kind == CreatorTask {
			return &service.ValidationError{Field: "title", Err: service.ErrMissingTitle}
		}
		return &service.ValidationError{Field: "name", Err: service.ErrMissingName}
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(f.Date)); err != nil {
		return &service.ValidationError{Field: "date", Err: service.ErrInvalidDate}
	}
	if f.Kind == CreatorEvent && strings.TrimSpace(f.Time) != "" {
		if _, err := time.Parse(TimeLayout, strings.TrimSpace(f.Time)); err != nil {
			return &service.ValidationError{Field: "time", Err: service.ErrInvalidTime}
		}
	}
	return nil
}

// TaskInput is the create-task payload. Call Validate first.
func (f *CreatorForm) TaskInput() models.TaskInput {
	return models.TaskInput{
		Title:       strings.TrimSpace(f.Name),
		Date:        strings.TrimSpace(f.Date),
		Type:        f.Type(),
		Description: strings.TrimSpace(f.Description),
	}
}

// EventInput is the create-event payload. A time turns the date into a
// local timestamp such as 2025-03-14T20:30:00.
func (f *CreatorForm) EventInput() models.EventInput {
	date := strings.TrimSpace(f.Date)
	if t := strings.TrimSpace(f.Time); t != "" {
		date += "T" + t + ":00"
	}
	return models.EventInput{
		Name:        strings.TrimSpace(f.Name),
		Date:        date,
		Location:    strings.TrimSpace(f.Location),
		Description: strings.TrimSpace(f.Description),
	}
}
