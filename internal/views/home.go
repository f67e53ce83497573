// Package views holds the screen logic that does not depend on a terminal:
// filtering the dorm agenda by day, the expense form, and share lookups.
package views

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mmynk/kotconnect/internal/models"
)

// DateLayout is the ISO calendar day used to select a day.
const DateLayout = "2006-01-02"

// Today returns now as a calendar day.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// TasksOn returns the dorm's tasks whose date starts with day.
func TasksOn(d *models.Dorm, day string) []models.Task {
	if d == nil || day == "" {
		return nil
	}
	var out []models.Task
	for _, t := range d.Tasks {
		if strings.HasPrefix(t.Date, day) {
			out = append(out, t)
		}
	}
	return out
}

// EventsOn returns the dorm's events whose date starts with day.
func EventsOn(d *models.Dorm, day string) []models.Event {
	if d == nil || day == "" {
		return nil
	}
	var out []models.Event
	for _, e := range d.Events {
		if strings.HasPrefix(e.Date, day) {
			out = append(out, e)
		}
	}
	return out
}

// DayMark describes one calendar day.
type DayMark struct {
	HasTasks  bool
	HasEvents bool
	Selected  bool
}

// Marked reports whether anything is scheduled that day.
func (m DayMark) Marked() bool {
	return m.HasTasks || m.HasEvents
}

// MarkedDates maps each day with a task or event to its mark. The selected
// day is always present.
func MarkedDates(d *models.Dorm, selected string) map[string]DayMark {
	marks := make(map[string]DayMark)
	if d != nil {
		for _, t := range d.Tasks {
			if t.Date == "" {
				continue
			}
			m := marks[dayOf(t.Date)]
			m.HasTasks = true
			marks[dayOf(t.Date)] = m
		}
		for _, e := range d.Events {
			if e.Date == "" {
				continue
			}
			m := marks[dayOf(e.Date)]
			m.HasEvents = true
			marks[dayOf(e.Date)] = m
		}
	}

	m := marks[selected]
	m.Selected = true
	marks[selected] = m
	return marks
}

// MarkedDays returns the keys of marks that have something scheduled, sorted.
func MarkedDays(marks map[string]DayMark) []string {
	var days []string
	for day, m := range marks {
		if m.Marked() {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days
}

// dayOf strips the time part of an ISO timestamp.
func dayOf(date string) string {
	day, _, _ := strings.Cut(date, "T")
	return day
}

// DayLabel formats a calendar day as "Monday 3 March".
func DayLabel(day string) (string, error) {
	t, err := time.Parse(DateLayout, day)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", day, err)
	}
	return fmt.Sprintf("%s %d %s", t.Weekday(), t.Day(), t.Month()), nil
}

// ShiftDay moves a calendar day by n days. An invalid day is returned as is.
func ShiftDay(day string, n int) string {
	t, err := time.Parse(DateLayout, day)
	if err != nil {
		return day
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}
