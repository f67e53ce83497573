package backendtest

import (
	"context"
	"sort"

	"github.com/mmynk/kotconnect/internal/models"
)

// The render helpers build wire models. Callers hold s.mu.

func (s *Server) userLocked(id int64) (models.User, bool) {
	account, err := s.accounts.GetAccountByID(context.Background(), id)
	if err != nil {
		return models.User{}, false
	}
	return account.User(), true
}

func (s *Server) usersLocked(ids []int64) []models.User {
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.userLocked(id); ok {
			users = append(users, u)
		}
	}
	return users
}

func (s *Server) renderTaskLocked(t *taskRecord) models.Task {
	id := t.id
	task := models.Task{
		ID:          &id,
		Title:       t.title,
		Date:        t.date,
		Type:        models.TaskType(t.taskType),
		Description: t.description,
		Done:        t.done,
	}
	if d, ok := s.dorms[t.dormID]; ok {
		task.KotAddress = d.name
	}
	if u, ok := s.userLocked(t.assignee); ok {
		task.AssignedUser = &u
	}
	return task
}

func (s *Server) renderEventLocked(e *eventRecord) models.Event {
	event := models.Event{
		ID:           e.id,
		Name:         e.name,
		Date:         e.date,
		Location:     e.location,
		Description:  e.description,
		Done:         e.done,
		Participants: s.usersLocked(e.participants),
	}
	if d, ok := s.dorms[e.dormID]; ok {
		event.KotAddress = d.name
	}
	if u, ok := s.userLocked(e.organizer); ok {
		event.Organizer = &u
	}
	return event
}

func (s *Server) renderDormLocked(d *dormRecord) models.Dorm {
	dorm := models.Dorm{
		ID:     d.id,
		Name:   d.name,
		Code:   d.code,
		Users:  s.usersLocked(d.members),
		Tasks:  make([]models.Task, 0, len(d.tasks)),
		Events: make([]models.Event, 0, len(d.events)),
	}
	for _, id := range d.tasks {
		dorm.Tasks = append(dorm.Tasks, s.renderTaskLocked(s.tasks[id]))
	}
	for _, id := range d.events {
		dorm.Events = append(dorm.Events, s.renderEventLocked(s.events[id]))
	}
	return dorm
}

func (s *Server) renderShareLocked(sh *shareRecord) models.ExpenseShare {
	id := sh.id
	share := models.ExpenseShare{ID: &id, Amount: sh.amount, Paid: sh.paid}
	if u, ok := s.userLocked(sh.userID); ok {
		share.User = &u
	}
	return share
}

func (s *Server) renderExpenseLocked(e *expenseRecord) models.Expense {
	id := e.id
	expense := models.Expense{
		ID:          &id,
		Title:       e.title,
		TotalAmount: e.total,
		Shares:      make([]models.ExpenseShare, 0, len(e.shares)),
	}
	if u, ok := s.userLocked(e.creator); ok {
		expense.Creator = &u
	}
	if d, ok := s.dorms[e.dormID]; ok {
		// Only the dorm's identity; the full dorm would recurse.
		expense.Dorm = &models.Dorm{ID: d.id, Name: d.name, Code: d.code}
	}
	for _, sh := range e.shares {
		expense.Shares = append(expense.Shares, s.renderShareLocked(sh))
	}
	return expense
}

func (s *Server) joinedEventsLocked(userID int64) []models.Event {
	var ids []int64
	for id, e := range s.events {
		if containsID(e.participants, userID) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	events := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		events = append(events, s.renderEventLocked(s.events[id]))
	}
	return events
}
