package backendtest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/kotconnect/internal/models"
)

func (s *Server) createEvent(c *gin.Context) {
	var input models.EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	var problems []string
	if strings.TrimSpace(input.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(input.Date) == "" {
		problems = append(problems, "date is required")
	}
	if len(problems) > 0 {
		jsonErrors(c, http.StatusBadRequest, problems)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dormByCodeLocked(c, c.Param("dormCode"))
	if !ok {
		return
	}

	e := &eventRecord{
		id:          s.newIDLocked(),
		dormID:      d.id,
		name:        strings.TrimSpace(input.Name),
		date:        input.Date,
		location:    input.Location,
		description: input.Description,
		organizer:   callerID(c),
	}
	s.events[e.id] = e
	d.events = append(d.events, e.id)

	c.JSON(http.StatusCreated, s.renderEventLocked(e))
}

func (s *Server) toggleEvent(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.eventLocked(c)
	if !ok {
		return
	}

	id := callerID(c)
	if containsID(e.participants, id) {
		e.participants = removeID(e.participants, id)
	} else {
		e.participants = append(e.participants, id)
	}
	c.JSON(http.StatusOK, s.renderEventLocked(e))
}

func (s *Server) getEvent(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.eventLocked(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.renderEventLocked(e))
}

func (s *Server) eventLocked(c *gin.Context) (*eventRecord, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid event id")
		return nil, false
	}
	e, ok := s.events[id]
	if !ok {
		jsonError(c, http.StatusNotFound, "Event not found")
		return nil, false
	}
	if s.memberOf[callerID(c)] != e.dormID {
		jsonError(c, http.StatusForbidden, "User is not a member of this dorm")
		return nil, false
	}
	return e, true
}

func (s *Server) createTask(c *gin.Context) {
	var input models.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	var problems []string
	if strings.TrimSpace(input.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !input.Type.Valid() {
		problems = append(problems, "type is invalid")
	}
	if len(problems) > 0 {
		jsonErrors(c, http.StatusBadRequest, problems)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dormByCodeLocked(c, c.Param("dormCode"))
	if !ok {
		return
	}

	t := &taskRecord{
		id:          s.newIDLocked(),
		dormID:      d.id,
		title:       strings.TrimSpace(input.Title),
		date:        input.Date,
		taskType:    string(input.Type),
		description: input.Description,
		assignee:    callerID(c),
	}
	s.tasks[t.id] = t
	d.tasks = append(d.tasks, t.id)

	c.JSON(http.StatusCreated, s.renderTaskLocked(t))
}

func (s *Server) toggleTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid task id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		jsonError(c, http.StatusNotFound, "Task not found")
		return
	}
	if s.memberOf[callerID(c)] != t.dormID {
		jsonError(c, http.StatusForbidden, "User is not a member of this dorm")
		return
	}

	t.done = !t.done
	c.JSON(http.StatusOK, s.renderTaskLocked(t))
}
