package backendtest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type dormRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (s *Server) getDorm(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dormID, ok := s.memberOf[callerID(c)]
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, s.renderDormLocked(s.dorms[dormID]))
}

func (s *Server) createDorm(c *gin.Context) {
	var body dormRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		jsonErrors(c, http.StatusBadRequest, []string{"name is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := callerID(c)
	if _, ok := s.memberOf[id]; ok {
		jsonError(c, http.StatusConflict, "User already belongs to a dorm")
		return
	}

	d := &dormRecord{
		id:      s.newIDLocked(),
		name:    name,
		code:    s.newCodeLocked(),
		members: []int64{id},
	}
	s.dorms[d.id] = d
	s.codes[d.code] = d.id
	s.memberOf[id] = d.id

	c.JSON(http.StatusCreated, s.renderDormLocked(d))
}

func (s *Server) joinDorm(c *gin.Context) {
	var body dormRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(body.Code))

	s.mu.Lock()
	defer s.mu.Unlock()

	dormID, ok := s.codes[code]
	if !ok {
		jsonError(c, http.StatusNotFound, "Dorm with code "+code+" not found")
		return
	}

	id := callerID(c)
	if current, ok := s.memberOf[id]; ok && current != dormID {
		jsonError(c, http.StatusConflict, "User already belongs to a dorm")
		return
	}

	d := s.dorms[dormID]
	if !containsID(d.members, id) {
		d.members = append(d.members, id)
	}
	s.memberOf[id] = dormID
	c.JSON(http.StatusOK, s.renderDormLocked(d))
}

func (s *Server) leaveDorm(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := callerID(c)
	dormID, ok := s.memberOf[id]
	if !ok {
		jsonError(c, http.StatusNotFound, "User is not part of a dorm")
		return
	}

	d := s.dorms[dormID]
	d.members = removeID(d.members, id)
	delete(s.memberOf, id)
	c.JSON(http.StatusOK, s.renderDormLocked(d))
}

// newCodeLocked returns an unused six character join code.
func (s *Server) newCodeLocked() string {
	for {
		code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
		if _, taken := s.codes[code]; !taken {
			return code
		}
	}
}

// dormByCodeLocked resolves a code and checks the caller is a member.
func (s *Server) dormByCodeLocked(c *gin.Context, code string) (*dormRecord, bool) {
	dormID, ok := s.codes[strings.ToUpper(code)]
	if !ok {
		jsonError(c, http.StatusNotFound, "Dorm with code "+code+" not found")
		return nil, false
	}
	d := s.dorms[dormID]
	if !containsID(d.members, callerID(c)) {
		jsonError(c, http.StatusForbidden, "User is not a member of this dorm")
		return nil, false
	}
	return d, true
}
