package backendtest

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/kotconnect/internal/calculator"
	"github.com/mmynk/kotconnect/internal/models"
)

func (s *Server) listExpenses(c *gin.Context) {
	dormID, err := strconv.ParseInt(c.Query("dormId"), 10, 64)
	if err != nil {
		jsonError(c, http.StatusBadRequest, "dormId is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.memberOf[callerID(c)] != dormID {
		jsonError(c, http.StatusForbidden, "User is not a member of this dorm")
		return
	}

	var ids []int64
	for id, e := range s.expenses {
		if e.dormID == dormID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	expenses := make([]models.Expense, 0, len(ids))
	for _, id := range ids {
		expenses = append(expenses, s.renderExpenseLocked(s.expenses[id]))
	}
	c.JSON(http.StatusOK, expenses)
}

func (s *Server) createExpense(c *gin.Context) {
	var input models.ExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	var problems []string
	if strings.TrimSpace(input.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !(input.TotalAmount > 0) {
		problems = append(problems, "totalAmount must be positive")
	}
	if len(input.ParticipantIDs) == 0 {
		problems = append(problems, "participantIds must not be empty")
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
	for _, id := range input.ParticipantIDs {
		if !containsID(d.members, id) {
			jsonError(c, http.StatusBadRequest, "Participant "+strconv.FormatInt(id, 10)+" is not a member of this dorm")
			return
		}
	}

	shares, err := calculator.EqualSplit(input.TotalAmount, input.ParticipantIDs)
	if err != nil {
		if errors.Is(err, calculator.ErrDuplicateParticipant) {
			jsonErrors(c, http.StatusBadRequest, []string{"participantIds must be unique"})
			return
		}
		jsonErrors(c, http.StatusBadRequest, []string{err.Error()})
		return
	}

	e := &expenseRecord{
		id:      s.newIDLocked(),
		dormID:  d.id,
		title:   strings.TrimSpace(input.Title),
		total:   calculator.FromCents(calculator.ToCents(input.TotalAmount)),
		creator: callerID(c),
	}
	for _, sh := range shares {
		e.shares = append(e.shares, &shareRecord{
			id:     s.newIDLocked(),
			userID: sh.UserID,
			amount: sh.Amount,
		})
	}
	s.expenses[e.id] = e

	c.JSON(http.StatusCreated, s.renderExpenseLocked(e))
}

func (s *Server) markPaid(c *gin.Context) {
	expenseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid expense id")
		return
	}
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[expenseID]
	if !ok {
		jsonError(c, http.StatusNotFound, "Expense not found")
		return
	}
	if s.memberOf[callerID(c)] != e.dormID {
		jsonError(c, http.StatusForbidden, "User is not a member of this dorm")
		return
	}
	if userID != callerID(c) {
		jsonError(c, http.StatusForbidden, "You can only mark your own share as paid")
		return
	}

	for _, sh := range e.shares {
		if sh.userID == userID {
			sh.paid = true
			c.JSON(http.StatusOK, s.renderShareLocked(sh))
			return
		}
	}
	jsonError(c, http.StatusNotFound, "Share not found")
}
