package backendtest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/kotconnect/internal/auth"
	"github.com/mmynk/kotconnect/internal/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) signup(c *gin.Context) {
	var input models.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(input); err != nil {
		jsonErrors(c, http.StatusBadRequest, validationMessages(err))
		return
	}

	account, token, err := s.Register(c.Request.Context(), input)
	switch {
	case errors.Is(err, auth.ErrUsernameExists):
		jsonError(c, http.StatusConflict, "Username "+input.Username+" is already taken")
		return
	case errors.Is(err, auth.ErrWeakPassword):
		jsonErrors(c, http.StatusBadRequest, []string{err.Error()})
		return
	case err != nil:
		jsonError(c, http.StatusInternalServerError, "could not create account")
		return
	}

	id := account.ID
	c.JSON(http.StatusCreated, models.SignupUser{
		ID:            &id,
		Token:         token,
		Username:      account.Username,
		Email:         account.Email,
		Geboortedatum: account.Geboortedatum,
		Locatie:       account.Locatie,
	})
}

func (s *Server) login(c *gin.Context) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := s.authn.Authenticate(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, err := s.jwt.Generate(account)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "could not issue token")
		return
	}

	c.JSON(http.StatusOK, authResponse("Login successful", token, account))
}

func (s *Server) ping(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.userLocked(callerID(c))
	if !ok {
		jsonError(c, http.StatusNotFound, "user not found")
		return
	}
	user.JoinedEvents = s.joinedEventsLocked(callerID(c))
	c.JSON(http.StatusOK, user)
}

func (s *Server) updateMe(c *gin.Context) {
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := s.accounts.update(callerID(c), func(a *auth.Account) error {
		if update.Username != nil {
			name := strings.TrimSpace(*update.Username)
			if name == "" {
				return errors.New("username cannot be empty")
			}
			a.Username = name
		}
		if update.Email != nil {
			a.Email = *update.Email
		}
		if update.Geboortedatum != nil {
			a.Geboortedatum = *update.Geboortedatum
		}
		if update.Locatie != nil {
			a.Locatie = *update.Locatie
		}
		return nil
	})
	switch {
	case errors.Is(err, auth.ErrUsernameExists):
		jsonError(c, http.StatusConflict, "Username "+*update.Username+" is already taken")
		return
	case err != nil:
		jsonErrors(c, http.StatusBadRequest, []string{err.Error()})
		return
	}

	// The username is part of the token, so every update reissues it.
	token, err := s.jwt.Generate(account)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "could not issue token")
		return
	}
	c.JSON(http.StatusOK, authResponse("Profile updated", token, account))
}

func (s *Server) deleteMe(c *gin.Context) {
	id := callerID(c)

	s.mu.Lock()
	if dormID, ok := s.memberOf[id]; ok {
		d := s.dorms[dormID]
		d.members = removeID(d.members, id)
		delete(s.memberOf, id)
	}
	for _, e := range s.events {
		e.participants = removeID(e.participants, id)
	}
	s.mu.Unlock()

	s.accounts.delete(id)
	c.String(http.StatusOK, "User deleted")
}

func authResponse(message, token string, a *auth.Account) models.AuthResponse {
	return models.AuthResponse{
		Message:       message,
		Token:         token,
		Username:      a.Username,
		Email:         a.Email,
		Geboortedatum: a.Geboortedatum,
		Locatie:       a.Locatie,
	}
}

// validationMessages renders validator errors the way the backend's global
// exception handler does: one human-readable line per field.
func validationMessages(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return msgs
}
