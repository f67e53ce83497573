package views

import "github.com/mmynk/kotconnect/internal/models"

// IsParticipating reports whether username is among the event's participants.
func IsParticipating(e *models.Event, username string) bool {
	if e == nil || username == "" {
		return false
	}
	for _, p := range e.Participants {
		if p.Username == username {
			return true
		}
	}
	return false
}

// ParticipationAction is the label of the toggle button.
func ParticipationAction(e *models.Event, username string) string {
	if IsParticipating(e, username) {
		return "Leave"
	}
	return "Join"
}
