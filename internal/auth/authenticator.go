// Package auth holds account authentication for the in-memory backend and
// token inspection for the client.
package auth

import "github.com/mmynk/kotconnect/internal/models"

// Account is a registered user as the backend stores it.
type Account struct {
	ID            int64
	Username      string
	Email         string
	Geboortedatum string
	Locatie       string
	PasswordHash  string
}

// User returns the public view of the account.
func (a *Account) User() models.User {
	id := a.ID
	return models.User{
		ID:            &id,
		Username:      a.Username,
		Email:         a.Email,
		Geboortedatum: a.Geboortedatum,
		Locatie:       a.Locatie,
	}
}
