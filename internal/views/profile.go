package views

import (
	"strings"
	"time"

	"github.com/mmynk/kotconnect/internal/models"
	"github.com/mmynk/kotconnect/internal/service"
)

// ProfileFields are the editable profile values as typed.
type ProfileFields struct {
	Username      string
	Email         string
	Geboortedatum string
	Locatie       string
}

// FieldsOf returns the current values of user.
func FieldsOf(user *models.User) ProfileFields {
	if user == nil {
		return ProfileFields{}
	}
	return ProfileFields{
		Username:      user.Username,
		Email:         user.Email,
		Geboortedatum: user.Geboortedatum,
		Locatie:       user.Locatie,
	}
}

// ProfileChanges returns the update that turns current into edited. Only
// changed, non-empty fields are sent; ok is false when nothing changed.
func ProfileChanges(current *models.User, edited ProfileFields) (update models.ProfileUpdate, ok bool, err error) {
	was := FieldsOf(current)
	for _, f := range []struct {
		old, new string
		dst      **string
	}{
		{was.Username, edited.Username, &update.Username},
		{was.Email, edited.Email, &update.Email},
		{was.Geboortedatum, edited.Geboortedatum, &update.Geboortedatum},
		{was.Locatie, edited.Locatie, &update.Locatie},
	} {
		v := strings.TrimSpace(f.new)
		if v == "" || v == f.old {
			continue
		}
		*f.dst = &v
		ok = true
	}
	if update.Geboortedatum != nil {
		if _, err := time.Parse(DateLayout, *update.Geboortedatum); err != nil {
			return models.ProfileUpdate{}, false, &service.ValidationError{Field: "geboortedatum", Err: service.ErrInvalidDate}
		}
	}
	return update, ok, nil
}
