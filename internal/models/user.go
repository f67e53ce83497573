package models

// User is a member profile as returned by the backend.
type User struct {
	ID            *int64  `json:"id,omitempty"`
	Username      string  `json:"username,omitempty"`
	Email         string  `json:"email,omitempty"`
	Geboortedatum string  `json:"geboortedatum,omitempty"`
	Locatie       string  `json:"locatie,omitempty"`
	JoinedEvents  []Event `json:"joinedEvents,omitempty"`
}

// UserID returns the user's ID and whether the backend sent one.
func (u *User) UserID() (int64, bool) {
	if u == nil || u.ID == nil {
		return 0, false
	}
	return *u.ID, true
}

// AuthResponse is the body of the login, signup and profile update endpoints.
// Every field is optional; login is only successful when Token is non-empty.
type AuthResponse struct {
	Message       string `json:"message,omitempty"`
	Token         string `json:"token,omitempty"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
	Geboortedatum string `json:"geboortedatum,omitempty"`
	Locatie       string `json:"locatie,omitempty"`
}

// SignupInput is the registration payload.
type SignupInput struct {
	Username      string `json:"username" validate:"required,min=3,max=50"`
	Email         string `json:"email" validate:"required,email"`
	Geboortedatum string `json:"geboortedatum" validate:"required,datetime=2006-01-02"`
	Locatie       string `json:"locatie" validate:"required"`
	Password      string `json:"password" validate:"required,min=6"`
}

// SignupUser is the created account. Some backend versions also log the new
// user in and include a token; callers decide whether to chain a login.
type SignupUser struct {
	ID            *int64 `json:"id,omitempty"`
	Token         string `json:"token,omitempty"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
	Geboortedatum string `json:"geboortedatum,omitempty"`
	Locatie       string `json:"locatie,omitempty"`
}

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	Username      *string `json:"username,omitempty"`
	Email         *string `json:"email,omitempty"`
	Geboortedatum *string `json:"geboortedatum,omitempty"`
	Locatie       *string `json:"locatie,omitempty"`
}
