package models

// Session is the locally persisted authentication state. A nil *Session means
// logged out; a non-nil one always has a non-empty Token.
type Session struct {
	Token         string
	Username      string
	Email         string
	Geboortedatum string
	Locatie       string
	DormCode      string
}

// SessionFromAuth copies the fields of a successful login response.
func SessionFromAuth(r *AuthResponse) *Session {
	return &Session{
		Token:         r.Token,
		Username:      r.Username,
		Email:         r.Email,
		Geboortedatum: r.Geboortedatum,
		Locatie:       r.Locatie,
	}
}

// SessionUpdate is a partial session change. Nil fields are untouched; a
// pointer to "" clears the field.
type SessionUpdate struct {
	Token         *string
	Username      *string
	Email         *string
	Geboortedatum *string
	Locatie       *string
}

// Ptr returns a pointer to v, for building partial updates.
func Ptr[T any](v T) *T {
	return &v
}
