package models

// Dorm is a shared household joined via a short code. A session belongs to at
// most one dorm.
type Dorm struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Code   string  `json:"code"`
	Users  []User  `json:"users"`
	Tasks  []Task  `json:"tasks"`
	Events []Event `json:"events"`
}

// Member returns the dorm member with the given username.
func (d *Dorm) Member(username string) (*User, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Users {
		if d.Users[i].Username == username {
			return &d.Users[i], true
		}
	}
	return nil, false
}
