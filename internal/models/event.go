package models

// Event is a dorm activity. A user participates iff their username is in
// Participants; joining and leaving go through a single toggle call.
type Event struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Date         string `json:"date"`
	Location     string `json:"location,omitempty"`
	Description  string `json:"description,omitempty"`
	KotAddress   string `json:"kotAddress,omitempty"`
	Organizer    *User  `json:"organizer,omitempty"`
	Done         bool   `json:"done,omitempty"`
	Participants []User `json:"participants,omitempty"`
}

// EventInput is the create-event payload.
type EventInput struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Description string `json:"description"`
}
