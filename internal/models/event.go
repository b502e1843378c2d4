package models

// Event is the protocol-agnostic representation of a calendar event.
// It is the shape both read from and written to the remote server; the
// connector never returns anything richer.
type Event struct {
	Title       string `json:"title"`
	Start       string `json:"start"` // ISO-8601 date-time, as stringified by the connector
	End         string `json:"end"`
	Description string `json:"description"`
}

// Attendee is attached to an event at creation time only; events returned
// by a listing do not carry attendees.
type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CalendarConnection is one remote calendar as discovered on a server.
// It has no local identity until the caller persists it.
type CalendarConnection struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
}
