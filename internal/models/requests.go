package models

// SubscriberIn is the request shape for registering a subscriber.
type SubscriberIn struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Name     *string `json:"name"`
	Level    int     `json:"level"`
	Timezone *int    `json:"timezone"`
}

// SubscriberPatch carries a partial subscriber update; nil fields are left
// untouched.
type SubscriberPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Level    *int    `json:"level"`
	Timezone *int    `json:"timezone"`
}

// CalendarIn is the request shape for linking a calendar connection.
type CalendarIn struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// CalendarPatch carries a partial calendar update; nil fields are left
// untouched.
type CalendarPatch struct {
	Title    *string `json:"title"`
	URL      *string `json:"url"`
	User     *string `json:"user"`
	Password *string `json:"password"`
}

// AppointmentIn is the request shape for publishing an appointment with its
// slots.
type AppointmentIn struct {
	Appointment Appointment `json:"appointment"`
	Slots       []Slot      `json:"slots"`
}

// EventIn is the request shape for creating a remote event with an
// attendee.
type EventIn struct {
	Event    Event    `json:"event"`
	Attendee Attendee `json:"attendee"`
}
