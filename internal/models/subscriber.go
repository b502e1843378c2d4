package models

// Subscriber is a local scheduling account that remote calendars are
// linked to.
type Subscriber struct {
	ID       int64   `json:"id" db:"id"`
	Username string  `json:"username" db:"username"`
	Email    string  `json:"email" db:"email"`
	Name     *string `json:"name" db:"name"`
	Level    int     `json:"level" db:"level"`
	Timezone *int    `json:"timezone" db:"timezone"`

	Calendars []Calendar `json:"calendars" db:"-"`
}

// Calendar is a persisted calendar connection owned by a subscriber.
type Calendar struct {
	ID       int64  `json:"id" db:"id"`
	OwnerID  int64  `json:"owner_id" db:"owner_id"`
	Title    string `json:"title" db:"title"`
	URL      string `json:"url" db:"url"`
	User     string `json:"user" db:"user"`
	Password string `json:"password" db:"password"`
}

// Appointment is a bookable entry published on top of a calendar.
type Appointment struct {
	ID         int64  `json:"id" db:"id"`
	CalendarID int64  `json:"calendar_id" db:"calendar_id"`
	Title      string `json:"title" db:"title"`
	Duration   int    `json:"duration" db:"duration"` // minutes

	Slots []Slot `json:"slots" db:"-"`
}

// Slot is one bookable time window of an appointment.
type Slot struct {
	ID            int64  `json:"id" db:"id"`
	AppointmentID int64  `json:"appointment_id" db:"appointment_id"`
	Start         string `json:"start" db:"start"` // ISO-8601 date-time
	Duration      int    `json:"duration" db:"duration"` // minutes
}
