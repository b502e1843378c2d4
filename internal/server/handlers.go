package server

import (
	"errors"
	"net/http"
	"strconv"

	"appointd/internal/database"
	"appointd/internal/models"
	"appointd/internal/remote"

	"github.com/gorilla/mux"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	_, err := s.auth.Subscriber(r.Context())
	if err != nil {
		s.logger.Error("Failed to resolve subscriber", "error", err)
		s.respond(w, http.StatusOK, false)
		return
	}
	s.respond(w, http.StatusOK, true)
}

func (s *Server) handleCreateMe(w http.ResponseWriter, r *http.Request) {
	var in models.SubscriberIn
	if !s.decode(w, r, &in) {
		return
	}
	if _, err := s.store.GetSubscriberByEmail(r.Context(), in.Email); err == nil {
		s.respondError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if _, err := s.store.GetSubscriberByUsername(r.Context(), in.Username); err == nil {
		s.respondError(w, http.StatusBadRequest, "Username already registered")
		return
	}
	sub, err := s.store.CreateSubscriber(r.Context(), in)
	if err != nil {
		s.internalError(w, "Failed to create subscriber", err)
		return
	}
	s.respond(w, http.StatusOK, sub)
}

func (s *Server) handleReadMe(w http.ResponseWriter, r *http.Request) {
	sub, err := s.auth.Subscriber(r.Context())
	if err != nil {
		s.internalError(w, "Failed to resolve subscriber", err)
		return
	}
	s.respond(w, http.StatusOK, sub)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	sub, err := s.auth.Subscriber(r.Context())
	if err != nil {
		s.internalError(w, "Failed to resolve subscriber", err)
		return
	}
	var patch models.SubscriberPatch
	if !s.decode(w, r, &patch) {
		return
	}
	updated, err := s.store.UpdateSubscriber(r.Context(), sub.ID, patch)
	if err != nil {
		s.internalError(w, "Failed to update subscriber", err)
		return
	}
	s.respond(w, http.StatusOK, updated)
}

func (s *Server) handleMyCalendars(w http.ResponseWriter, r *http.Request) {
	sub, err := s.auth.Subscriber(r.Context())
	if err != nil {
		s.internalError(w, "Failed to resolve subscriber", err)
		return
	}
	calendars, err := s.store.GetCalendarsBySubscriber(r.Context(), sub.ID)
	if err != nil {
		s.internalError(w, "Failed to list calendars", err)
		return
	}
	s.respond(w, http.StatusOK, calendars)
}

func (s *Server) handleMyAppointments(w http.ResponseWriter, r *http.Request) {
	sub, err := s.auth.Subscriber(r.Context())
	if err != nil {
		s.internalError(w, "Failed to resolve subscriber", err)
		return
	}
	appointments, err := s.store.GetAppointmentsBySubscriber(r.Context(), sub.ID)
	if err != nil {
		s.internalError(w, "Failed to list appointments", err)
		return
	}
	s.respond(w, http.StatusOK, appointments)
}

func (s *Server) handleCreateCalendar(w http.ResponseWriter, r *http.Request) {
	sub, err := s.auth.Subscriber(r.Context())
	if err != nil {
		s.internalError(w, "Failed to resolve subscriber", err)
		return
	}
	var in models.CalendarIn
	if !s.decode(w, r, &in) {
		return
	}
	cal, err := s.store.CreateCalendar(r.Context(), sub.ID, in)
	if err != nil {
		s.internalError(w, "Failed to create calendar", err)
		return
	}
	s.respond(w, http.StatusOK, cal)
}

// ownedCalendar loads the calendar from the route id and enforces that the
// acting subscriber owns it; it writes the error response itself.
func (s *Server) ownedCalendar(w http.ResponseWriter, r *http.Request) (models.Calendar, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid calendar id")
		return models.Calendar{}, false
	}
	cal, err := s.store.GetCalendar(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Calendar not found")
		return models.Calendar{}, false
	}
	if err != nil {
		s.internalError(w, "Failed to get calendar", err)
		return models.Calendar{}, false
	}
	sub, err := s.auth.Subscriber(r.Context())
	if err != nil {
		s.internalError(w, "Failed to resolve subscriber", err)
		return models.Calendar{}, false
	}
	owned, err := s.store.CalendarIsOwned(r.Context(), cal.ID, sub.ID)
	if err != nil {
		s.internalError(w, "Failed to check calendar ownership", err)
		return models.Calendar{}, false
	}
	if !owned {
		s.respondError(w, http.StatusForbidden, "Calendar not owned by subscriber")
		return models.Calendar{}, false
	}
	return cal, true
}

func (s *Server) handleReadCalendar(w http.ResponseWriter, r *http.Request) {
	cal, ok := s.ownedCalendar(w, r)
	if !ok {
		return
	}
	s.respond(w, http.StatusOK, cal)
}

func (s *Server) handleUpdateCalendar(w http.ResponseWriter, r *http.Request) {
	cal, ok := s.ownedCalendar(w, r)
	if !ok {
		return
	}
	var patch models.CalendarPatch
	if !s.decode(w, r, &patch) {
		return
	}
	updated, err := s.store.UpdateCalendar(r.Context(), cal.ID, patch)
	if err != nil {
		s.internalError(w, "Failed to update calendar", err)
		return
	}
	s.respond(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCalendar(w http.ResponseWriter, r *http.Request) {
	cal, ok := s.ownedCalendar(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.DeleteCalendar(r.Context(), cal.ID)
	if err != nil {
		s.internalError(w, "Failed to delete calendar", err)
		return
	}
	s.respond(w, http.StatusOK, deleted)
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var in models.AppointmentIn
	if !s.decode(w, r, &in) {
		return
	}
	cal, err := s.store.GetCalendar(r.Context(), in.Appointment.CalendarID)
	if errors.Is(err, database.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Calendar not found")
		return
	}
	if err != nil {
		s.internalError(w, "Failed to get calendar", err)
		return
	}
	sub, err := s.auth.Subscriber(r.Context())
	if err != nil {
		s.internalError(w, "Failed to resolve subscriber", err)
		return
	}
	owned, err := s.store.CalendarIsOwned(r.Context(), cal.ID, sub.ID)
	if err != nil {
		s.internalError(w, "Failed to check calendar ownership", err)
		return
	}
	if !owned {
		s.respondError(w, http.StatusForbidden, "Calendar not owned by subscriber")
		return
	}
	appt, err := s.store.CreateAppointment(r.Context(), in.Appointment, in.Slots)
	if err != nil {
		s.internalError(w, "Failed to create appointment", err)
		return
	}
	s.respond(w, http.StatusOK, appt)
}

func (s *Server) handleRemoteCalendars(w http.ResponseWriter, r *http.Request) {
	var in models.CalendarIn
	if !s.decode(w, r, &in) {
		return
	}
	session, err := s.connect(in.URL, in.User, in.Password)
	if err != nil {
		s.remoteError(w, err)
		return
	}
	connections, err := session.ListCalendars(r.Context())
	if err != nil {
		s.remoteError(w, err)
		return
	}
	s.respond(w, http.StatusOK, connections)
}

func (s *Server) handleRemoteEvents(w http.ResponseWriter, r *http.Request) {
	cal, ok := s.ownedCalendar(w, r)
	if !ok {
		return
	}
	session, err := s.connect(cal.URL, cal.User, cal.Password)
	if err != nil {
		s.remoteError(w, err)
		return
	}
	vars := mux.Vars(r)
	events, err := session.ListEvents(r.Context(), vars["start"], vars["end"])
	if err != nil {
		s.remoteError(w, err)
		return
	}
	s.respond(w, http.StatusOK, events)
}

func (s *Server) handleRemoteCreateEvent(w http.ResponseWriter, r *http.Request) {
	cal, ok := s.ownedCalendar(w, r)
	if !ok {
		return
	}
	var in models.EventIn
	if !s.decode(w, r, &in) {
		return
	}
	session, err := s.connect(cal.URL, cal.User, cal.Password)
	if err != nil {
		s.remoteError(w, err)
		return
	}
	event, err := session.CreateEvent(r.Context(), in.Event, in.Attendee)
	if err != nil {
		s.remoteError(w, err)
		return
	}
	s.respond(w, http.StatusOK, event)
}

type deleteResponse struct {
	Count int `json:"count"`
}

func (s *Server) handleRemoteDeleteEvents(w http.ResponseWriter, r *http.Request) {
	cal, ok := s.ownedCalendar(w, r)
	if !ok {
		return
	}
	session, err := s.connect(cal.URL, cal.User, cal.Password)
	if err != nil {
		s.remoteError(w, err)
		return
	}
	count, err := session.DeleteEvents(r.Context(), mux.Vars(r)["start"])
	if err != nil {
		s.remoteError(w, err)
		return
	}
	s.respond(w, http.StatusOK, deleteResponse{Count: count})
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	s.respondError(w, http.StatusInternalServerError, msg)
}

// remoteError maps connector failures onto status codes: bad input is the
// client's fault, everything upstream is a bad gateway.
func (s *Server) remoteError(w http.ResponseWriter, err error) {
	var verr *remote.ValidationError
	if errors.As(err, &verr) {
		s.respondError(w, http.StatusBadRequest, verr.Error())
		return
	}
	var cerr *remote.RemoteConnectionError
	if errors.As(err, &cerr) {
		s.logger.Error("Remote calendar failure", "op", cerr.Op, "error", err)
		s.respondError(w, http.StatusBadGateway, "Remote calendar unavailable")
		return
	}
	var derr *remote.RemoteDataError
	if errors.As(err, &derr) {
		s.logger.Error("Remote calendar returned bad data", "error", err)
		s.respondError(w, http.StatusBadGateway, "Remote calendar returned unusable data")
		return
	}
	s.internalError(w, "Remote operation failed", err)
}
