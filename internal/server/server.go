// Package server is the REST surface of the scheduling backend: subscriber
// and calendar-connection management, appointment publishing, and the
// remote endpoints that talk to linked CalDAV calendars.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"appointd/internal/auth"
	"appointd/internal/database"
	"appointd/internal/models"
	"appointd/internal/remote"

	"github.com/gorilla/mux"
)

// RemoteSession is the connector surface the server needs. The factory
// seam lets tests run handlers against a fake session.
type RemoteSession interface {
	ListCalendars(ctx context.Context) ([]models.CalendarConnection, error)
	ListEvents(ctx context.Context, start, end string) ([]models.Event, error)
	CreateEvent(ctx context.Context, event models.Event, attendee models.Attendee) (models.Event, error)
	DeleteEvents(ctx context.Context, start string) (int, error)
}

// ConnectorFactory opens a remote session for the given credentials. A
// fresh session per request keeps one logical operation per session.
type ConnectorFactory func(url, user, password string) (RemoteSession, error)

// DefaultConnectorFactory connects to a real CalDAV server.
func DefaultConnectorFactory(logger *slog.Logger) ConnectorFactory {
	return func(url, user, password string) (RemoteSession, error) {
		return remote.New(logger, url, user, password)
	}
}

// Server holds the REST handler dependencies.
type Server struct {
	logger     *slog.Logger
	store      *database.Store
	auth       *auth.Resolver
	connect    ConnectorFactory
	corsOrigin string
}

// New creates a server over the given store. corsOrigin is the frontend
// origin allowed to call the API; empty disables CORS headers.
func New(logger *slog.Logger, store *database.Store, corsOrigin string, connect ConnectorFactory) *Server {
	return &Server{
		logger:     logger,
		store:      store,
		auth:       auth.NewResolver(logger, store),
		connect:    connect,
		corsOrigin: corsOrigin,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodGet)

	r.HandleFunc("/me", s.handleCreateMe).Methods(http.MethodPost)
	r.HandleFunc("/me", s.handleReadMe).Methods(http.MethodGet)
	r.HandleFunc("/me", s.handleUpdateMe).Methods(http.MethodPut)
	r.HandleFunc("/me/calendars", s.handleMyCalendars).Methods(http.MethodGet)
	r.HandleFunc("/me/appointments", s.handleMyAppointments).Methods(http.MethodGet)

	r.HandleFunc("/calendars", s.handleCreateCalendar).Methods(http.MethodPost)
	r.HandleFunc("/calendars/{id:[0-9]+}", s.handleReadCalendar).Methods(http.MethodGet)
	r.HandleFunc("/calendars/{id:[0-9]+}", s.handleUpdateCalendar).Methods(http.MethodPut)
	r.HandleFunc("/calendars/{id:[0-9]+}", s.handleDeleteCalendar).Methods(http.MethodDelete)

	r.HandleFunc("/appointments", s.handleCreateAppointment).Methods(http.MethodPost)

	r.HandleFunc("/rmt/calendars", s.handleRemoteCalendars).Methods(http.MethodPost)
	r.HandleFunc("/rmt/cal/{id:[0-9]+}/{start}/{end}", s.handleRemoteEvents).Methods(http.MethodGet)
	r.HandleFunc("/rmt/cal/{id:[0-9]+}", s.handleRemoteCreateEvent).Methods(http.MethodPut)
	r.HandleFunc("/rmt/cal/{id:[0-9]+}/{start}", s.handleRemoteDeleteEvents).Methods(http.MethodDelete)

	return s.logging(s.cors(r))
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("Starting HTTP server", "addr", addr)
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("Handling request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respond(w, status, errorResponse{Detail: detail})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
