// Package remote connects a scheduling account to a CalDAV server: it
// discovers the calendars visible to the authenticated principal, queries
// events in a date range, creates events with an attendee, and deletes
// events. No state is cached between calls; every operation re-resolves the
// remote calendar from the session URL.
package remote

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"appointd/internal/models"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
)

const dateFormat = "2006-01-02"

// basicAuthTransport adds Basic Auth and a User-Agent to every request.
type basicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "appointd/1.0")
	return t.Transport.RoundTrip(req)
}

// davBackend is the slice of the CalDAV client the connector uses.
// *caldav.Client satisfies it; tests substitute a fake so no wire-level
// server is needed.
type davBackend interface {
	FindCurrentUserPrincipal(ctx context.Context) (string, error)
	FindCalendarHomeSet(ctx context.Context, principal string) (string, error)
	FindCalendars(ctx context.Context, calendarHomeSet string) ([]caldav.Calendar, error)
	QueryCalendar(ctx context.Context, calendar string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error)
	PutCalendarObject(ctx context.Context, path string, cal *ical.Calendar) (*caldav.CalendarObject, error)
	RemoveAll(ctx context.Context, name string) error
}

// Connector is a session against one CalDAV server. It owns the credential
// triple and the transport handle for its lifetime and holds no other
// mutable state; callers must keep one logical operation in flight per
// session at a time.
type Connector struct {
	logger   *slog.Logger
	base     *url.URL
	user     string
	password string
	dav      davBackend
}

// New creates a connector session for the calendar at rawURL, authenticating
// as user/password. Credentials are not validated here; bad credentials
// surface as a RemoteConnectionError on first use.
func New(logger *slog.Logger, rawURL, user, password string) (*Connector, error) {
	base, err := url.Parse(rawURL)
	if err != nil || !base.IsAbs() {
		return nil, &ValidationError{Field: "url", Reason: "must be an absolute URL"}
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			Username:  user,
			Password:  password,
			Transport: http.DefaultTransport,
		},
	}
	client, err := caldav.NewClient(httpClient, rawURL)
	if err != nil {
		return nil, &RemoteConnectionError{Op: "session setup", Err: err}
	}

	return &Connector{
		logger:   logger,
		base:     base,
		user:     user,
		password: password,
		dav:      client,
	}, nil
}

// ListCalendars enumerates every calendar collection the authenticated
// principal can see, in the order the server returns them. Each connection
// inherits the session's credentials.
func (c *Connector) ListCalendars(ctx context.Context) ([]models.CalendarConnection, error) {
	principal, err := c.dav.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, &RemoteConnectionError{Op: "principal lookup", Err: err}
	}
	homeSet, err := c.dav.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, &RemoteConnectionError{Op: "calendar home set lookup", Err: err}
	}
	calendars, err := c.dav.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, &RemoteConnectionError{Op: "calendar listing", Err: err}
	}

	connections := make([]models.CalendarConnection, 0, len(calendars))
	for _, cal := range calendars {
		abs, err := c.absoluteURL(cal.Path)
		if err != nil {
			// One unusable entry must not abort the whole listing.
			c.logger.Warn("Skipping calendar with unusable path",
				"error", &RemoteDataError{Path: cal.Path, Reason: "unparseable calendar URL"})
			continue
		}
		title := cal.Name
		if title == "" {
			title = path.Base(cal.Path)
		}
		connections = append(connections, models.CalendarConnection{
			Title:    title,
			URL:      abs,
			User:     c.user,
			Password: c.password,
		})
	}
	return connections, nil
}

// ListEvents returns all event occurrences in [start, end) on the session's
// calendar. Bounds are YYYY-MM-DD date strings. Recurring events are
// materialized into their individual occurrences inside the range. An event
// the server returns but that cannot be translated is logged and skipped,
// never failing the whole call.
func (c *Connector) ListEvents(ctx context.Context, start, end string) ([]models.Event, error) {
	from, err := time.Parse(dateFormat, start)
	if err != nil {
		return nil, &ValidationError{Field: "start", Reason: "must be a YYYY-MM-DD date"}
	}
	to, err := time.Parse(dateFormat, end)
	if err != nil {
		return nil, &ValidationError{Field: "end", Reason: "must be a YYYY-MM-DD date"}
	}

	objects, err := c.dav.QueryCalendar(ctx, c.base.Path, eventRangeQuery(from, to))
	if err != nil {
		return nil, &RemoteConnectionError{Op: "event search", Err: err}
	}

	var events []models.Event
	for _, obj := range objects {
		if obj.Data == nil {
			c.logger.Warn("Skipping event object without calendar data",
				"error", &RemoteDataError{Path: obj.Path, Reason: "empty calendar data"})
			continue
		}
		for _, ev := range obj.Data.Events() {
			occurrences, err := expandOccurrences(ev, obj.Path, from, to)
			if err != nil {
				c.logger.Warn("Skipping untranslatable event", "error", err)
				continue
			}
			events = append(events, occurrences...)
		}
	}
	return events, nil
}

// CreateEvent creates one new event on the session's calendar and attaches
// the attendee to it in a second write. If the second write fails the event
// exists remotely without its attendee; the returned error says so, and the
// caller should retry the attendee step rather than recreate the event.
func (c *Connector) CreateEvent(ctx context.Context, event models.Event, attendee models.Attendee) (models.Event, error) {
	if event.Title == "" {
		return models.Event{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	dtstart, err := parseDateTime(event.Start)
	if err != nil {
		return models.Event{}, &ValidationError{Field: "start", Reason: "must be an ISO-8601 date-time"}
	}
	dtend, err := parseDateTime(event.End)
	if err != nil {
		return models.Event{}, &ValidationError{Field: "end", Reason: "must be an ISO-8601 date-time"}
	}
	if attendee.Email == "" {
		return models.Event{}, &ValidationError{Field: "email", Reason: "must not be empty"}
	}

	uid := uuid.New().String()
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, dtstart)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, dtend)
	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//appointd//EN")
	cal.Children = append(cal.Children, ve)

	objPath := path.Join(c.base.Path, uid+".ics")
	if _, err := c.dav.PutCalendarObject(ctx, objPath, cal); err != nil {
		return models.Event{}, &RemoteConnectionError{Op: "event creation", Err: err}
	}

	attProp := ical.NewProp(ical.PropAttendee)
	if attendee.Name != "" {
		attProp.Params.Set(ical.ParamCommonName, attendee.Name)
	}
	attProp.SetText("mailto:" + attendee.Email)
	ve.Props.Add(attProp)
	if _, err := c.dav.PutCalendarObject(ctx, objPath, cal); err != nil {
		return models.Event{}, &RemoteConnectionError{Op: "attendee attachment", Err: err}
	}

	return event, nil
}

// DeleteEvents deletes every event on the session's calendar whose
// stringified start begins with the given prefix and returns the count
// deleted. The prefix is matched against the same stringified form
// ListEvents returns, so a YYYY-MM-DD prefix selects that day. This is a
// literal string-prefix test, not a parsed-date comparison; see
// DeleteEventsInRange for the parsed alternative.
func (c *Connector) DeleteEvents(ctx context.Context, start string) (int, error) {
	if start == "" {
		return 0, &ValidationError{Field: "start", Reason: "must not be empty"}
	}

	objects, err := c.dav.QueryCalendar(ctx, c.base.Path, eventRangeQuery(time.Time{}, time.Time{}))
	if err != nil {
		return 0, &RemoteConnectionError{Op: "event enumeration", Err: err}
	}

	count := 0
	for _, obj := range objects {
		// Each delete commits independently, so cancellation between
		// items leaves a consistent server state.
		if err := ctx.Err(); err != nil {
			return count, &RemoteConnectionError{Op: "event deletion", Err: err}
		}
		stringified, err := objectStart(obj)
		if err != nil {
			c.logger.Warn("Skipping event without usable start", "error", err)
			continue
		}
		if !strings.HasPrefix(stringified, start) {
			continue
		}
		if err := c.dav.RemoveAll(ctx, obj.Path); err != nil {
			return count, &RemoteConnectionError{Op: "event deletion", Err: err}
		}
		count++
	}
	return count, nil
}

// DeleteEventsInRange deletes every event whose occurrence overlaps
// [start, end), selected by a parsed-date server-side range rather than the
// prefix match of DeleteEvents, and returns the count deleted.
func (c *Connector) DeleteEventsInRange(ctx context.Context, start, end string) (int, error) {
	from, err := time.Parse(dateFormat, start)
	if err != nil {
		return 0, &ValidationError{Field: "start", Reason: "must be a YYYY-MM-DD date"}
	}
	to, err := time.Parse(dateFormat, end)
	if err != nil {
		return 0, &ValidationError{Field: "end", Reason: "must be a YYYY-MM-DD date"}
	}

	objects, err := c.dav.QueryCalendar(ctx, c.base.Path, eventRangeQuery(from, to))
	if err != nil {
		return 0, &RemoteConnectionError{Op: "event enumeration", Err: err}
	}

	count := 0
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return count, &RemoteConnectionError{Op: "event deletion", Err: err}
		}
		if err := c.dav.RemoveAll(ctx, obj.Path); err != nil {
			return count, &RemoteConnectionError{Op: "event deletion", Err: err}
		}
		count++
	}
	return count, nil
}

// eventRangeQuery builds a VEVENT calendar-query. Zero bounds mean no
// server-side time filtering.
func eventRangeQuery(from, to time.Time) *caldav.CalendarQuery {
	compFilter := caldav.CompFilter{Name: ical.CompEvent}
	if !from.IsZero() || !to.IsZero() {
		compFilter.Start = from
		compFilter.End = to
	}
	return &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{Name: ical.CompEvent, AllProps: true}},
		},
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{compFilter},
		},
	}
}

func (c *Connector) absoluteURL(calPath string) (string, error) {
	ref, err := url.Parse(calPath)
	if err != nil {
		return "", err
	}
	return c.base.ResolveReference(ref).String(), nil
}

// parseDateTime accepts RFC 3339 date-times as well as zoneless ISO-8601
// ones like 2024-03-01T10:00:00.
func parseDateTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}
