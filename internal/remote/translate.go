package remote

import (
	"time"

	"appointd/internal/models"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	rrule "github.com/teambition/rrule-go"
)

// expandOccurrences translates one remote VEVENT into its occurrences
// within [from, to). SUMMARY, DTSTART and DTEND are mandatory; a component
// missing any of them yields a RemoteDataError attributable to objPath.
// DESCRIPTION is optional and defaults to the empty string. Recurring
// events are materialized per occurrence; the recurrence rule itself is
// never returned.
func expandOccurrences(ev ical.Event, objPath string, from, to time.Time) ([]models.Event, error) {
	summaryProp := ev.Props.Get(ical.PropSummary)
	if summaryProp == nil {
		return nil, &RemoteDataError{Path: objPath, Reason: "missing SUMMARY"}
	}
	summary, err := summaryProp.Text()
	if err != nil {
		return nil, &RemoteDataError{Path: objPath, Reason: "unparseable SUMMARY"}
	}

	dtstart, err := mandatoryDateTime(ev, ical.PropDateTimeStart, objPath)
	if err != nil {
		return nil, err
	}
	dtend, err := mandatoryDateTime(ev, ical.PropDateTimeEnd, objPath)
	if err != nil {
		return nil, err
	}

	description := ""
	if descProp := ev.Props.Get(ical.PropDescription); descProp != nil {
		if text, err := descProp.Text(); err == nil {
			description = text
		}
	}

	rruleProp := ev.Props.Get(ical.PropRecurrenceRule)
	if rruleProp == nil {
		if !dtstart.Before(to) || !dtend.After(from) {
			return nil, nil
		}
		return []models.Event{{
			Title:       summary,
			Start:       stringifyDateTime(dtstart),
			End:         stringifyDateTime(dtend),
			Description: description,
		}}, nil
	}

	ropt, err := rrule.StrToROption(rruleProp.Value)
	if err != nil {
		return nil, &RemoteDataError{Path: objPath, Reason: "unparseable RRULE"}
	}
	ropt.Dtstart = dtstart
	rule, err := rrule.NewRRule(*ropt)
	if err != nil {
		return nil, &RemoteDataError{Path: objPath, Reason: "unparseable RRULE"}
	}

	duration := dtend.Sub(dtstart)
	var events []models.Event
	for _, occStart := range rule.Between(from, to, true) {
		if !occStart.Before(to) {
			continue
		}
		events = append(events, models.Event{
			Title:       summary,
			Start:       stringifyDateTime(occStart),
			End:         stringifyDateTime(occStart.Add(duration)),
			Description: description,
		})
	}
	return events, nil
}

// objectStart returns the stringified DTSTART of the first VEVENT in a
// calendar object, in the same form ListEvents uses.
func objectStart(obj caldav.CalendarObject) (string, error) {
	if obj.Data == nil {
		return "", &RemoteDataError{Path: obj.Path, Reason: "empty calendar data"}
	}
	for _, ev := range obj.Data.Events() {
		dtstart, err := mandatoryDateTime(ev, ical.PropDateTimeStart, obj.Path)
		if err != nil {
			return "", err
		}
		return stringifyDateTime(dtstart), nil
	}
	return "", &RemoteDataError{Path: obj.Path, Reason: "no VEVENT component"}
}

func mandatoryDateTime(ev ical.Event, name, objPath string) (time.Time, error) {
	prop := ev.Props.Get(name)
	if prop == nil {
		return time.Time{}, &RemoteDataError{Path: objPath, Reason: "missing " + name}
	}
	t, err := prop.DateTime(time.UTC)
	if err != nil {
		return time.Time{}, &RemoteDataError{Path: objPath, Reason: "unparseable " + name}
	}
	return t, nil
}

func stringifyDateTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
