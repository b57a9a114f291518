package googlecal

import (
	"time"

	calendardomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/domain"
	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/pkg/timeutil"

	"google.golang.org/api/calendar/v3"
)

// deletedStatus is the provider's cancellation status literal.
const deletedStatus = "cancelled"

const dateOnlyLayout = "2006-01-02"

// ToAppointment maps a provider event to a platform appointment. A nil event
// maps to nil. Conversion is total over well-formed events; an event missing
// both date forms yields zero start/end times.
func ToAppointment(from *calendar.Event) *calendardomain.Appointment {
	if from == nil {
		return nil
	}

	appointment := &calendardomain.Appointment{
		Title:             from.Summary,
		Description:       from.Description,
		ExternalReference: from.Id,
		Deleted:           from.Status == deletedStatus,
	}

	// The two date forms are mutually exclusive per event side; a date-only
	// start is definitive and marks the whole event as all-day.
	if from.Start != nil && from.Start.Date != "" {
		appointment.StartTime = timeutil.NewLocalDateTime(dateOnlyToLocal(from.Start.Date))
		appointment.EndTime = timeutil.NewLocalDateTime(dateOnlyToLocal(from.End.Date))
		appointment.AllDay = true
	} else if from.Start != nil && from.Start.DateTime != "" {
		appointment.StartTime = timeutil.NewLocalDateTime(dateTimeInZone(from.Start.DateTime, from.Start.TimeZone))
		appointment.EndTime = timeutil.NewLocalDateTime(dateTimeInZone(from.End.DateTime, from.End.TimeZone))
		appointment.AllDay = false
	}

	return appointment
}

// ToEvent maps a platform appointment back to a provider event. All-day
// appointments are single-day in this model: the same date-only value is set
// on both sides, derived from the start time's calendar date at UTC midnight.
func ToEvent(from *calendardomain.Appointment) *calendar.Event {
	if from == nil {
		return nil
	}

	event := &calendar.Event{
		Id:          from.ExternalReference,
		Summary:     from.Title,
		Description: from.Description,
	}

	if from.AllDay {
		date := &calendar.EventDateTime{Date: from.StartTime.Format(dateOnlyLayout)}
		event.Start = date
		event.End = date
	} else {
		zone := time.Local.String()
		event.Start = &calendar.EventDateTime{
			DateTime: atLocal(from.StartTime.Time).Format(time.RFC3339),
			TimeZone: zone,
		}
		event.End = &calendar.EventDateTime{
			DateTime: atLocal(from.EndTime.Time).Format(time.RFC3339),
			TimeZone: zone,
		}
	}

	if from.Deleted {
		event.Status = deletedStatus
	}
	return event
}

// ToAppointments maps a slice of provider events in input order. A nil slice
// maps to an empty list.
func ToAppointments(from []*calendar.Event) []*calendardomain.Appointment {
	appointments := make([]*calendardomain.Appointment, 0, len(from))
	for _, event := range from {
		appointments = append(appointments, ToAppointment(event))
	}
	return appointments
}

// ToEvents mirrors ToAppointments in the reverse direction.
func ToEvents(from []*calendardomain.Appointment) []*calendar.Event {
	events := make([]*calendar.Event, 0, len(from))
	for _, appointment := range from {
		events = append(events, ToEvent(appointment))
	}
	return events
}

// dateOnlyToLocal treats a yyyy-mm-dd value as UTC midnight and renders it in
// the system's local zone, matching the provider's epoch encoding of all-day
// dates.
func dateOnlyToLocal(date string) time.Time {
	utcMidnight, err := time.Parse(dateOnlyLayout, date)
	if err != nil {
		return time.Time{}
	}
	return utcMidnight.In(time.Local)
}

// dateTimeInZone renders an RFC3339 instant in the zone identifier carried by
// that side of the event. Without a zone identifier the offset embedded in the
// value decides the wall clock.
func dateTimeInZone(value, zone string) time.Time {
	instant, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	if zone != "" {
		if location, err := time.LoadLocation(zone); err == nil {
			return instant.In(location)
		}
	}
	return instant
}

// atLocal reinterprets a naive wall clock in the system's local zone.
func atLocal(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, minute, second := t.Clock()
	return time.Date(year, month, day, hour, minute, second, t.Nanosecond(), time.Local)
}
