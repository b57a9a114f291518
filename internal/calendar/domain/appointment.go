package domain

import (
	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/pkg/timeutil"
)

// Appointment is the platform's view of a calendar entry. Start and end are
// timezone-naive local date-times; for all-day appointments they carry the
// local-midnight date and AllDay is set.
type Appointment struct {
	Title             string                 `json:"title"`
	Description       string                 `json:"description,omitempty"`
	ExternalReference string                 `json:"externalReference,omitempty"`
	StartTime         timeutil.LocalDateTime `json:"startTime"`
	EndTime           timeutil.LocalDateTime `json:"endTime"`
	AllDay            bool                   `json:"allDay"`
	Deleted           bool                   `json:"deleted"`
}
