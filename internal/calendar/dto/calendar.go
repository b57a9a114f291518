package dto

import (
	calendardomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/domain"
)

type EventsResponse struct {
	Events []*calendardomain.Appointment `json:"events"`
	Count  int                           `json:"count"`
}

type AddEventResponse struct {
	ExternalReference string `json:"externalReference"`
}
