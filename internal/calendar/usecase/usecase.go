package usecase

import (
	"context"
	"time"

	calendardomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/domain"
	credentialdomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/credential/domain"
	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/pkg/googlecal"

	"google.golang.org/api/calendar/v3"
)

// CalendarGateway is the outbound port to the remote calendar provider.
// pkg/googlecal implements it for Google; tests inject fakes.
type CalendarGateway interface {
	ExchangeCode(ctx context.Context, code, state string) (*googlecal.TokenResponse, error)
	Refresh(ctx context.Context, cred *credentialdomain.CalendarCredential) (*googlecal.TokenResponse, error)
	EventsBetween(ctx context.Context, from, to time.Time, cred *credentialdomain.CalendarCredential) ([]*calendar.Event, error)
	UpcomingEvents(ctx context.Context, count int64, from time.Time, cred *credentialdomain.CalendarCredential) ([]*calendar.Event, error)
	Event(ctx context.Context, eventID string, cred *credentialdomain.CalendarCredential) (*calendar.Event, error)
	Insert(ctx context.Context, event *calendar.Event, cred *credentialdomain.CalendarCredential) (string, error)
	Delete(ctx context.Context, eventID string, cred *credentialdomain.CalendarCredential) error
}

// CalendarUsecase is the provider-agnostic calendar contract exposed to the
// platform. This service implements the Google variant.
type CalendarUsecase interface {
	Provider() string

	GetEvents(ctx context.Context, from, to time.Time, cred *credentialdomain.CalendarCredential) ([]*calendardomain.Appointment, error)
	GetUpcomingEvents(ctx context.Context, count int64, from time.Time, cred *credentialdomain.CalendarCredential) ([]*calendardomain.Appointment, error)
	GetEvent(ctx context.Context, externalReference string, cred *credentialdomain.CalendarCredential) (*calendardomain.Appointment, error)
	AddEvent(ctx context.Context, appointment *calendardomain.Appointment, cred *credentialdomain.CalendarCredential) (string, error)
	DeleteEvent(ctx context.Context, appointment *calendardomain.Appointment, cred *credentialdomain.CalendarCredential) error

	ExchangeCodeForToken(ctx context.Context, userID, code, state, createdBy string) (*credentialdomain.CalendarCredential, error)
	UpdateToken(ctx context.Context, cred *credentialdomain.CalendarCredential) (*credentialdomain.CalendarCredential, error)

	ConnectCalendar(ctx context.Context, username, code, state string) (*credentialdomain.CalendarCredential, error)
	DisconnectCalendar(ctx context.Context, username string) error
	CredentialsFor(ctx context.Context, username string) (*credentialdomain.CalendarCredential, error)
	RefreshCalendar(ctx context.Context, username string) (*credentialdomain.CalendarCredential, error)
}
