package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	authrepository "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/auth/repository"
	calendardomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/domain"
	credentialdomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/credential/domain"
	credentialrepository "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/credential/repository"
	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/pkg/googlecal"
)

// calendarUsecase implements CalendarUsecase for the Google provider
type calendarUsecase struct {
	gateway        CalendarGateway
	credentialRepo credentialrepository.CredentialRepository
	userRepo       authrepository.UserRepository
	horizon        time.Duration
	now            func() time.Time
}

// NewCalendarUsecase creates a new instance of calendarUsecase. horizon is the
// force-refresh window applied to every credential it assembles.
func NewCalendarUsecase(gateway CalendarGateway, credentialRepo credentialrepository.CredentialRepository,
	userRepo authrepository.UserRepository, horizon time.Duration) CalendarUsecase {
	return &calendarUsecase{
		gateway:        gateway,
		credentialRepo: credentialRepo,
		userRepo:       userRepo,
		horizon:        horizon,
		now:            time.Now,
	}
}

func (u *calendarUsecase) Provider() string {
	return credentialdomain.ProviderGoogle
}

func (u *calendarUsecase) GetEvents(ctx context.Context, from, to time.Time,
	cred *credentialdomain.CalendarCredential) ([]*calendardomain.Appointment, error) {
	events, err := u.gateway.EventsBetween(ctx, from, to, cred)
	if err != nil {
		return nil, calendardomain.NewActionError("events.list", err)
	}
	return googlecal.ToAppointments(events), nil
}

func (u *calendarUsecase) GetUpcomingEvents(ctx context.Context, count int64, from time.Time,
	cred *credentialdomain.CalendarCredential) ([]*calendardomain.Appointment, error) {
	events, err := u.gateway.UpcomingEvents(ctx, count, from, cred)
	if err != nil {
		return nil, calendardomain.NewActionError("events.list", err)
	}
	return googlecal.ToAppointments(events), nil
}

func (u *calendarUsecase) GetEvent(ctx context.Context, externalReference string,
	cred *credentialdomain.CalendarCredential) (*calendardomain.Appointment, error) {
	event, err := u.gateway.Event(ctx, externalReference, cred)
	if err != nil {
		// Unconfigured deployments degrade to an absent result.
		if errors.Is(err, calendardomain.ErrNotConfigured) {
			return nil, nil
		}
		if errors.Is(err, calendardomain.ErrNotFound) {
			return nil, err
		}
		return nil, calendardomain.NewActionError("events.get", err)
	}
	return googlecal.ToAppointment(event), nil
}

// AddEvent creates the appointment on the external calendar and returns its
// external reference.
func (u *calendarUsecase) AddEvent(ctx context.Context, appointment *calendardomain.Appointment,
	cred *credentialdomain.CalendarCredential) (string, error) {
	reference, err := u.gateway.Insert(ctx, googlecal.ToEvent(appointment), cred)
	if err != nil {
		if errors.Is(err, calendardomain.ErrNotConfigured) {
			return "", nil
		}
		return "", calendardomain.NewActionError("events.insert", err)
	}
	return reference, nil
}

func (u *calendarUsecase) DeleteEvent(ctx context.Context, appointment *calendardomain.Appointment,
	cred *credentialdomain.CalendarCredential) error {
	if err := u.gateway.Delete(ctx, appointment.ExternalReference, cred); err != nil {
		if errors.Is(err, calendardomain.ErrNotConfigured) {
			return nil
		}
		return calendardomain.NewActionError("events.delete", err)
	}
	return nil
}

// ExchangeCodeForToken trades an authorization code for a token pair and
// assembles the credential record. The record is returned unpersisted;
// storing it is the caller's responsibility.
func (u *calendarUsecase) ExchangeCodeForToken(ctx context.Context, userID, code, state,
	createdBy string) (*credentialdomain.CalendarCredential, error) {
	response, err := u.gateway.ExchangeCode(ctx, code, state)
	if err != nil {
		return nil, calendardomain.NewActionError("token.exchange", err)
	}

	cred := credentialdomain.NewCalendarCredential(userID, response.AccessToken, response.RefreshToken,
		response.ExpiresInSeconds, u.now(), u.horizon, createdBy)
	log.Printf("Token for user '%s' generated. Expires at '%s'", userID, cred.AccessExpiresAt)
	return cred, nil
}

// UpdateToken refreshes an existing credential and returns the replacement
// record. The input record is never mutated; on a rejected refresh token the
// error satisfies errors.Is(err, calendardomain.ErrRevokedGrant).
func (u *calendarUsecase) UpdateToken(ctx context.Context,
	cred *credentialdomain.CalendarCredential) (*credentialdomain.CalendarCredential, error) {
	response, err := u.gateway.Refresh(ctx, cred)
	if err != nil {
		if errors.Is(err, calendardomain.ErrRevokedGrant) {
			return nil, err
		}
		return nil, calendardomain.NewActionError("token.refresh", err)
	}

	fresh := credentialdomain.NewCalendarCredential(cred.UserID, response.AccessToken, response.RefreshToken,
		response.ExpiresInSeconds, u.now(), u.horizon, cred.CreatedBy)
	log.Printf("Credential for user '%s' refreshed. Expires at '%s'", fresh.UserID, fresh.AccessExpiresAt)
	return fresh, nil
}

// ConnectCalendar runs the full authorization-code flow for a named user:
// resolve the user, exchange the code, and persist the resulting record
// (replacing a previous grant, if any).
func (u *calendarUsecase) ConnectCalendar(ctx context.Context, username, code,
	state string) (*credentialdomain.CalendarCredential, error) {
	user, err := u.userRepo.FindByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: no user with username '%s'", calendardomain.ErrUserNotFound, username)
	}

	cred, err := u.ExchangeCodeForToken(ctx, user.ID, code, state, username)
	if err != nil {
		return nil, err
	}

	if err := u.credentialRepo.Replace(user.ID, u.Provider(), cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// DisconnectCalendar drops the user's stored credential. Deleting an absent
// credential is a no-op.
func (u *calendarUsecase) DisconnectCalendar(ctx context.Context, username string) error {
	user, err := u.userRepo.FindByUsername(username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: no user with username '%s'", calendardomain.ErrUserNotFound, username)
	}
	return u.credentialRepo.DeleteByUser(user.ID, u.Provider())
}

// CredentialsFor returns the user's stored credential, refreshing and
// re-persisting it first when its access token has expired or the
// force-refresh horizon has passed.
func (u *calendarUsecase) CredentialsFor(ctx context.Context,
	username string) (*credentialdomain.CalendarCredential, error) {
	userID, cred, err := u.storedCredential(username)
	if err != nil {
		return nil, err
	}

	if cred.State(u.now()) == credentialdomain.StateActive {
		return cred, nil
	}
	return u.refreshAndStore(ctx, userID, cred)
}

// RefreshCalendar refreshes the user's stored credential unconditionally.
func (u *calendarUsecase) RefreshCalendar(ctx context.Context,
	username string) (*credentialdomain.CalendarCredential, error) {
	userID, cred, err := u.storedCredential(username)
	if err != nil {
		return nil, err
	}
	return u.refreshAndStore(ctx, userID, cred)
}

func (u *calendarUsecase) storedCredential(username string) (string, *credentialdomain.CalendarCredential, error) {
	user, err := u.userRepo.FindByUsername(username)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, fmt.Errorf("%w: no user with username '%s'", calendardomain.ErrUserNotFound, username)
	}

	cred, err := u.credentialRepo.FindByUser(user.ID, u.Provider())
	if err != nil {
		return "", nil, err
	}
	if cred == nil {
		return "", nil, fmt.Errorf("%w: no calendar credential for user '%s'", calendardomain.ErrNotFound, username)
	}
	return user.ID, cred, nil
}

func (u *calendarUsecase) refreshAndStore(ctx context.Context, userID string,
	cred *credentialdomain.CalendarCredential) (*credentialdomain.CalendarCredential, error) {
	fresh, err := u.UpdateToken(ctx, cred)
	if err != nil {
		return nil, err
	}
	if err := u.credentialRepo.Replace(userID, u.Provider(), fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}
