package googlecal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	calendardomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/domain"
	credentialdomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/credential/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// primaryCalendarID is used whenever no explicit calendar is specified.
const primaryCalendarID = "primary"

// TokenResponse is the raw outcome of a token grant (code exchange or refresh).
type TokenResponse struct {
	AccessToken      string
	RefreshToken     string
	ExpiresInSeconds int64
}

// Service performs the remote Google OAuth2 and Calendar operations. A fresh
// SDK client is built per call from the supplied credential; no client handle
// is cached as process state.
type Service struct {
	clientID     string
	clientSecret string
	redirectURI  string
}

func NewService(clientID, clientSecret, redirectURI string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

// IsConfigured reports whether the service has a usable client configuration.
func (s *Service) IsConfigured() bool {
	return s.clientID != "" && s.clientSecret != ""
}

func (s *Service) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		RedirectURL:  s.redirectURI,
		Scopes:       []string{calendar.CalendarScope},
		Endpoint:     google.Endpoint,
	}
}

// ExchangeCode exchanges an OAuth2 authorization code for a token pair.
func (s *Service) ExchangeCode(ctx context.Context, code, state string) (*TokenResponse, error) {
	if !s.IsConfigured() {
		return nil, calendardomain.ErrNotConfigured
	}
	log.Printf("Requesting token for code '%s' and state '%s'", code, state)
	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange authorization code: %w", err)
	}
	return tokenResponse(token, ""), nil
}

// Refresh issues a refresh-token grant for the stored credential and returns
// the fresh token payload. A rejected refresh token surfaces as ErrRevokedGrant
// and must not be retried; the caller has to restart the authorization flow.
func (s *Service) Refresh(ctx context.Context, cred *credentialdomain.CalendarCredential) (*TokenResponse, error) {
	if !s.IsConfigured() {
		return nil, calendardomain.ErrNotConfigured
	}
	if !cred.Refreshable() {
		return nil, fmt.Errorf("%w: credential has no refresh token", calendardomain.ErrRevokedGrant)
	}
	source := s.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	token, err := source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
			return nil, fmt.Errorf("%w: %v", calendardomain.ErrRevokedGrant, err)
		}
		return nil, fmt.Errorf("unable to refresh credential: %w", err)
	}
	// Google omits the refresh token from refresh responses; keep the old one.
	return tokenResponse(token, cred.RefreshToken), nil
}

func tokenResponse(token *oauth2.Token, fallbackRefresh string) *TokenResponse {
	refresh := token.RefreshToken
	if refresh == "" {
		refresh = fallbackRefresh
	}
	expiresIn := token.ExpiresIn
	if expiresIn == 0 && !token.Expiry.IsZero() {
		expiresIn = int64(time.Until(token.Expiry).Seconds())
	}
	return &TokenResponse{
		AccessToken:      token.AccessToken,
		RefreshToken:     refresh,
		ExpiresInSeconds: expiresIn,
	}
}

// calendarService builds an authenticated Calendar SDK client from a stored
// credential. The oauth2 transport refreshes the access token transparently
// when the stored expiry has passed.
func (s *Service) calendarService(ctx context.Context, cred *credentialdomain.CalendarCredential) (*calendar.Service, error) {
	token := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.UnixMilli(cred.ExpirationTimeMilliseconds),
	}

	client := s.oauthConfig().Client(ctx, token)

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}
	return srv, nil
}

// EventsBetween lists the events of the primary calendar between two instants,
// ordered by start time with recurring events expanded to single occurrences.
// An unconfigured service returns an empty list rather than an error.
func (s *Service) EventsBetween(ctx context.Context, from, to time.Time, cred *credentialdomain.CalendarCredential) ([]*calendar.Event, error) {
	if !s.IsConfigured() || cred == nil {
		log.Printf("Google Calendar service is not correctly configured, returning no events")
		return []*calendar.Event{}, nil
	}
	srv, err := s.calendarService(ctx, cred)
	if err != nil {
		return nil, err
	}

	events, err := srv.Events.List(primaryCalendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list events: %w", err)
	}
	return events.Items, nil
}

// UpcomingEvents lists the next count events starting from the given instant.
func (s *Service) UpcomingEvents(ctx context.Context, count int64, from time.Time, cred *credentialdomain.CalendarCredential) ([]*calendar.Event, error) {
	if !s.IsConfigured() || cred == nil {
		log.Printf("Google Calendar service is not correctly configured, returning no events")
		return []*calendar.Event{}, nil
	}
	srv, err := s.calendarService(ctx, cred)
	if err != nil {
		return nil, err
	}

	events, err := srv.Events.List(primaryCalendarID).
		TimeMin(from.Format(time.RFC3339)).
		MaxResults(count).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list events: %w", err)
	}
	return events.Items, nil
}

// Event fetches a single event by id from the primary calendar.
func (s *Service) Event(ctx context.Context, eventID string, cred *credentialdomain.CalendarCredential) (*calendar.Event, error) {
	if !s.IsConfigured() || cred == nil {
		return nil, calendardomain.ErrNotConfigured
	}
	srv, err := s.calendarService(ctx, cred)
	if err != nil {
		return nil, err
	}

	event, err := srv.Events.Get(primaryCalendarID, eventID).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: event '%s'", calendardomain.ErrNotFound, eventID)
		}
		return nil, fmt.Errorf("unable to retrieve event '%s': %w", eventID, err)
	}
	return event, nil
}

// Insert creates an event on the primary calendar and returns its id.
func (s *Service) Insert(ctx context.Context, event *calendar.Event, cred *credentialdomain.CalendarCredential) (string, error) {
	if !s.IsConfigured() || cred == nil {
		return "", calendardomain.ErrNotConfigured
	}
	srv, err := s.calendarService(ctx, cred)
	if err != nil {
		return "", err
	}

	created, err := srv.Events.Insert(primaryCalendarID, event).
		SendUpdates("all").
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to create event: %w", err)
	}
	log.Printf("Event created: %s", created.HtmlLink)
	return created.Id, nil
}

// Delete removes an event from the primary calendar without notifying the
// participants. The event is fetched first; a nonexistent id is a no-op.
func (s *Service) Delete(ctx context.Context, eventID string, cred *credentialdomain.CalendarCredential) error {
	if !s.IsConfigured() || cred == nil {
		return calendardomain.ErrNotConfigured
	}
	srv, err := s.calendarService(ctx, cred)
	if err != nil {
		return err
	}

	event, err := srv.Events.Get(primaryCalendarID, eventID).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			log.Printf("No event found with id '%s' on calendar '%s'", eventID, primaryCalendarID)
			return nil
		}
		return fmt.Errorf("unable to retrieve event '%s': %w", eventID, err)
	}

	log.Printf("Deleting event: %s", event.HtmlLink)
	if err := srv.Events.Delete(primaryCalendarID, eventID).SendUpdates("none").Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to delete event '%s': %w", eventID, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone)
}
