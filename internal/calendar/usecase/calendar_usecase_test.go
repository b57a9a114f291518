package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	authdomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/auth/domain"
	calendardomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/calendar/domain"
	credentialdomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/credential/domain"
	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/pkg/googlecal"
	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/pkg/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

// fakeGateway satisfies CalendarGateway with settable behavior per call.
type fakeGateway struct {
	exchangeFn func(code, state string) (*googlecal.TokenResponse, error)
	refreshFn  func(cred *credentialdomain.CalendarCredential) (*googlecal.TokenResponse, error)
	listFn     func() ([]*calendar.Event, error)
	eventFn    func(eventID string) (*calendar.Event, error)
	insertFn   func(event *calendar.Event) (string, error)
	deleteFn   func(eventID string) error
}

func (f *fakeGateway) ExchangeCode(_ context.Context, code, state string) (*googlecal.TokenResponse, error) {
	return f.exchangeFn(code, state)
}

func (f *fakeGateway) Refresh(_ context.Context, cred *credentialdomain.CalendarCredential) (*googlecal.TokenResponse, error) {
	return f.refreshFn(cred)
}

func (f *fakeGateway) EventsBetween(_ context.Context, _, _ time.Time, _ *credentialdomain.CalendarCredential) ([]*calendar.Event, error) {
	return f.listFn()
}

func (f *fakeGateway) UpcomingEvents(_ context.Context, _ int64, _ time.Time, _ *credentialdomain.CalendarCredential) ([]*calendar.Event, error) {
	return f.listFn()
}

func (f *fakeGateway) Event(_ context.Context, eventID string, _ *credentialdomain.CalendarCredential) (*calendar.Event, error) {
	return f.eventFn(eventID)
}

func (f *fakeGateway) Insert(_ context.Context, event *calendar.Event, _ *credentialdomain.CalendarCredential) (string, error) {
	return f.insertFn(event)
}

func (f *fakeGateway) Delete(_ context.Context, eventID string, _ *credentialdomain.CalendarCredential) error {
	return f.deleteFn(eventID)
}

// fakeCredentialRepo stores at most one record per user/provider pair.
type fakeCredentialRepo struct {
	records  map[string]*credentialdomain.CalendarCredential
	replaced int
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{records: make(map[string]*credentialdomain.CalendarCredential)}
}

func (r *fakeCredentialRepo) key(userID, provider string) string {
	return userID + "/" + provider
}

func (r *fakeCredentialRepo) Create(credential *credentialdomain.CalendarCredential) error {
	r.records[r.key(credential.UserID, credential.Provider)] = credential
	return nil
}

func (r *fakeCredentialRepo) FindByUser(userID, provider string) (*credentialdomain.CalendarCredential, error) {
	return r.records[r.key(userID, provider)], nil
}

func (r *fakeCredentialRepo) DeleteByUser(userID, provider string) error {
	delete(r.records, r.key(userID, provider))
	return nil
}

func (r *fakeCredentialRepo) Replace(userID, provider string, fresh *credentialdomain.CalendarCredential) error {
	r.records[r.key(userID, provider)] = fresh
	r.replaced++
	return nil
}

type fakeUserRepo struct {
	users map[string]*authdomain.User
}

func newFakeUserRepo(users ...*authdomain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*authdomain.User)}
	for _, user := range users {
		repo.users[user.Username] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(user *authdomain.User) error {
	r.users[user.Username] = user
	return nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*authdomain.User, error) {
	return r.users[username], nil
}

func (r *fakeUserRepo) FindByID(id string) (*authdomain.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, nil
}

const testHorizon = 90 * 24 * time.Hour

func newTestUsecase(gateway CalendarGateway, credRepo *fakeCredentialRepo, userRepo *fakeUserRepo,
	now time.Time) *calendarUsecase {
	service := NewCalendarUsecase(gateway, credRepo, userRepo, testHorizon).(*calendarUsecase)
	service.now = func() time.Time { return now }
	return service
}

func activeCredential(userID string, now time.Time) *credentialdomain.CalendarCredential {
	return credentialdomain.NewCalendarCredential(userID, "A0", "R0", 3600, now, testHorizon, userID)
}

func expiredCredential(userID string, now time.Time) *credentialdomain.CalendarCredential {
	return credentialdomain.NewCalendarCredential(userID, "A0", "R0", 3600, now.Add(-2*time.Hour), testHorizon, userID)
}

func TestExchangeCodeForToken(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
	gateway := &fakeGateway{
		exchangeFn: func(code, state string) (*googlecal.TokenResponse, error) {
			assert.Equal(t, "abc", code)
			assert.Equal(t, "xyz", state)
			return &googlecal.TokenResponse{AccessToken: "A1", RefreshToken: "R1", ExpiresInSeconds: 3600}, nil
		},
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), now)

	cred, err := service.ExchangeCodeForToken(context.Background(), "user-1", "abc", "xyz", "jdoe")
	require.NoError(t, err)
	require.NotNil(t, cred)

	assert.Equal(t, "user-1", cred.UserID)
	assert.Equal(t, "A1", cred.AccessToken)
	assert.Equal(t, "R1", cred.RefreshToken)
	assert.Equal(t, "jdoe", cred.CreatedBy)
	assert.True(t, cred.AccessExpiresAt.Equal(now.Add(time.Hour)))
	assert.True(t, cred.ForceRefreshAt.Equal(now.Add(testHorizon)))
	assert.Equal(t, now.Add(time.Hour).UnixMilli(), cred.ExpirationTimeMilliseconds)
}

func TestExchangeCodeForTokenWrapsGatewayError(t *testing.T) {
	gateway := &fakeGateway{
		exchangeFn: func(string, string) (*googlecal.TokenResponse, error) {
			return nil, errors.New("boom")
		},
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), time.Now())

	_, err := service.ExchangeCodeForToken(context.Background(), "user-1", "abc", "xyz", "")
	require.Error(t, err)

	var actionErr *calendardomain.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, "token.exchange", actionErr.Op)
}

func TestUpdateTokenProducesNewRecord(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
	gateway := &fakeGateway{
		refreshFn: func(*credentialdomain.CalendarCredential) (*googlecal.TokenResponse, error) {
			return &googlecal.TokenResponse{AccessToken: "A1", RefreshToken: "R1", ExpiresInSeconds: 1800}, nil
		},
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), now)

	original := expiredCredential("user-1", now)
	before := *original

	fresh, err := service.UpdateToken(context.Background(), original)
	require.NoError(t, err)
	require.NotNil(t, fresh)

	assert.NotEqual(t, original.ID, fresh.ID)
	assert.Equal(t, original.UserID, fresh.UserID)
	assert.Equal(t, original.CreatedBy, fresh.CreatedBy)
	assert.Equal(t, "A1", fresh.AccessToken)
	assert.Equal(t, "R1", fresh.RefreshToken)
	assert.True(t, fresh.AccessExpiresAt.Equal(now.Add(30*time.Minute)))
	assert.True(t, fresh.ForceRefreshAt.Equal(now.Add(testHorizon)))

	// The input record is immutable.
	assert.Equal(t, before, *original)
}

func TestUpdateTokenRevokedGrant(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
	gateway := &fakeGateway{
		refreshFn: func(*credentialdomain.CalendarCredential) (*googlecal.TokenResponse, error) {
			return nil, calendardomain.ErrRevokedGrant
		},
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), now)

	original := expiredCredential("user-1", now)
	before := *original

	fresh, err := service.UpdateToken(context.Background(), original)
	assert.Nil(t, fresh)
	assert.ErrorIs(t, err, calendardomain.ErrRevokedGrant)
	assert.Equal(t, before, *original)
}

func TestGetEventsEmptyWhenGatewayReturnsNothing(t *testing.T) {
	gateway := &fakeGateway{
		listFn: func() ([]*calendar.Event, error) { return []*calendar.Event{}, nil },
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), time.Now())

	appointments, err := service.GetEvents(context.Background(), time.Now(), time.Now().Add(time.Hour), nil)
	require.NoError(t, err)
	assert.NotNil(t, appointments)
	assert.Empty(t, appointments)
}

func TestGetEventsConvertsAndPreservesOrder(t *testing.T) {
	gateway := &fakeGateway{
		listFn: func() ([]*calendar.Event, error) {
			return []*calendar.Event{
				{Id: "a", Summary: "First", Start: &calendar.EventDateTime{DateTime: "2024-01-15T09:00:00Z"}, End: &calendar.EventDateTime{DateTime: "2024-01-15T10:00:00Z"}},
				{Id: "b", Summary: "Second", Start: &calendar.EventDateTime{Date: "2024-01-16"}, End: &calendar.EventDateTime{Date: "2024-01-17"}},
			}, nil
		},
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), time.Now())

	appointments, err := service.GetUpcomingEvents(context.Background(), 10, time.Now(), nil)
	require.NoError(t, err)
	require.Len(t, appointments, 2)
	assert.Equal(t, "a", appointments[0].ExternalReference)
	assert.False(t, appointments[0].AllDay)
	assert.Equal(t, "b", appointments[1].ExternalReference)
	assert.True(t, appointments[1].AllDay)
}

func TestGetEventsWrapsGatewayError(t *testing.T) {
	gateway := &fakeGateway{
		listFn: func() ([]*calendar.Event, error) { return nil, errors.New("transport down") },
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), time.Now())

	_, err := service.GetEvents(context.Background(), time.Now(), time.Now(), nil)
	var actionErr *calendardomain.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, "events.list", actionErr.Op)
}

func TestGetEventAbsorbsUnconfigured(t *testing.T) {
	gateway := &fakeGateway{
		eventFn: func(string) (*calendar.Event, error) { return nil, calendardomain.ErrNotConfigured },
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), time.Now())

	appointment, err := service.GetEvent(context.Background(), "evt-1", nil)
	assert.NoError(t, err)
	assert.Nil(t, appointment)
}

func TestGetEventNotFoundPassesThrough(t *testing.T) {
	gateway := &fakeGateway{
		eventFn: func(string) (*calendar.Event, error) { return nil, calendardomain.ErrNotFound },
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), time.Now())

	_, err := service.GetEvent(context.Background(), "evt-1", nil)
	assert.ErrorIs(t, err, calendardomain.ErrNotFound)
}

func TestAddEventReturnsReference(t *testing.T) {
	gateway := &fakeGateway{
		insertFn: func(event *calendar.Event) (string, error) {
			assert.Equal(t, "Checkup", event.Summary)
			return "evt-9", nil
		},
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), time.Now())

	appointment := &calendardomain.Appointment{
		Title:     "Checkup",
		StartTime: timeutil.NewLocalDateTime(time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)),
		EndTime:   timeutil.NewLocalDateTime(time.Date(2024, 1, 15, 11, 0, 0, 0, time.Local)),
	}

	reference, err := service.AddEvent(context.Background(), appointment, nil)
	require.NoError(t, err)
	assert.Equal(t, "evt-9", reference)
}

func TestAddEventAbsorbsUnconfigured(t *testing.T) {
	gateway := &fakeGateway{
		insertFn: func(*calendar.Event) (string, error) { return "", calendardomain.ErrNotConfigured },
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), time.Now())

	reference, err := service.AddEvent(context.Background(), &calendardomain.Appointment{Title: "x"}, nil)
	assert.NoError(t, err)
	assert.Empty(t, reference)
}

func TestDeleteEventAbsorbsUnconfigured(t *testing.T) {
	gateway := &fakeGateway{
		deleteFn: func(string) error { return calendardomain.ErrNotConfigured },
	}
	service := newTestUsecase(gateway, newFakeCredentialRepo(), newFakeUserRepo(), time.Now())

	err := service.DeleteEvent(context.Background(), &calendardomain.Appointment{ExternalReference: "evt-1"}, nil)
	assert.NoError(t, err)
}

func TestConnectCalendarPersistsCredential(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
	gateway := &fakeGateway{
		exchangeFn: func(string, string) (*googlecal.TokenResponse, error) {
			return &googlecal.TokenResponse{AccessToken: "A1", RefreshToken: "R1", ExpiresInSeconds: 3600}, nil
		},
	}
	credRepo := newFakeCredentialRepo()
	userRepo := newFakeUserRepo(&authdomain.User{ID: "user-1", Username: "jdoe"})
	service := newTestUsecase(gateway, credRepo, userRepo, now)

	cred, err := service.ConnectCalendar(context.Background(), "jdoe", "abc", "xyz")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "jdoe", cred.CreatedBy)

	stored, err := credRepo.FindByUser("user-1", credentialdomain.ProviderGoogle)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, cred.ID, stored.ID)
}

func TestConnectCalendarUnknownUser(t *testing.T) {
	service := newTestUsecase(&fakeGateway{}, newFakeCredentialRepo(), newFakeUserRepo(), time.Now())

	_, err := service.ConnectCalendar(context.Background(), "ghost", "abc", "xyz")
	assert.ErrorIs(t, err, calendardomain.ErrUserNotFound)
}

func TestDisconnectCalendarIdempotent(t *testing.T) {
	credRepo := newFakeCredentialRepo()
	userRepo := newFakeUserRepo(&authdomain.User{ID: "user-1", Username: "jdoe"})
	service := newTestUsecase(&fakeGateway{}, credRepo, userRepo, time.Now())

	require.NoError(t, credRepo.Create(activeCredential("user-1", time.Now())))
	require.NoError(t, service.DisconnectCalendar(context.Background(), "jdoe"))

	stored, err := credRepo.FindByUser("user-1", credentialdomain.ProviderGoogle)
	require.NoError(t, err)
	assert.Nil(t, stored)

	// Deleting again is a no-op.
	assert.NoError(t, service.DisconnectCalendar(context.Background(), "jdoe"))
}

func TestCredentialsForActiveSkipsRefresh(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
	gateway := &fakeGateway{
		refreshFn: func(*credentialdomain.CalendarCredential) (*googlecal.TokenResponse, error) {
			t.Fatal("refresh must not run for an active credential")
			return nil, nil
		},
	}
	credRepo := newFakeCredentialRepo()
	userRepo := newFakeUserRepo(&authdomain.User{ID: "user-1", Username: "jdoe"})
	service := newTestUsecase(gateway, credRepo, userRepo, now)

	active := activeCredential("user-1", now)
	require.NoError(t, credRepo.Create(active))

	cred, err := service.CredentialsFor(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, active.ID, cred.ID)
	assert.Zero(t, credRepo.replaced)
}

func TestCredentialsForExpiredRefreshesAndStores(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
	gateway := &fakeGateway{
		refreshFn: func(cred *credentialdomain.CalendarCredential) (*googlecal.TokenResponse, error) {
			assert.Equal(t, "R0", cred.RefreshToken)
			return &googlecal.TokenResponse{AccessToken: "A1", RefreshToken: "R1", ExpiresInSeconds: 3600}, nil
		},
	}
	credRepo := newFakeCredentialRepo()
	userRepo := newFakeUserRepo(&authdomain.User{ID: "user-1", Username: "jdoe"})
	service := newTestUsecase(gateway, credRepo, userRepo, now)

	require.NoError(t, credRepo.Create(expiredCredential("user-1", now)))

	cred, err := service.CredentialsFor(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "A1", cred.AccessToken)
	assert.Equal(t, 1, credRepo.replaced)

	stored, err := credRepo.FindByUser("user-1", credentialdomain.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, cred.ID, stored.ID)
}

func TestCredentialsForMissingCredential(t *testing.T) {
	userRepo := newFakeUserRepo(&authdomain.User{ID: "user-1", Username: "jdoe"})
	service := newTestUsecase(&fakeGateway{}, newFakeCredentialRepo(), userRepo, time.Now())

	_, err := service.CredentialsFor(context.Background(), "jdoe")
	assert.ErrorIs(t, err, calendardomain.ErrNotFound)
}

func TestRefreshCalendarAlwaysRefreshes(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
	refreshCalls := 0
	gateway := &fakeGateway{
		refreshFn: func(*credentialdomain.CalendarCredential) (*googlecal.TokenResponse, error) {
			refreshCalls++
			return &googlecal.TokenResponse{AccessToken: "A1", RefreshToken: "R1", ExpiresInSeconds: 3600}, nil
		},
	}
	credRepo := newFakeCredentialRepo()
	userRepo := newFakeUserRepo(&authdomain.User{ID: "user-1", Username: "jdoe"})
	service := newTestUsecase(gateway, credRepo, userRepo, now)

	// Still active, refreshed anyway.
	require.NoError(t, credRepo.Create(activeCredential("user-1", now)))

	cred, err := service.RefreshCalendar(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, 1, refreshCalls)
	assert.Equal(t, "A1", cred.AccessToken)
	assert.Equal(t, 1, credRepo.replaced)
}
