package domain

import (
	"time"

	"github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/pkg/timeutil"

	"github.com/google/uuid"
)

// ProviderGoogle is the provider discriminator for Google Calendar grants.
const ProviderGoogle = "google"

// CredentialState describes where a credential sits in its refresh lifecycle.
type CredentialState string

const (
	// StateActive: the access token is still valid.
	StateActive CredentialState = "active"
	// StateAccessExpired: the access token lapsed but the refresh horizon has not.
	StateAccessExpired CredentialState = "access_expired"
	// StateMustRefresh: the force-refresh horizon passed; refresh regardless of
	// access-token validity, before the provider deactivates the refresh token.
	StateMustRefresh CredentialState = "must_refresh"
)

// CalendarCredential is a user's OAuth2 grant for an external calendar
// provider, plus its expiry bookkeeping. Records are immutable once created:
// a refresh produces a new record instead of mutating the old one.
type CalendarCredential struct {
	ID                         string                 `json:"id" gorm:"primaryKey"`
	UserID                     string                 `json:"userId" gorm:"index:idx_credential_user_provider;not null"`
	Provider                   string                 `json:"provider" gorm:"index:idx_credential_user_provider;not null"`
	AccessToken                string                 `json:"accessToken" gorm:"not null"`
	RefreshToken               string                 `json:"refreshToken"`
	ExpirationTimeMilliseconds int64                  `json:"expirationTimeMilliseconds"`
	CreatedAt                  timeutil.LocalDateTime `json:"createdAt"`
	AccessExpiresAt            timeutil.LocalDateTime `json:"accessExpiresAt"`
	ForceRefreshAt             timeutil.LocalDateTime `json:"forceRefreshAt"`
	CreatedBy                  string                 `json:"createdBy,omitempty"`
}

func (CalendarCredential) TableName() string {
	return "external_calendar_credentials"
}

// NewCalendarCredential assembles a credential record from a raw token grant.
// accessExpiresAt is always createdAt + expiresInSeconds; forceRefreshAt is
// always createdAt + horizon, independent of the access-token lifetime.
func NewCalendarCredential(userID, accessToken, refreshToken string, expiresInSeconds int64,
	createdAt time.Time, horizon time.Duration, createdBy string) *CalendarCredential {
	accessExpiresAt := createdAt.Add(time.Duration(expiresInSeconds) * time.Second)
	return &CalendarCredential{
		ID:                         uuid.New().String(),
		UserID:                     userID,
		Provider:                   ProviderGoogle,
		AccessToken:                accessToken,
		RefreshToken:               refreshToken,
		ExpirationTimeMilliseconds: accessExpiresAt.UnixMilli(),
		CreatedAt:                  timeutil.NewLocalDateTime(createdAt),
		AccessExpiresAt:            timeutil.NewLocalDateTime(accessExpiresAt),
		ForceRefreshAt:             timeutil.NewLocalDateTime(createdAt.Add(horizon)),
		CreatedBy:                  createdBy,
	}
}

// State reports the lifecycle state at the given instant.
func (c *CalendarCredential) State(now time.Time) CredentialState {
	if !now.Before(c.ForceRefreshAt.Time) {
		return StateMustRefresh
	}
	if !now.Before(c.AccessExpiresAt.Time) {
		return StateAccessExpired
	}
	return StateActive
}

// Refreshable reports whether the record can be refreshed at all. A record
// without a refresh token is terminal: any access failure on it means the
// user must re-run the authorization flow.
func (c *CalendarCredential) Refreshable() bool {
	return c.RefreshToken != ""
}
