package repository

import (
	credentialdomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/credential/domain"
)

// CredentialRepository persists external calendar credential records.
type CredentialRepository interface {
	Create(credential *credentialdomain.CalendarCredential) error
	FindByUser(userID, provider string) (*credentialdomain.CalendarCredential, error)
	DeleteByUser(userID, provider string) error
	// Replace atomically swaps the stored record of a user for a freshly
	// refreshed one.
	Replace(userID, provider string, fresh *credentialdomain.CalendarCredential) error
}
