package repository

import (
	authdomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/auth/domain"
)

// UserRepository resolves platform users for credential ownership.
type UserRepository interface {
	Create(user *authdomain.User) error
	FindByUsername(username string) (*authdomain.User, error)
	FindByID(id string) (*authdomain.User, error)
}
