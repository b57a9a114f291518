package repository

import (
	"errors"

	credentialdomain "github.com/BiiT-Solutions/AppointmentCenterGoogleCalendar/internal/credential/domain"

	"gorm.io/gorm"
)

// credentialRepository implements CredentialRepository on GORM
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new instance of credentialRepository
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{
		db: db,
	}
}

func (r *credentialRepository) Create(credential *credentialdomain.CalendarCredential) error {
	return r.db.Create(credential).Error
}

func (r *credentialRepository) FindByUser(userID, provider string) (*credentialdomain.CalendarCredential, error) {
	var credential credentialdomain.CalendarCredential
	err := r.db.Where("user_id = ? AND provider = ?", userID, provider).First(&credential).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &credential, nil
}

func (r *credentialRepository) DeleteByUser(userID, provider string) error {
	return r.db.Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&credentialdomain.CalendarCredential{}).Error
}

func (r *credentialRepository) Replace(userID, provider string, fresh *credentialdomain.CalendarCredential) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND provider = ?", userID, provider).
			Delete(&credentialdomain.CalendarCredential{}).Error; err != nil {
			return err
		}
		return tx.Create(fresh).Error
	})
}
