package database

import (
	"time"

	"license-api/internal/models"
)

// GetUserByEmail gets a user by email
func GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := DB.Where("email = ? AND is_active = ?", email, true).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID gets a user by ID
func GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := DB.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateSession creates a login session
func CreateSession(session *models.Session) error {
	return DB.Create(session).Error
}

// GetSessionByToken gets a session with its user preloaded
func GetSessionByToken(token string) (*models.Session, error) {
	var session models.Session
	err := DB.Preload("User").Where("token = ?", token).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession removes a session by token
func DeleteSession(token string) error {
	return DB.Where("token = ?", token).Delete(&models.Session{}).Error
}

// DeleteExpiredSessions removes sessions past their expiry
func DeleteExpiredSessions(now time.Time) error {
	return DB.Where("expires_at < ?", now).Delete(&models.Session{}).Error
}
