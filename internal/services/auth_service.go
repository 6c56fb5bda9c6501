package services

import (
	"errors"
	"time"

	"license-api/internal/config"
	"license-api/internal/database"
	"license-api/internal/models"
	"license-api/pkg/logging"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService provides session-based dashboard authentication
type AuthService struct {
	db *gorm.DB

	Now func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService() *AuthService {
	return &AuthService{
		db:  database.GetDB(),
		Now: time.Now,
	}
}

// Login verifies credentials and opens a session.
func (s *AuthService) Login(email, password string) (*models.Session, *models.User, error) {
	user, err := database.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	ttl := time.Duration(config.AppConfig.SessionTTLHours) * time.Hour
	session := &models.Session{
		Token:     GenerateSessionToken(),
		UserID:    user.ID,
		ExpiresAt: s.Now().Add(ttl),
	}
	if err := database.CreateSession(session); err != nil {
		return nil, nil, err
	}

	logging.Infof("User %d logged in", user.ID)
	return session, user, nil
}

// Logout removes the session.
func (s *AuthService) Logout(token string) error {
	return database.DeleteSession(token)
}

// Authenticate resolves a session token to its user. Expired sessions are
// removed on sight.
func (s *AuthService) Authenticate(token string) (*models.User, error) {
	session, err := database.GetSessionByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if session.IsExpired(s.Now()) {
		if err := database.DeleteSession(token); err != nil {
			logging.Errorf("Failed to delete expired session: %v", err)
		}
		return nil, ErrNotFound
	}

	if !session.User.IsActive {
		return nil, ErrNotFound
	}
	return &session.User, nil
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
