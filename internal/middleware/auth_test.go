package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"license-api/internal/config"
	"license-api/internal/database"
	"license-api/internal/models"
	"license-api/internal/services"
	"license-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	require.NoError(t, config.InitConfig())
	logging.InitLogging()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	database.DB = db
	InitMiddleware()
}

func createReseller(t *testing.T, status string) *models.Reseller {
	t.Helper()
	user := &models.User{Email: status + "@example.com", PasswordHash: "x", Role: models.RoleUser, IsActive: true}
	require.NoError(t, database.DB.Create(user).Error)
	reseller := &models.Reseller{
		UserID: user.ID,
		APIKey: services.GenerateAPIKey(),
		Status: status,
	}
	require.NoError(t, database.DB.Create(reseller).Error)
	return reseller
}

func resellerRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", ResellerAuthMiddleware(), func(c *gin.Context) {
		reseller := GetReseller(c)
		c.JSON(http.StatusOK, gin.H{"reseller_id": reseller.ID})
	})
	return r
}

func TestResellerAuthMissingKey(t *testing.T) {
	setupTestDB(t)
	r := resellerRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResellerAuthMalformedHeader(t *testing.T) {
	setupTestDB(t)
	reseller := createReseller(t, models.ResellerApproved)
	r := resellerRouter()

	// A raw key without the Bearer scheme is rejected.
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", reseller.APIKey)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResellerAuthUnknownKey(t *testing.T) {
	setupTestDB(t)
	createReseller(t, models.ResellerApproved)
	r := resellerRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer rk_does_not_exist")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResellerAuthNotApproved(t *testing.T) {
	setupTestDB(t)
	r := resellerRouter()

	for _, status := range []string{models.ResellerPending, models.ResellerSuspended} {
		reseller := createReseller(t, status)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+reseller.APIKey)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	}
}

func TestResellerAuthApproved(t *testing.T) {
	setupTestDB(t)
	reseller := createReseller(t, models.ResellerApproved)
	r := resellerRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+reseller.APIKey)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func sessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", SessionAuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": GetUser(c).Email})
	})
	r.GET("/admin", SessionAuthMiddleware(), AdminMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

var sessionUserSeq atomic.Int64

func createSession(t *testing.T, role string, expiresAt time.Time) *models.Session {
	t.Helper()
	email := fmt.Sprintf("%s-session-%d@example.com", role, sessionUserSeq.Add(1))
	user := &models.User{Email: email, PasswordHash: "x", Role: role, IsActive: true}
	require.NoError(t, database.DB.Create(user).Error)
	session := &models.Session{
		Token:     services.GenerateSessionToken(),
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, database.DB.Create(session).Error)
	return session
}

func TestSessionAuth(t *testing.T) {
	setupTestDB(t)
	r := sessionRouter()

	// No cookie.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid session.
	session := createSession(t, models.RoleUser, time.Now().Add(time.Hour))
	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: session.Token})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Expired session.
	expired := createSession(t, models.RoleUser, time.Now().Add(-time.Hour))
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: expired.Token})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminMiddleware(t *testing.T) {
	setupTestDB(t)
	r := sessionRouter()

	user := createSession(t, models.RoleUser, time.Now().Add(time.Hour))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: user.Token})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := createSession(t, models.RoleAdmin, time.Now().Add(time.Hour))
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: admin.Token})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
