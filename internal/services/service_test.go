package services

import (
	"fmt"
	"testing"
	"time"

	"license-api/internal/config"
	"license-api/internal/database"
	"license-api/internal/models"
	"license-api/pkg/logging"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// setupTestDB points the global database handle at a fresh in-memory
// SQLite database for one test.
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
}

func createTestUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "x",
		Role:         models.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

func createTestPlan(t *testing.T, name string, resellerPrice int64, durationType string, durationValue, maxDevices int) *models.Plan {
	t.Helper()
	plan := &models.Plan{
		Name:          name,
		Price:         resellerPrice + 20000,
		PriceUSD:      10,
		ResellerPrice: resellerPrice,
		DurationType:  durationType,
		DurationValue: durationValue,
		MaxDevices:    maxDevices,
		IsActive:      true,
	}
	require.NoError(t, database.DB.Create(plan).Error)
	return plan
}

func createTestReseller(t *testing.T, balance int64, dailyLimit, monthlyLimit int, freeKeyPlanID *uint) *models.Reseller {
	t.Helper()
	user := createTestUser(t, fmt.Sprintf("reseller-%d@example.com", time.Now().UnixNano()))
	reseller := &models.Reseller{
		UserID:           user.ID,
		APIKey:           GenerateAPIKey(),
		Status:           models.ResellerApproved,
		Balance:          balance,
		DailyFreeLimit:   dailyLimit,
		MonthlyFreeLimit: monthlyLimit,
		FreeKeyPlanID:    freeKeyPlanID,
		DailyResetAt:     models.DayStart(fixedNow),
		MonthlyResetAt:   models.MonthStart(fixedNow),
		MaxKeysPerOrder:  50,
	}
	require.NoError(t, database.DB.Create(reseller).Error)
	return reseller
}

func issueTestKey(t *testing.T, plan *models.Plan) *models.LicenseKey {
	t.Helper()
	var keys []models.LicenseKey
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		keys, err = IssueKeys(tx, plan, models.SourceOrder, nil, nil, 1)
		return err
	})
	require.NoError(t, err)
	return &keys[0]
}
