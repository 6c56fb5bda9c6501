package services

import (
	"testing"
	"time"

	"license-api/internal/database"
	"license-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestLicenseService() *LicenseService {
	s := NewLicenseService()
	s.Now = func() time.Time { return fixedNow }
	return s
}

func TestActivateFirstDeviceStartsClock(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Monthly", 80000, models.DurationMonth, 1, 2)
	key := issueTestKey(t, plan)
	s := newTestLicenseService()

	license, err := s.Activate(key.Key, "device-1", "Office PC")
	require.NoError(t, err)

	assert.Equal(t, models.LicenseActive, license.Status)
	require.NotNil(t, license.ActivatedAt)
	assert.True(t, license.ActivatedAt.Equal(fixedNow))
	require.NotNil(t, license.ExpiresAt)
	assert.True(t, license.ExpiresAt.Equal(fixedNow.AddDate(0, 1, 0)))
}

func TestActivateLifetimePlanLeavesExpiryNil(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Lifetime", 200000, models.DurationLifetime, 1, 1)
	key := issueTestKey(t, plan)
	s := newTestLicenseService()

	license, err := s.Activate(key.Key, "device-1", "")
	require.NoError(t, err)

	assert.Equal(t, models.LicenseActive, license.Status)
	assert.Nil(t, license.ExpiresAt)

	view, err := s.Status(key.Key)
	require.NoError(t, err)
	assert.True(t, view.IsLifetime)
	assert.Nil(t, view.DaysRemaining)
}

func TestActivateDeviceCap(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Duo", 80000, models.DurationMonth, 1, 2)
	key := issueTestKey(t, plan)
	s := newTestLicenseService()

	_, err := s.Activate(key.Key, "device-1", "")
	require.NoError(t, err)
	_, err = s.Activate(key.Key, "device-2", "")
	require.NoError(t, err)

	// The third device must fail and leave no activation row behind.
	_, err = s.Activate(key.Key, "device-3", "")
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	var count int64
	require.NoError(t, database.DB.Model(&models.DeviceActivation{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	var stored models.LicenseKey
	require.NoError(t, database.DB.Where("key = ?", key.Key).First(&stored).Error)
	assert.Equal(t, 2, stored.DeviceCount)
}

func TestActivateSameDeviceKeepsSlot(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Solo", 80000, models.DurationMonth, 1, 1)
	key := issueTestKey(t, plan)
	s := newTestLicenseService()

	_, err := s.Activate(key.Key, "device-1", "")
	require.NoError(t, err)

	// Re-activating the same device is not a second slot.
	_, err = s.Activate(key.Key, "device-1", "")
	require.NoError(t, err)

	var stored models.LicenseKey
	require.NoError(t, database.DB.Where("key = ?", key.Key).First(&stored).Error)
	assert.Equal(t, 1, stored.DeviceCount)
}

func TestActivateExpiredKeyRejected(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Weekly", 30000, models.DurationWeek, 1, 2)
	key := issueTestKey(t, plan)
	s := newTestLicenseService()

	_, err := s.Activate(key.Key, "device-1", "")
	require.NoError(t, err)

	// A second device after expiry must be rejected even though the
	// stored status column still says ACTIVE.
	s.Now = func() time.Time { return fixedNow.AddDate(0, 0, 8) }
	_, err = s.Activate(key.Key, "device-2", "")
	assert.ErrorIs(t, err, ErrLicenseNotUsable)
}

func TestActivateUnknownKey(t *testing.T) {
	setupTestDB(t)
	s := newTestLicenseService()

	_, err := s.Activate("XXXX-XXXX-XXXX-XXXX", "device-1", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHeartbeat(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Monthly", 80000, models.DurationMonth, 1, 2)
	key := issueTestKey(t, plan)
	s := newTestLicenseService()

	_, err := s.Activate(key.Key, "device-1", "")
	require.NoError(t, err)

	stored, err := database.GetLicenseByKey(key.Key)
	require.NoError(t, err)

	later := fixedNow.Add(time.Hour)
	s.Now = func() time.Time { return later }
	require.NoError(t, s.Heartbeat(key.Key, "device-1"))

	activation, err := database.GetDeviceActivation(stored.ID, "device-1")
	require.NoError(t, err)
	assert.True(t, activation.LastSeenAt.Equal(later))

	// Out-of-order heartbeats never move last_seen_at backwards.
	s.Now = func() time.Time { return fixedNow }
	require.NoError(t, s.Heartbeat(key.Key, "device-1"))
	activation, err = database.GetDeviceActivation(stored.ID, "device-1")
	require.NoError(t, err)
	assert.True(t, activation.LastSeenAt.Equal(later))

	// Unknown device on a known key is NotFound.
	assert.ErrorIs(t, s.Heartbeat(key.Key, "device-9"), ErrNotFound)
}

func TestStatusDerivesExpiry(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Weekly", 30000, models.DurationWeek, 1, 1)
	key := issueTestKey(t, plan)
	s := newTestLicenseService()

	view, err := s.Status(key.Key)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseInactive, view.Status)

	_, err = s.Activate(key.Key, "device-1", "")
	require.NoError(t, err)

	view, err = s.Status(key.Key)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseActive, view.Status)
	require.NotNil(t, view.DaysRemaining)
	assert.Equal(t, 7, *view.DaysRemaining)
	assert.Equal(t, 1, view.ActiveDevicesCount)

	// Past expiry the derived status flips without any write, and
	// days remaining clamps at zero.
	s.Now = func() time.Time { return fixedNow.AddDate(0, 0, 30) }
	view, err = s.Status(key.Key)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseExpired, view.Status)
	require.NotNil(t, view.DaysRemaining)
	assert.Equal(t, 0, *view.DaysRemaining)

	var stored models.LicenseKey
	require.NoError(t, database.DB.Where("key = ?", key.Key).First(&stored).Error)
	assert.Equal(t, models.LicenseActive, stored.Status)
}

func TestSetStatusTransitions(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Monthly", 80000, models.DurationMonth, 1, 1)
	key := issueTestKey(t, plan)
	s := newTestLicenseService()

	_, err := s.Activate(key.Key, "device-1", "")
	require.NoError(t, err)

	// Suspend is recoverable.
	license, err := s.SetStatus(key.Key, models.LicenseSuspended)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseSuspended, license.Status)

	license, err = s.SetStatus(key.Key, models.LicenseActive)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseActive, license.Status)

	// Suspended keys reject activation.
	_, err = s.SetStatus(key.Key, models.LicenseSuspended)
	require.NoError(t, err)
	_, err = s.Activate(key.Key, "device-1", "")
	assert.ErrorIs(t, err, ErrLicenseNotUsable)

	// Revoke is terminal.
	_, err = s.SetStatus(key.Key, models.LicenseRevoked)
	require.NoError(t, err)
	_, err = s.SetStatus(key.Key, models.LicenseActive)
	assert.ErrorIs(t, err, ErrTerminalStatus)
	_, err = s.SetStatus(key.Key, models.LicenseBanned)
	assert.ErrorIs(t, err, ErrTerminalStatus)
}

func TestUserLicenses(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Monthly", 80000, models.DurationMonth, 1, 2)
	user := createTestUser(t, "buyer@example.com")
	other := createTestUser(t, "other@example.com")
	s := newTestLicenseService()

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := IssueKeys(tx, plan, models.SourceOrder, &user.ID, nil, 2); err != nil {
			return err
		}
		_, err := IssueKeys(tx, plan, models.SourceOrder, &other.ID, nil, 1)
		return err
	})
	require.NoError(t, err)

	views, err := s.UserLicenses(user.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, view := range views {
		assert.Equal(t, models.LicenseInactive, view.Status)
		assert.Equal(t, plan.ID, view.PlanID)
		assert.Nil(t, view.DaysRemaining)
	}
}
