package database

import (
	"time"

	"license-api/internal/models"

	"gorm.io/gorm"
)

// GetLicenseByKey gets a license key by its key string
func GetLicenseByKey(key string) (*models.LicenseKey, error) {
	var license models.LicenseKey
	err := DB.Preload("Plan").Where("key = ?", key).First(&license).Error
	if err != nil {
		return nil, err
	}
	return &license, nil
}

// GetUserLicenses gets all license keys owned by a user
func GetUserLicenses(userID uint) ([]models.LicenseKey, error) {
	var licenses []models.LicenseKey
	err := DB.Preload("Plan").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&licenses).Error
	return licenses, err
}

// GetResellerLicenses gets one page of a reseller's issued keys, optionally
// filtered by source (PURCHASED or FREE).
func GetResellerLicenses(resellerID uint, source string, page, pageSize int) ([]models.LicenseKey, int64, error) {
	query := DB.Model(&models.LicenseKey{}).Where("reseller_id = ?", resellerID)
	if source != "" {
		query = query.Where("source = ?", source)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var licenses []models.LicenseKey
	err := query.Preload("Plan").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&licenses).Error
	return licenses, total, err
}

// CountResellerLicensesByStatus counts a reseller's keys with the given
// stored status. Expiry is derived at read time, so EXPIRED counts use
// CountResellerExpired instead.
func CountResellerLicensesByStatus(resellerID uint, status string) (int64, error) {
	var count int64
	err := DB.Model(&models.LicenseKey{}).
		Where("reseller_id = ? AND status = ?", resellerID, status).
		Count(&count).Error
	return count, err
}

// CountResellerActive counts a reseller's keys that are stored ACTIVE and
// not past expiry at the given time.
func CountResellerActive(resellerID uint, now time.Time) (int64, error) {
	var count int64
	err := DB.Model(&models.LicenseKey{}).
		Where("reseller_id = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)",
			resellerID, models.LicenseActive, now).
		Count(&count).Error
	return count, err
}

// CountResellerExpired counts a reseller's keys whose derived status is
// EXPIRED at the given time.
func CountResellerExpired(resellerID uint, now time.Time) (int64, error) {
	var count int64
	err := DB.Model(&models.LicenseKey{}).
		Where("reseller_id = ? AND status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
			resellerID, models.LicenseActive, now).
		Count(&count).Error
	return count, err
}

// ClaimDeviceSlot atomically takes one device slot on a license. The
// conditional update is the device-cap guard: two concurrent activations at
// the cap cannot both match device_count < max_devices.
func ClaimDeviceSlot(tx *gorm.DB, licenseID uint) (bool, error) {
	result := tx.Model(&models.LicenseKey{}).
		Where("id = ? AND device_count < max_devices", licenseID).
		Update("device_count", gorm.Expr("device_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetDeviceActivation gets the activation of a device on a license
func GetDeviceActivation(licenseID uint, deviceID string) (*models.DeviceActivation, error) {
	var activation models.DeviceActivation
	err := DB.Where("license_key_id = ? AND device_id = ?", licenseID, deviceID).
		First(&activation).Error
	if err != nil {
		return nil, err
	}
	return &activation, nil
}

// GetLiveActivations lists activations on a license whose last heartbeat is
// inside the liveness window.
func GetLiveActivations(licenseID uint, now time.Time) ([]models.DeviceActivation, error) {
	var activations []models.DeviceActivation
	err := DB.Where("license_key_id = ? AND last_seen_at > ?",
		licenseID, now.Add(-models.DeviceLivenessWindow)).
		Order("activated_at ASC").Find(&activations).Error
	return activations, err
}

// TouchHeartbeat advances last_seen_at on an activation. The conditional
// keeps the column monotonically non-decreasing under reordered requests.
func TouchHeartbeat(licenseID uint, deviceID string, now time.Time) (bool, error) {
	result := DB.Model(&models.DeviceActivation{}).
		Where("license_key_id = ? AND device_id = ?", licenseID, deviceID).
		Where("last_seen_at <= ?", now).
		Update("last_seen_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	// Either the activation does not exist or an out-of-order heartbeat
	// arrived; the caller distinguishes with an existence check.
	var count int64
	err := DB.Model(&models.DeviceActivation{}).
		Where("license_key_id = ? AND device_id = ?", licenseID, deviceID).
		Count(&count).Error
	return count > 0, err
}
