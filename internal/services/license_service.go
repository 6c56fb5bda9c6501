package services

import (
	"errors"
	"time"

	"license-api/internal/database"
	"license-api/internal/models"
	"license-api/pkg/logging"

	"gorm.io/gorm"
)

// LicenseService implements the license key status machine: issuance,
// device activation against the device cap, heartbeats and the forced
// admin transitions. Expiry is never persisted; every read derives it
// from expires_at and the service clock.
type LicenseService struct {
	db *gorm.DB

	// Now is the service clock, overridable in tests.
	Now func() time.Time
}

// NewLicenseService creates a new license service
func NewLicenseService() *LicenseService {
	return &LicenseService{
		db:  database.GetDB(),
		Now: time.Now,
	}
}

// LicenseView is the presentation of a key with its derived fields. The
// stored status column is never rendered directly.
type LicenseView struct {
	Key                string     `json:"key"`
	PlanID             uint       `json:"plan_id"`
	PlanName           string     `json:"plan_name,omitempty"`
	Source             string     `json:"source"`
	Status             string     `json:"status"`
	ActivatedAt        *time.Time `json:"activated_at,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	DaysRemaining      *int       `json:"days_remaining,omitempty"`
	IsLifetime         bool       `json:"is_lifetime"`
	MaxDevices         int        `json:"max_devices"`
	ActiveDevicesCount int        `json:"active_devices_count"`
	CreatedAt          time.Time  `json:"created_at"`
}

// IssueKeys creates quantity INACTIVE keys for the plan inside the given
// transaction. Duration and device limit are copied from the plan at
// issuance so later plan edits cannot reach issued keys.
func IssueKeys(tx *gorm.DB, plan *models.Plan, source string, userID, resellerID *uint, quantity int) ([]models.LicenseKey, error) {
	keys := make([]models.LicenseKey, 0, quantity)
	for i := 0; i < quantity; i++ {
		key := models.LicenseKey{
			Key:        GenerateLicenseKey(),
			PlanID:     plan.ID,
			UserID:     userID,
			ResellerID: resellerID,
			Source:     source,
			Status:     models.LicenseInactive,
			MaxDevices: plan.MaxDevices,
		}
		if err := tx.Create(&key).Error; err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Activate consumes a device slot on a license. The first activation
// starts the license clock: activated_at is set and expires_at computed
// from the plan duration copied at issuance (nil for lifetime). A device
// that already holds a slot re-activates without consuming another one.
func (s *LicenseService) Activate(key, deviceID, deviceName string) (*models.LicenseKey, error) {
	now := s.Now()

	var out *models.LicenseKey
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var license models.LicenseKey
		if err := tx.Preload("Plan").Where("key = ?", key).First(&license).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		switch license.DeriveStatus(now) {
		case models.LicenseInactive, models.LicenseActive:
		default:
			return ErrLicenseNotUsable
		}

		// Same device re-activating keeps its slot.
		var existing models.DeviceActivation
		err := tx.Where("license_key_id = ? AND device_id = ?", license.ID, deviceID).
			First(&existing).Error
		if err == nil {
			if now.After(existing.LastSeenAt) {
				existing.LastSeenAt = now
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
			}
			out = &license
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if license.Status == models.LicenseInactive {
			// First activation starts the clock. The conditional keeps a
			// concurrent first activation from recomputing expiry.
			expiresAt := license.Plan.ExpiryFrom(now)
			result := tx.Model(&models.LicenseKey{}).
				Where("id = ? AND status = ?", license.ID, models.LicenseInactive).
				Updates(map[string]interface{}{
					"status":       models.LicenseActive,
					"activated_at": now,
					"expires_at":   expiresAt,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				license.Status = models.LicenseActive
				license.ActivatedAt = &now
				license.ExpiresAt = expiresAt
			}
		}

		claimed, err := database.ClaimDeviceSlot(tx, license.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrCapacityExceeded
		}

		activation := models.DeviceActivation{
			LicenseKeyID: license.ID,
			DeviceID:     deviceID,
			DeviceName:   deviceName,
			ActivatedAt:  now,
			LastSeenAt:   now,
		}
		if err := tx.Create(&activation).Error; err != nil {
			return err
		}

		license.DeviceCount++
		out = &license
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Infof("License %s activated for device %s", out.Key, deviceID)
	return out, nil
}

// Heartbeat advances the device's last-seen timestamp. Out-of-order
// heartbeats never move it backwards.
func (s *LicenseService) Heartbeat(key, deviceID string) error {
	license, err := database.GetLicenseByKey(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	found, err := database.TouchHeartbeat(license.ID, deviceID, s.Now())
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Status returns the derived view of a key.
func (s *LicenseService) Status(key string) (*LicenseView, error) {
	license, err := database.GetLicenseByKey(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.view(license)
}

// UserLicenses returns the derived views of all keys a user owns.
func (s *LicenseService) UserLicenses(userID uint) ([]LicenseView, error) {
	licenses, err := database.GetUserLicenses(userID)
	if err != nil {
		return nil, err
	}

	views := make([]LicenseView, 0, len(licenses))
	for i := range licenses {
		view, err := s.view(&licenses[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// SetStatus applies a forced admin transition. REVOKED and BANNED are
// terminal; SUSPENDED may return to ACTIVE.
func (s *LicenseService) SetStatus(key, status string) (*models.LicenseKey, error) {
	if !models.ValidLicenseStatus(status) || status == models.LicenseExpired || status == models.LicenseInactive {
		return nil, ErrLicenseNotUsable
	}

	license, err := database.GetLicenseByKey(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if license.IsTerminal() {
		return nil, ErrTerminalStatus
	}
	if status == models.LicenseActive && license.Status != models.LicenseSuspended {
		// ACTIVE is only reachable by admins as a resume from SUSPENDED.
		return nil, ErrLicenseNotUsable
	}

	if err := s.db.Model(license).Update("status", status).Error; err != nil {
		return nil, err
	}
	license.Status = status

	logging.Infof("License %s forced to %s", license.Key, status)
	return license, nil
}

// view assembles the derived presentation of a key.
func (s *LicenseService) view(license *models.LicenseKey) (*LicenseView, error) {
	now := s.Now()

	live, err := database.GetLiveActivations(license.ID, now)
	if err != nil {
		return nil, err
	}

	view := LicenseView{
		Key:                license.Key,
		PlanID:             license.PlanID,
		PlanName:           license.Plan.Name,
		Source:             license.Source,
		Status:             license.DeriveStatus(now),
		ActivatedAt:        license.ActivatedAt,
		ExpiresAt:          license.ExpiresAt,
		MaxDevices:         license.MaxDevices,
		ActiveDevicesCount: len(live),
		CreatedAt:          license.CreatedAt,
	}

	if license.ActivatedAt != nil {
		if days := license.RemainingDays(now); days == models.RemainingLifetime {
			view.IsLifetime = true
		} else {
			view.DaysRemaining = &days
		}
	}
	return &view, nil
}
