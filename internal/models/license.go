package models

import (
	"time"
)

// License key statuses
const (
	LicenseInactive  = "INACTIVE"
	LicenseActive    = "ACTIVE"
	LicenseExpired   = "EXPIRED"
	LicenseSuspended = "SUSPENDED"
	LicenseRevoked   = "REVOKED"
	LicenseBanned    = "BANNED"
)

// License key sources
const (
	SourceOrder     = "ORDER"
	SourcePurchased = "PURCHASED"
	SourceFree      = "FREE"
)

// RemainingLifetime is the sentinel RemainingDays returns for keys that
// never expire.
const RemainingLifetime = -1

// DeviceLivenessWindow bounds how long a device counts against a license's
// device cap after its last heartbeat.
const DeviceLivenessWindow = 30 * 24 * time.Hour

// LicenseKey represents an issued credential granting use of the product
// under a plan's terms.
//
// Expiry is never persisted as a status transition: expires_at is written
// once on first activation and EXPIRED is derived at read time by
// DeriveStatus. A nil expires_at on an activated key means lifetime.
type LicenseKey struct {
	BaseModel
	Key         string     `json:"key" gorm:"uniqueIndex;not null;size:64"`
	PlanID      uint       `json:"plan_id" gorm:"not null;index"`
	UserID      *uint      `json:"user_id" gorm:"index"`     // buyer, nil for unassigned reseller stock
	ResellerID  *uint      `json:"reseller_id" gorm:"index"` // issuing reseller, nil for direct orders
	Source      string     `json:"source" gorm:"not null;size:20;index"`
	Status      string     `json:"status" gorm:"not null;size:20;default:'INACTIVE';index"`
	ActivatedAt *time.Time `json:"activated_at"`
	ExpiresAt   *time.Time `json:"expires_at" gorm:"index"`
	MaxDevices  int        `json:"max_devices" gorm:"not null;default:1"`
	DeviceCount int        `json:"device_count" gorm:"not null;default:0"`

	Plan        Plan               `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
	Activations []DeviceActivation `json:"activations,omitempty" gorm:"foreignKey:LicenseKeyID"`
}

// TableName specifies the table name
func (LicenseKey) TableName() string {
	return "license_keys"
}

// DeviceActivation records that a specific device has consumed one of a
// license's device slots. Rows are never hard-deleted; liveness is judged
// from last_seen_at.
type DeviceActivation struct {
	BaseModel
	LicenseKeyID uint      `json:"license_key_id" gorm:"not null;index:idx_license_device,unique"`
	DeviceID     string    `json:"device_id" gorm:"not null;size:128;index:idx_license_device,unique"`
	DeviceName   string    `json:"device_name" gorm:"size:100"`
	ActivatedAt  time.Time `json:"activated_at"`
	LastSeenAt   time.Time `json:"last_seen_at" gorm:"index"`
}

// TableName specifies the table name
func (DeviceActivation) TableName() string {
	return "device_activations"
}

// IsLive reports whether the activation still counts against the device cap.
func (d *DeviceActivation) IsLive(now time.Time) bool {
	return now.Sub(d.LastSeenAt) <= DeviceLivenessWindow
}

// DeriveStatus computes the effective status of the key at the given time.
// Stored ACTIVE with a past expires_at reads as EXPIRED; every other stored
// status is authoritative. Callers must use this, not the raw column, when
// presenting a key.
func (k *LicenseKey) DeriveStatus(now time.Time) string {
	if k.Status == LicenseActive && k.ExpiresAt != nil && now.After(*k.ExpiresAt) {
		return LicenseExpired
	}
	return k.Status
}

// RemainingDays returns whole days until expiry at the given time, clamped
// to zero for expired keys. Keys with no expires_at (lifetime keys and
// keys whose clock has not started) return RemainingLifetime.
func (k *LicenseKey) RemainingDays(now time.Time) int {
	if k.ExpiresAt == nil {
		return RemainingLifetime
	}
	remaining := k.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}

// IsTerminal reports whether the key admits no further transitions.
func (k *LicenseKey) IsTerminal() bool {
	return k.Status == LicenseRevoked || k.Status == LicenseBanned
}

// ValidLicenseStatus reports whether s is a known license status.
func ValidLicenseStatus(s string) bool {
	switch s {
	case LicenseInactive, LicenseActive, LicenseExpired, LicenseSuspended, LicenseRevoked, LicenseBanned:
		return true
	}
	return false
}
