package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Plan duration types
const (
	DurationDay      = "DAY"
	DurationWeek     = "WEEK"
	DurationMonth    = "MONTH"
	DurationQuarter  = "QUARTER"
	DurationYear     = "YEAR"
	DurationLifetime = "LIFETIME"
)

// Plan represents a purchasable offering. Plans are read-mostly reference
// data: editing a plan never touches keys already issued under it, because
// max_devices and duration are copied onto the key at issuance.
type Plan struct {
	BaseModel
	Name          string `json:"name" gorm:"not null;size:100"`
	NameEn        string `json:"name_en" gorm:"size:100"`
	Price         int64  `json:"price" gorm:"not null"`     // local currency, minor units
	PriceUSD      int64  `json:"price_usd" gorm:"not null"` // cents
	ResellerPrice int64  `json:"reseller_price" gorm:"not null"`
	DurationType  string `json:"duration_type" gorm:"not null;size:20"`
	DurationValue int    `json:"duration_value" gorm:"default:1"`
	MaxDevices    int    `json:"max_devices" gorm:"default:1"`
	Features      string `json:"features" gorm:"type:text"` // JSON array of strings
	IsActive      bool   `json:"is_active" gorm:"default:true;index"`
	IsPopular     bool   `json:"is_popular" gorm:"default:false"`
	IsFeatured    bool   `json:"is_featured" gorm:"default:false"`
	Priority      int    `json:"priority" gorm:"default:0"`
}

// TableName specifies the table name
func (Plan) TableName() string {
	return "plans"
}

// FeatureList parses the features column. The column is only ever written
// through SetFeatures, so a parse failure here means hand-edited data; it
// is reported rather than swallowed.
func (p *Plan) FeatureList() ([]string, error) {
	if p.Features == "" {
		return nil, nil
	}
	var features []string
	if err := json.Unmarshal([]byte(p.Features), &features); err != nil {
		return nil, fmt.Errorf("invalid features for plan %d: %w", p.ID, err)
	}
	return features, nil
}

// SetFeatures validates and stores the feature list as JSON.
func (p *Plan) SetFeatures(features []string) error {
	data, err := json.Marshal(features)
	if err != nil {
		return err
	}
	p.Features = string(data)
	return nil
}

// IsLifetime reports whether keys issued under this plan never expire.
func (p *Plan) IsLifetime() bool {
	return p.DurationType == DurationLifetime
}

// ExpiryFrom computes the expiry for a key activated at the given time.
// Returns nil for lifetime plans.
func (p *Plan) ExpiryFrom(activatedAt time.Time) *time.Time {
	value := p.DurationValue
	if value <= 0 {
		value = 1
	}

	var expires time.Time
	switch p.DurationType {
	case DurationDay:
		expires = activatedAt.AddDate(0, 0, value)
	case DurationWeek:
		expires = activatedAt.AddDate(0, 0, 7*value)
	case DurationMonth:
		expires = activatedAt.AddDate(0, value, 0)
	case DurationQuarter:
		expires = activatedAt.AddDate(0, 3*value, 0)
	case DurationYear:
		expires = activatedAt.AddDate(value, 0, 0)
	case DurationLifetime:
		return nil
	default:
		// Unknown duration types behave as single days rather than
		// silently minting lifetime keys.
		expires = activatedAt.AddDate(0, 0, value)
	}
	return &expires
}

// ValidDurationType reports whether t is a known duration type.
func ValidDurationType(t string) bool {
	switch t {
	case DurationDay, DurationWeek, DurationMonth, DurationQuarter, DurationYear, DurationLifetime:
		return true
	}
	return false
}
