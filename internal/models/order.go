package models

import (
	"time"
)

// Order statuses
const (
	OrderPending    = "PENDING"
	OrderProcessing = "PROCESSING"
	OrderCompleted  = "COMPLETED"
	OrderCancelled  = "CANCELLED"
	OrderRefunded   = "REFUNDED"
)

// Payment statuses
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
	PaymentCancelled = "CANCELLED"
	PaymentRefunded  = "REFUNDED"
)

// Supported currencies. Plans carry two independent price columns; the
// order amount is taken from one of them, never converted.
const (
	CurrencyLocal = "IDR"
	CurrencyUSD   = "USD"
)

// Order binds a buyer, a plan and (once payment completes) an issued
// license key. The key is attached only when payment_status reaches
// COMPLETED, inside the same transaction that flips the status.
type Order struct {
	BaseModel
	OrderCode     string     `json:"order_code" gorm:"uniqueIndex;not null;size:32"`
	UserID        uint       `json:"user_id" gorm:"not null;index"`
	PlanID        uint       `json:"plan_id" gorm:"not null;index"`
	TotalAmount   int64      `json:"total_amount" gorm:"not null"`
	Currency      string     `json:"currency" gorm:"not null;size:10"`
	Status        string     `json:"status" gorm:"not null;size:20;default:'PENDING';index"`
	PaymentStatus string     `json:"payment_status" gorm:"not null;size:20;default:'PENDING';index"`
	PaymentMethod string     `json:"payment_method" gorm:"size:50"`
	PaidAt        *time.Time `json:"paid_at"`
	LicenseKeyID  *uint      `json:"license_key_id" gorm:"index"`

	User       User        `json:"-" gorm:"foreignKey:UserID"`
	Plan       Plan        `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
	LicenseKey *LicenseKey `json:"license_key,omitempty" gorm:"foreignKey:LicenseKeyID"`
}

// TableName specifies the table name
func (Order) TableName() string {
	return "orders"
}
