package models

import (
	"time"
)

// Reseller statuses
const (
	ResellerPending   = "PENDING"
	ResellerApproved  = "APPROVED"
	ResellerSuspended = "SUSPENDED"
)

// Reseller transaction types
const (
	TxPurchase = "PURCHASE"
	TxCredit   = "CREDIT"
)

// Reseller is a partner account with a prepaid balance and free-key
// issuance quotas. Balance is stored in minor currency units and must
// never go negative: every deduction is a conditional update checked
// against the current balance inside a transaction.
//
// Quota counters reset lazily: daily_reset_at / monthly_reset_at mark the
// start of the window the counters belong to, and a read or issuance that
// crosses a day/month boundary zeroes them before checking.
type Reseller struct {
	BaseModel
	UserID          uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	APIKey          string `json:"api_key" gorm:"uniqueIndex;not null;size:64"`
	Status          string `json:"status" gorm:"not null;size:20;default:'PENDING';index"`
	Balance         int64  `json:"balance" gorm:"not null;default:0"`
	TotalSpent      int64  `json:"total_spent" gorm:"not null;default:0"`
	DiscountPercent int    `json:"discount_percent" gorm:"default:0"`
	MaxKeysPerOrder int    `json:"max_keys_per_order" gorm:"default:50"`

	FreeKeyPlanID    *uint     `json:"free_key_plan_id"`
	DailyFreeLimit   int       `json:"daily_free_limit" gorm:"default:0"`
	MonthlyFreeLimit int       `json:"monthly_free_limit" gorm:"default:0"`
	DailyFreeUsed    int       `json:"daily_free_used" gorm:"default:0"`
	MonthlyFreeUsed  int       `json:"monthly_free_used" gorm:"default:0"`
	DailyResetAt     time.Time `json:"daily_reset_at"`
	MonthlyResetAt   time.Time `json:"monthly_reset_at"`

	User        User  `json:"-" gorm:"foreignKey:UserID"`
	FreeKeyPlan *Plan `json:"free_key_plan,omitempty" gorm:"foreignKey:FreeKeyPlanID"`
}

// TableName specifies the table name
func (Reseller) TableName() string {
	return "resellers"
}

// IsApproved reports whether the reseller may use the partner API.
func (r *Reseller) IsApproved() bool {
	return r.Status == ResellerApproved
}

// UnitPrice applies the reseller's discount to a plan's reseller price.
func (r *Reseller) UnitPrice(plan *Plan) int64 {
	price := plan.ResellerPrice
	if r.DiscountPercent > 0 {
		price = price - price*int64(r.DiscountPercent)/100
	}
	return price
}

// DayStart returns the start of the wall-clock day containing t.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthStart returns the start of the calendar month containing t.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// QuotaWindow is one side of a free-key quota check.
type QuotaWindow struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// Quota is the daily/monthly free-key allowance as seen at one instant.
type Quota struct {
	Daily   QuotaWindow `json:"daily"`
	Monthly QuotaWindow `json:"monthly"`
}

// QuotaAt derives the reseller's quota at the given time, applying the
// lazy window reset without mutating the receiver.
func (r *Reseller) QuotaAt(now time.Time) Quota {
	dailyUsed := r.DailyFreeUsed
	if DayStart(now).After(r.DailyResetAt) {
		dailyUsed = 0
	}
	monthlyUsed := r.MonthlyFreeUsed
	if MonthStart(now).After(r.MonthlyResetAt) {
		monthlyUsed = 0
	}
	return Quota{
		Daily:   QuotaWindow{Used: dailyUsed, Limit: r.DailyFreeLimit, Remaining: maxInt(0, r.DailyFreeLimit-dailyUsed)},
		Monthly: QuotaWindow{Used: monthlyUsed, Limit: r.MonthlyFreeLimit, Remaining: maxInt(0, r.MonthlyFreeLimit-monthlyUsed)},
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ResellerTransaction is one row of the append-only balance ledger.
// balance_after snapshots the reseller's balance immediately after the
// transaction was applied; rows are never edited retroactively.
type ResellerTransaction struct {
	BaseModel
	ResellerID   uint   `json:"reseller_id" gorm:"not null;index"`
	Type         string `json:"type" gorm:"not null;size:20;index"`
	Amount       int64  `json:"amount" gorm:"not null"` // signed, negative for PURCHASE
	Description  string `json:"description" gorm:"size:255"`
	BalanceAfter int64  `json:"balance_after" gorm:"not null"`

	Reseller Reseller `json:"-" gorm:"foreignKey:ResellerID"`
}

// TableName specifies the table name
func (ResellerTransaction) TableName() string {
	return "reseller_transactions"
}
