package database

import (
	"time"

	"license-api/internal/models"

	"gorm.io/gorm"
)

// GetResellerByAPIKey gets a reseller by API key with its user preloaded
func GetResellerByAPIKey(apiKey string) (*models.Reseller, error) {
	var reseller models.Reseller
	err := DB.Preload("User").Where("api_key = ?", apiKey).First(&reseller).Error
	if err != nil {
		return nil, err
	}
	return &reseller, nil
}

// GetResellerByID gets a reseller by ID
func GetResellerByID(id uint) (*models.Reseller, error) {
	var reseller models.Reseller
	err := DB.Preload("User").First(&reseller, id).Error
	if err != nil {
		return nil, err
	}
	return &reseller, nil
}

// GetResellerByUserID gets the reseller record attached to a user
func GetResellerByUserID(userID uint) (*models.Reseller, error) {
	var reseller models.Reseller
	err := DB.Where("user_id = ?", userID).First(&reseller).Error
	if err != nil {
		return nil, err
	}
	return &reseller, nil
}

// ResetQuotaWindows applies the lazy day/month boundary reset to a
// reseller's free-key counters. Runs inside the issuing transaction so the
// subsequent conditional increment sees fresh counters.
func ResetQuotaWindows(tx *gorm.DB, resellerID uint, now time.Time) error {
	dayStart := models.DayStart(now)
	monthStart := models.MonthStart(now)

	err := tx.Model(&models.Reseller{}).
		Where("id = ? AND daily_reset_at < ?", resellerID, dayStart).
		Updates(map[string]interface{}{
			"daily_free_used": 0,
			"daily_reset_at":  dayStart,
		}).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.Reseller{}).
		Where("id = ? AND monthly_reset_at < ?", resellerID, monthStart).
		Updates(map[string]interface{}{
			"monthly_free_used": 0,
			"monthly_reset_at":  monthStart,
		}).Error
}

// ConsumeFreeKeyQuota atomically charges quantity against both free-key
// windows. The conditional is the quota guard: concurrent issuances cannot
// together push used past the limit.
func ConsumeFreeKeyQuota(tx *gorm.DB, resellerID uint, quantity int) (bool, error) {
	result := tx.Model(&models.Reseller{}).
		Where("id = ?", resellerID).
		Where("daily_free_used + ? <= daily_free_limit", quantity).
		Where("monthly_free_used + ? <= monthly_free_limit", quantity).
		Updates(map[string]interface{}{
			"daily_free_used":   gorm.Expr("daily_free_used + ?", quantity),
			"monthly_free_used": gorm.Expr("monthly_free_used + ?", quantity),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeductBalance atomically takes cost from a reseller's balance. The
// conditional balance >= cost is the non-negative-balance guard.
func DeductBalance(tx *gorm.DB, resellerID uint, cost int64) (bool, error) {
	result := tx.Model(&models.Reseller{}).
		Where("id = ? AND balance >= ?", resellerID, cost).
		Updates(map[string]interface{}{
			"balance":     gorm.Expr("balance - ?", cost),
			"total_spent": gorm.Expr("total_spent + ?", cost),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AddBalance credits a reseller's balance
func AddBalance(tx *gorm.DB, resellerID uint, amount int64) error {
	return tx.Model(&models.Reseller{}).Where("id = ?", resellerID).
		Update("balance", gorm.Expr("balance + ?", amount)).Error
}

// GetResellerForUpdate re-reads a reseller inside a transaction, after the
// conditional update that charged it, for ledger snapshots.
func GetResellerForUpdate(tx *gorm.DB, resellerID uint) (*models.Reseller, error) {
	var reseller models.Reseller
	err := tx.First(&reseller, resellerID).Error
	if err != nil {
		return nil, err
	}
	return &reseller, nil
}

// AppendTransaction appends one ledger row
func AppendTransaction(tx *gorm.DB, transaction *models.ResellerTransaction) error {
	return tx.Create(transaction).Error
}

// GetResellerTransactions gets one page of a reseller's ledger, newest first
func GetResellerTransactions(resellerID uint, page, pageSize int) ([]models.ResellerTransaction, int64, error) {
	query := DB.Model(&models.ResellerTransaction{}).Where("reseller_id = ?", resellerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []models.ResellerTransaction
	err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&transactions).Error
	return transactions, total, err
}

// UpdateResellerProfile applies a partial update to the reseller's user row
func UpdateResellerProfile(userID uint, updates map[string]interface{}) error {
	return DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}
