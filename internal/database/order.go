package database

import (
	"time"

	"license-api/internal/models"

	"gorm.io/gorm"
)

// CreateOrder creates an order
func CreateOrder(order *models.Order) error {
	return DB.Create(order).Error
}

// GetOrderByID gets an order by numeric ID
func GetOrderByID(id uint) (*models.Order, error) {
	var order models.Order
	err := DB.Preload("Plan").Preload("LicenseKey").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByCode gets an order by its human-referenceable code
func GetOrderByCode(code string) (*models.Order, error) {
	var order models.Order
	err := DB.Preload("Plan").Preload("LicenseKey").
		Where("order_code = ?", code).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetUserOrders gets a user's orders, newest first
func GetUserOrders(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := DB.Preload("Plan").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// MarkOrderPaid flips a pending order to COMPLETED/COMPLETED. The
// conditional on payment_status is the double-confirmation guard: only one
// of two concurrent confirmations can match the PENDING row.
func MarkOrderPaid(tx *gorm.DB, orderID uint, paidAt time.Time) (bool, error) {
	result := tx.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":         models.OrderCompleted,
			"payment_status": models.PaymentCompleted,
			"paid_at":        paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkOrderCancelled cancels an order that is still awaiting payment.
func MarkOrderCancelled(tx *gorm.DB, orderID uint) (bool, error) {
	result := tx.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":         models.OrderCancelled,
			"payment_status": models.PaymentCancelled,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AttachLicenseKey links the issued key to its order
func AttachLicenseKey(tx *gorm.DB, orderID, licenseKeyID uint) error {
	return tx.Model(&models.Order{}).Where("id = ?", orderID).
		Update("license_key_id", licenseKeyID).Error
}
