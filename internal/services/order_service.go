package services

import (
	"errors"
	"time"

	"license-api/internal/database"
	"license-api/internal/models"
	"license-api/pkg/logging"

	"gorm.io/gorm"
)

// OrderService implements the order to license issuance flow. Payment
// confirmation and key issuance always commit together: an order can never
// be COMPLETED without its key, and a key is never issued for an order
// that stays PENDING.
type OrderService struct {
	db    *gorm.DB
	email *EmailService

	Now func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService() *OrderService {
	return &OrderService{
		db:    database.GetDB(),
		email: NewEmailService(),
		Now:   time.Now,
	}
}

// CreateOrder opens a PENDING order for a plan. The amount is read from
// the plan's local or USD price column by currency; the two columns are
// independent prices, never a conversion of each other.
func (s *OrderService) CreateOrder(userID, planID uint, currency, paymentMethod string) (*models.Order, error) {
	plan, err := database.GetActivePlanByID(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanInactive
		}
		return nil, err
	}

	amount := plan.Price
	if currency == models.CurrencyUSD {
		amount = plan.PriceUSD
	} else {
		currency = models.CurrencyLocal
	}

	order := &models.Order{
		OrderCode:     GenerateOrderCode(),
		UserID:        userID,
		PlanID:        planID,
		TotalAmount:   amount,
		Currency:      currency,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: paymentMethod,
	}
	if err := database.CreateOrder(order); err != nil {
		return nil, err
	}

	logging.Infof("Order %s created for user %d, plan %d", order.OrderCode, userID, planID)
	order.Plan = *plan
	return order, nil
}

// ConfirmPayment completes payment on an order and issues its license key
// in one transaction. The key is activated immediately: its clock starts
// at payment time, not at first device activation. A second confirmation
// finds no PENDING row to update and fails with ErrAlreadyConfirmed
// without issuing anything.
func (s *OrderService) ConfirmPayment(orderID uint) (*models.Order, error) {
	now := s.Now()

	var confirmed *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Plan").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		paid, err := database.MarkOrderPaid(tx, order.ID, now)
		if err != nil {
			return err
		}
		if !paid {
			return ErrAlreadyConfirmed
		}

		keys, err := IssueKeys(tx, &order.Plan, models.SourceOrder, &order.UserID, nil, 1)
		if err != nil {
			return err
		}
		key := keys[0]

		// Auto-activate: payment starts the license clock.
		expiresAt := order.Plan.ExpiryFrom(now)
		err = tx.Model(&models.LicenseKey{}).Where("id = ?", key.ID).
			Updates(map[string]interface{}{
				"status":       models.LicenseActive,
				"activated_at": now,
				"expires_at":   expiresAt,
			}).Error
		if err != nil {
			return err
		}
		key.Status = models.LicenseActive
		key.ActivatedAt = &now
		key.ExpiresAt = expiresAt

		if err := database.AttachLicenseKey(tx, order.ID, key.ID); err != nil {
			return err
		}

		order.Status = models.OrderCompleted
		order.PaymentStatus = models.PaymentCompleted
		order.PaidAt = &now
		order.LicenseKeyID = &key.ID
		order.LicenseKey = &key
		confirmed = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Infof("Order %s confirmed, license %s issued", confirmed.OrderCode, confirmed.LicenseKey.Key)

	// Delivery failure never unwinds the sale; it is logged and the key
	// stays visible in the buyer's dashboard.
	if user, err := database.GetUserByID(confirmed.UserID); err == nil {
		if err := s.email.SendLicenseKey(user, confirmed); err != nil {
			logging.Errorf("Failed to send license key email for order %s: %v", confirmed.OrderCode, err)
		}
	}

	return confirmed, nil
}

// CancelOrder cancels an order that is still awaiting payment. Completed
// and already-cancelled orders are left untouched.
func (s *OrderService) CancelOrder(orderID uint) (*models.Order, error) {
	var cancelled *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		ok, err := database.MarkOrderCancelled(tx, order.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotCancellable
		}

		order.Status = models.OrderCancelled
		order.PaymentStatus = models.PaymentCancelled
		cancelled = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Infof("Order %s cancelled", cancelled.OrderCode)
	return cancelled, nil
}

// GetOrder returns an order by code, scoped to its owner unless the
// caller is an admin.
func (s *OrderService) GetOrder(code string, userID uint, isAdmin bool) (*models.Order, error) {
	order, err := database.GetOrderByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrNotFound
	}
	return order, nil
}

// UserOrders returns a user's order history.
func (s *OrderService) UserOrders(userID uint) ([]models.Order, error) {
	return database.GetUserOrders(userID)
}
