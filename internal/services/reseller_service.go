package services

import (
	"errors"
	"fmt"
	"time"

	"license-api/internal/database"
	"license-api/internal/models"
	"license-api/pkg/logging"

	"gorm.io/gorm"
)

// Batch size bounds for reseller key issuance.
const (
	MinKeysPerRequest = 1
	MaxKeysPerRequest = 50
)

// ResellerService implements the reseller quota and balance ledger. Every
// check-then-mutate sequence (quota charge, balance deduction) runs as a
// conditional update inside one transaction with the key issuance, so a
// failed check leaves no partial state behind.
type ResellerService struct {
	db *gorm.DB

	Now func() time.Time
}

// NewResellerService creates a new reseller service
func NewResellerService() *ResellerService {
	return &ResellerService{
		db:  database.GetDB(),
		Now: time.Now,
	}
}

// CheckQuota returns the reseller's free-key allowance at the current
// instant. The day/month window reset is derived, not persisted, so a
// plain read never writes.
func (s *ResellerService) CheckQuota(resellerID uint) (*models.Quota, error) {
	reseller, err := database.GetResellerByID(resellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	quota := reseller.QuotaAt(s.Now())
	return &quota, nil
}

// IssueFreeKeys issues quantity keys under the reseller's configured
// free-key plan. The batch is all-or-nothing: if either window cannot
// absorb the full quantity no key is issued and no counter moves.
func (s *ResellerService) IssueFreeKeys(resellerID uint, quantity int) ([]models.LicenseKey, *models.Quota, error) {
	if quantity < MinKeysPerRequest || quantity > MaxKeysPerRequest {
		return nil, nil, ErrInvalidQuantity
	}
	now := s.Now()

	var keys []models.LicenseKey
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var reseller models.Reseller
		if err := tx.First(&reseller, resellerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if reseller.FreeKeyPlanID == nil {
			return ErrNoFreeKeyPlan
		}

		var plan models.Plan
		if err := tx.First(&plan, *reseller.FreeKeyPlanID).Error; err != nil {
			return err
		}

		if err := database.ResetQuotaWindows(tx, resellerID, now); err != nil {
			return err
		}

		charged, err := database.ConsumeFreeKeyQuota(tx, resellerID, quantity)
		if err != nil {
			return err
		}
		if !charged {
			return ErrQuotaExceeded
		}

		keys, err = IssueKeys(tx, &plan, models.SourceFree, nil, &resellerID, quantity)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	logging.Infof("Reseller %d issued %d free keys", resellerID, quantity)

	quota, err := s.CheckQuota(resellerID)
	if err != nil {
		return nil, nil, err
	}
	return keys, quota, nil
}

// PurchaseResult is the outcome of a successful key purchase.
type PurchaseResult struct {
	Keys             []models.LicenseKey        `json:"keys"`
	TotalCost        int64                      `json:"total_cost"`
	RemainingBalance int64                      `json:"remaining_balance"`
	Transaction      models.ResellerTransaction `json:"transaction"`
}

// PurchaseKeys buys quantity keys under the chosen plan against the
// reseller's prepaid balance. Balance deduction, ledger append and key
// issuance commit together or not at all.
func (s *ResellerService) PurchaseKeys(resellerID, planID uint, quantity int) (*PurchaseResult, error) {
	if quantity < MinKeysPerRequest || quantity > MaxKeysPerRequest {
		return nil, ErrInvalidQuantity
	}

	var result PurchaseResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var reseller models.Reseller
		if err := tx.First(&reseller, resellerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if reseller.MaxKeysPerOrder > 0 && quantity > reseller.MaxKeysPerOrder {
			return ErrInvalidQuantity
		}

		var plan models.Plan
		if err := tx.Where("id = ? AND is_active = ?", planID, true).First(&plan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlanInactive
			}
			return err
		}

		totalCost := reseller.UnitPrice(&plan) * int64(quantity)

		deducted, err := database.DeductBalance(tx, resellerID, totalCost)
		if err != nil {
			return err
		}
		if !deducted {
			return ErrInsufficientBalance
		}

		// Re-read for the ledger snapshot after the conditional deduction.
		charged, err := database.GetResellerForUpdate(tx, resellerID)
		if err != nil {
			return err
		}

		transaction := models.ResellerTransaction{
			ResellerID:   resellerID,
			Type:         models.TxPurchase,
			Amount:       -totalCost,
			Description:  fmt.Sprintf("Purchased %d x %s", quantity, plan.Name),
			BalanceAfter: charged.Balance,
		}
		if err := database.AppendTransaction(tx, &transaction); err != nil {
			return err
		}

		keys, err := IssueKeys(tx, &plan, models.SourcePurchased, nil, &resellerID, quantity)
		if err != nil {
			return err
		}

		result = PurchaseResult{
			Keys:             keys,
			TotalCost:        totalCost,
			RemainingBalance: charged.Balance,
			Transaction:      transaction,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Infof("Reseller %d purchased %d keys for %d", resellerID, quantity, result.TotalCost)
	return &result, nil
}

// CreditBalance tops up a reseller's balance and records the CREDIT in the
// ledger. Admin-only; the handler enforces the role.
func (s *ResellerService) CreditBalance(resellerID uint, amount int64, description string) (*models.ResellerTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidQuantity
	}

	var transaction models.ResellerTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var reseller models.Reseller
		if err := tx.First(&reseller, resellerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := database.AddBalance(tx, resellerID, amount); err != nil {
			return err
		}

		credited, err := database.GetResellerForUpdate(tx, resellerID)
		if err != nil {
			return err
		}

		transaction = models.ResellerTransaction{
			ResellerID:   resellerID,
			Type:         models.TxCredit,
			Amount:       amount,
			Description:  description,
			BalanceAfter: credited.Balance,
		}
		return database.AppendTransaction(tx, &transaction)
	})
	if err != nil {
		return nil, err
	}

	logging.Infof("Reseller %d credited %d", resellerID, amount)
	return &transaction, nil
}

// BalancePage is one page of the ledger with the current balance.
type BalancePage struct {
	Balance      int64                        `json:"balance"`
	Transactions []models.ResellerTransaction `json:"transactions"`
	Total        int64                        `json:"total"`
}

// Balance returns the reseller's current balance with one page of the
// ledger, newest first.
func (s *ResellerService) Balance(resellerID uint, page, pageSize int) (*BalancePage, error) {
	reseller, err := database.GetResellerByID(resellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	transactions, total, err := database.GetResellerTransactions(resellerID, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &BalancePage{
		Balance:      reseller.Balance,
		Transactions: transactions,
		Total:        total,
	}, nil
}

// Keys returns one page of the reseller's issued keys, optionally filtered
// by source.
func (s *ResellerService) Keys(resellerID uint, source string, page, pageSize int) ([]models.LicenseKey, int64, error) {
	if source != "" && source != models.SourcePurchased && source != models.SourceFree {
		return nil, 0, ErrNotFound
	}
	return database.GetResellerLicenses(resellerID, source, page, pageSize)
}

// Stats is the aggregate dashboard view of a reseller account.
type Stats struct {
	ActiveKeys   int64                        `json:"active_keys"`
	ExpiredKeys  int64                        `json:"expired_keys"`
	InactiveKeys int64                        `json:"inactive_keys"`
	Balance      int64                        `json:"balance"`
	TotalSpent   int64                        `json:"total_spent"`
	Quota        models.Quota                 `json:"quota"`
	RecentKeys   []models.LicenseKey          `json:"recent_keys"`
	RecentLedger []models.ResellerTransaction `json:"recent_ledger"`
}

// Stats aggregates key counts, balance and recent activity.
func (s *ResellerService) Stats(resellerID uint) (*Stats, error) {
	reseller, err := database.GetResellerByID(resellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	now := s.Now()

	active, err := database.CountResellerActive(resellerID, now)
	if err != nil {
		return nil, err
	}
	expired, err := database.CountResellerExpired(resellerID, now)
	if err != nil {
		return nil, err
	}
	inactive, err := database.CountResellerLicensesByStatus(resellerID, models.LicenseInactive)
	if err != nil {
		return nil, err
	}

	recentKeys, _, err := database.GetResellerLicenses(resellerID, "", 1, 5)
	if err != nil {
		return nil, err
	}
	recentLedger, _, err := database.GetResellerTransactions(resellerID, 1, 5)
	if err != nil {
		return nil, err
	}

	return &Stats{
		ActiveKeys:   active,
		ExpiredKeys:  expired,
		InactiveKeys: inactive,
		Balance:      reseller.Balance,
		TotalSpent:   reseller.TotalSpent,
		Quota:        reseller.QuotaAt(now),
		RecentKeys:   recentKeys,
		RecentLedger: recentLedger,
	}, nil
}
