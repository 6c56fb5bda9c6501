package services

import (
	"testing"
	"time"

	"license-api/internal/database"
	"license-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderService() *OrderService {
	s := NewOrderService()
	s.Now = func() time.Time { return fixedNow }
	return s
}

func TestCreateOrder(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Monthly", 80000, models.DurationMonth, 1, 2)
	user := createTestUser(t, "buyer@example.com")
	s := newTestOrderService()

	order, err := s.CreateOrder(user.ID, plan.ID, models.CurrencyLocal, "bank_transfer")
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, plan.Price, order.TotalAmount)
	assert.Equal(t, models.CurrencyLocal, order.Currency)
	assert.NotEmpty(t, order.OrderCode)
	assert.Nil(t, order.LicenseKeyID)
	assert.Nil(t, order.PaidAt)
}

func TestCreateOrderUSDUsesIndependentPrice(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Monthly", 80000, models.DurationMonth, 1, 2)
	user := createTestUser(t, "buyer@example.com")
	s := newTestOrderService()

	order, err := s.CreateOrder(user.ID, plan.ID, models.CurrencyUSD, "")
	require.NoError(t, err)
	assert.Equal(t, plan.PriceUSD, order.TotalAmount)
	assert.Equal(t, models.CurrencyUSD, order.Currency)
}

func TestCreateOrderInactivePlan(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Retired", 80000, models.DurationMonth, 1, 2)
	require.NoError(t, database.DB.Model(plan).Update("is_active", false).Error)
	user := createTestUser(t, "buyer@example.com")
	s := newTestOrderService()

	_, err := s.CreateOrder(user.ID, plan.ID, models.CurrencyLocal, "")
	assert.ErrorIs(t, err, ErrPlanInactive)
}

func TestConfirmPaymentIssuesActivatedKey(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Monthly", 80000, models.DurationMonth, 1, 3)
	user := createTestUser(t, "buyer@example.com")
	s := newTestOrderService()

	order, err := s.CreateOrder(user.ID, plan.ID, models.CurrencyLocal, "")
	require.NoError(t, err)

	confirmed, err := s.ConfirmPayment(order.ID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderCompleted, confirmed.Status)
	assert.Equal(t, models.PaymentCompleted, confirmed.PaymentStatus)
	require.NotNil(t, confirmed.PaidAt)
	assert.True(t, confirmed.PaidAt.Equal(fixedNow))

	require.NotNil(t, confirmed.LicenseKey)
	key := confirmed.LicenseKey
	assert.Equal(t, models.LicenseActive, key.Status)
	assert.Equal(t, plan.MaxDevices, key.MaxDevices)
	require.NotNil(t, key.ExpiresAt)
	assert.True(t, key.ExpiresAt.Equal(fixedNow.AddDate(0, 1, 0)))

	// The key is bound to the buyer.
	require.NotNil(t, key.UserID)
	assert.Equal(t, user.ID, *key.UserID)
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Monthly", 80000, models.DurationMonth, 1, 2)
	user := createTestUser(t, "buyer@example.com")
	s := newTestOrderService()

	order, err := s.CreateOrder(user.ID, plan.ID, models.CurrencyLocal, "")
	require.NoError(t, err)

	_, err = s.ConfirmPayment(order.ID)
	require.NoError(t, err)

	// The second confirmation must not mint a second key.
	_, err = s.ConfirmPayment(order.ID)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)

	var count int64
	require.NoError(t, database.DB.Model(&models.LicenseKey{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCancelOrder(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Monthly", 80000, models.DurationMonth, 1, 2)
	user := createTestUser(t, "buyer@example.com")
	s := newTestOrderService()

	order, err := s.CreateOrder(user.ID, plan.ID, models.CurrencyLocal, "")
	require.NoError(t, err)

	cancelled, err := s.CancelOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, models.PaymentCancelled, cancelled.PaymentStatus)

	// No key exists for a cancelled order.
	var count int64
	require.NoError(t, database.DB.Model(&models.LicenseKey{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCancelCompletedOrderRejected(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Monthly", 80000, models.DurationMonth, 1, 2)
	user := createTestUser(t, "buyer@example.com")
	s := newTestOrderService()

	order, err := s.CreateOrder(user.ID, plan.ID, models.CurrencyLocal, "")
	require.NoError(t, err)
	_, err = s.ConfirmPayment(order.ID)
	require.NoError(t, err)

	_, err = s.CancelOrder(order.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)

	// And a cancelled order cannot be confirmed afterwards.
	order2, err := s.CreateOrder(user.ID, plan.ID, models.CurrencyLocal, "")
	require.NoError(t, err)
	_, err = s.CancelOrder(order2.ID)
	require.NoError(t, err)
	_, err = s.ConfirmPayment(order2.ID)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
}

func TestGetOrderScopedToOwner(t *testing.T) {
	setupTestDB(t)
	plan := createTestPlan(t, "Monthly", 80000, models.DurationMonth, 1, 2)
	buyer := createTestUser(t, "buyer@example.com")
	stranger := createTestUser(t, "stranger@example.com")
	s := newTestOrderService()

	order, err := s.CreateOrder(buyer.ID, plan.ID, models.CurrencyLocal, "")
	require.NoError(t, err)

	got, err := s.GetOrder(order.OrderCode, buyer.ID, false)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = s.GetOrder(order.OrderCode, stranger.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)

	// Admins see everything.
	_, err = s.GetOrder(order.OrderCode, stranger.ID, true)
	assert.NoError(t, err)
}
