// Package testing provides test utilities and database setup for testing the commission engine
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/feirahub/commission-engine/models"
	"github.com/feirahub/commission-engine/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestStore creates an active store with a unique email
func (tf *TestFixtures) CreateTestStore() (*models.Store, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	store := &models.Store{
		Name:         "Test Store",
		Email:        fmt.Sprintf("store.%s@example.com", randomDigits),
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(store).Error; err != nil {
		return nil, fmt.Errorf("failed to create test store: %w", err)
	}

	return store, nil
}

// CreateTestSubscription creates a subscription for a store in the given status
func (tf *TestFixtures) CreateTestSubscription(storeID uint, status models.SubscriptionStatus) (*models.Subscription, error) {
	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	subscription := &models.Subscription{
		StoreID:           storeID,
		GatewayCustomerID: fmt.Sprintf("cus_%s", randomDigits),
		GatewayPaymentID:  fmt.Sprintf("pay_%s", randomDigits),
		Status:            status,
	}
	if status == models.SubscriptionStatusActive {
		now := time.Now().UTC()
		subscription.ActivatedAt = &now
	}

	if err := tf.DB.DB.Create(subscription).Error; err != nil {
		return nil, fmt.Errorf("failed to create test subscription: %w", err)
	}

	return subscription, nil
}

// CreateActiveStore creates a store together with an active subscription
func (tf *TestFixtures) CreateActiveStore() (*models.Store, error) {
	store, err := tf.CreateTestStore()
	if err != nil {
		return nil, err
	}
	if _, err := tf.CreateTestSubscription(store.ID, models.SubscriptionStatusActive); err != nil {
		return nil, err
	}
	return store, nil
}

// CreateTestRate creates an active percentage rate for a category
func (tf *TestFixtures) CreateTestRate(categoryID uint, value float64) (*models.CommissionRate, error) {
	rate := &models.CommissionRate{
		CategoryID:      categoryID,
		CommissionType:  models.CommissionTypePercentage,
		CommissionValue: value,
		IsActive:        true,
		Description:     "test rate",
	}

	if err := tf.DB.DB.Create(rate).Error; err != nil {
		return nil, fmt.Errorf("failed to create test rate: %w", err)
	}

	return rate, nil
}

// CreateTestTransaction creates a calculated ledger entry with a unique order ID
func (tf *TestFixtures) CreateTestTransaction(storeID, categoryID uint, orderAmount, commissionAmount float64) (*models.CommissionTransaction, error) {
	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	entry := &models.CommissionTransaction{
		StoreID:               storeID,
		CategoryID:            categoryID,
		OrderID:               fmt.Sprintf("order_%s", randomDigits),
		OrderAmount:           orderAmount,
		CommissionRateApplied: 0.10,
		CommissionAmount:      commissionAmount,
		Status:                models.CommissionTransactionStatusCalculated,
	}

	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create test transaction: %w", err)
	}

	return entry, nil
}

// CreateTestTransactionAt creates a calculated ledger entry with a pinned creation time
func (tf *TestFixtures) CreateTestTransactionAt(storeID, categoryID uint, commissionAmount float64, createdAt time.Time) (*models.CommissionTransaction, error) {
	entry, err := tf.CreateTestTransaction(storeID, categoryID, commissionAmount*10, commissionAmount)
	if err != nil {
		return nil, err
	}

	// GORM stamps CreatedAt on insert; pin it afterwards so period queries see it
	err = tf.DB.DB.Model(&models.CommissionTransaction{}).
		Where("id = ?", entry.ID).
		Update("created_at", createdAt).Error
	if err != nil {
		return nil, fmt.Errorf("failed to pin transaction creation time: %w", err)
	}
	entry.CreatedAt = createdAt

	return entry, nil
}

// CreateTestPayout creates a pending payout snapshot for a store and period
func (tf *TestFixtures) CreateTestPayout(storeID uint, period string, totalCommission float64, transactionCount int) (*models.CommissionPayout, error) {
	payout := &models.CommissionPayout{
		StoreID:          storeID,
		Period:           period,
		TotalCommission:  totalCommission,
		TotalPayout:      totalCommission,
		TransactionCount: transactionCount,
		Status:           models.CommissionPayoutStatusPending,
	}

	if err := tf.DB.DB.Create(payout).Error; err != nil {
		return nil, fmt.Errorf("failed to create test payout: %w", err)
	}

	return payout, nil
}
