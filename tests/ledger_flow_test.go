package tests

import (
	"context"
	"testing"

	"github.com/feirahub/commission-engine/app/dto"
	"github.com/feirahub/commission-engine/app/services"
	businessflow "github.com/feirahub/commission-engine/business_flow"
	"github.com/feirahub/commission-engine/models"
	"github.com/feirahub/commission-engine/repository"
	testingutil "github.com/feirahub/commission-engine/testing"
	"github.com/feirahub/commission-engine/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerFlow(testDB *testingutil.TestDB) (businessflow.LedgerFlow, repository.CommissionTransactionRepository) {
	txRepo := repository.NewCommissionTransactionRepository(testDB.DB)
	rateRepo := repository.NewCommissionRateRepository(testDB.DB)
	storeRepo := repository.NewStoreRepository(testDB.DB)
	subscriptionRepo := repository.NewSubscriptionRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	cache := services.NewMemoryCache()

	flow := businessflow.NewLedgerFlow(txRepo, rateRepo, storeRepo, subscriptionRepo, auditRepo, cache, testDB.DB)
	return flow, txRepo
}

func TestRecordTransaction(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, txRepo := newLedgerFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")

		store, err := fixtures.CreateActiveStore()
		require.NoError(t, err)
		_, err = fixtures.CreateTestRate(10, 0.10)
		require.NoError(t, err)

		t.Run("PercentageCommissionRecorded", func(t *testing.T) {
			result, err := flow.RecordTransaction(context.Background(), &dto.RecordTransactionRequest{
				StoreID:     store.ID,
				OrderID:     "order-1001",
				CategoryID:  10,
				OrderAmount: 250.00,
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.InDelta(t, 25.00, result.CommissionAmount, 1e-9)
			assert.InDelta(t, 0.10, result.CommissionRateApplied, 1e-9)
			assert.Equal(t, string(models.CommissionTransactionStatusCalculated), result.Status)

			stored, err := txRepo.ByOrderID(context.Background(), "order-1001")
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, store.ID, stored.StoreID)
		})

		t.Run("RateSnapshotSurvivesRateChange", func(t *testing.T) {
			// Change the configured rate after recording
			err := testDB.DB.Model(&models.CommissionRate{}).
				Where("category_id = ? AND is_active", 10).
				Update("commission_value", 0.25).Error
			require.NoError(t, err)

			stored, err := txRepo.ByOrderID(context.Background(), "order-1001")
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.InDelta(t, 0.10, stored.CommissionRateApplied, 1e-9)
			assert.InDelta(t, 25.00, stored.CommissionAmount, 1e-9)
		})

		t.Run("DuplicateOrderRejected", func(t *testing.T) {
			_, err := flow.RecordTransaction(context.Background(), &dto.RecordTransactionRequest{
				StoreID:     store.ID,
				OrderID:     "order-1001",
				CategoryID:  10,
				OrderAmount: 99.00,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsOrderAlreadyRecorded(err))
		})

		t.Run("MissingRateRejected", func(t *testing.T) {
			_, err := flow.RecordTransaction(context.Background(), &dto.RecordTransactionRequest{
				StoreID:     store.ID,
				OrderID:     "order-1002",
				CategoryID:  777,
				OrderAmount: 50.00,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCommissionRateNotFound(err))
		})

		t.Run("InactiveSubscriptionRejected", func(t *testing.T) {
			dormant, err := fixtures.CreateTestStore()
			require.NoError(t, err)
			_, err = fixtures.CreateTestSubscription(dormant.ID, models.SubscriptionStatusCancelled)
			require.NoError(t, err)

			_, err = flow.RecordTransaction(context.Background(), &dto.RecordTransactionRequest{
				StoreID:     dormant.ID,
				OrderID:     "order-1003",
				CategoryID:  10,
				OrderAmount: 50.00,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsSubscriptionNotActive(err))
		})

		t.Run("UnknownStoreRejected", func(t *testing.T) {
			_, err := flow.RecordTransaction(context.Background(), &dto.RecordTransactionRequest{
				StoreID:     987654,
				OrderID:     "order-1004",
				CategoryID:  10,
				OrderAmount: 50.00,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsStoreNotFound(err))
		})

		t.Run("NonPositiveAmountRejected", func(t *testing.T) {
			_, err := flow.RecordTransaction(context.Background(), &dto.RecordTransactionRequest{
				StoreID:     store.ID,
				OrderID:     "order-1005",
				CategoryID:  10,
				OrderAmount: -10.00,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidOrderAmount(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRecordTransactionClampedRates(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _ := newLedgerFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")

		store, err := fixtures.CreateActiveStore()
		require.NoError(t, err)

		// 10% clamped to [15, 40]
		clamped := &models.CommissionRate{
			CategoryID:      50,
			CommissionType:  models.CommissionTypePercentage,
			CommissionValue: 0.10,
			MinAmount:       utils.ToPtr(15.0),
			MaxAmount:       utils.ToPtr(40.0),
			IsActive:        true,
		}
		require.NoError(t, testDB.DB.Create(clamped).Error)

		fixed := &models.CommissionRate{
			CategoryID:      51,
			CommissionType:  models.CommissionTypeFixed,
			CommissionValue: 7.50,
			IsActive:        true,
		}
		require.NoError(t, testDB.DB.Create(fixed).Error)

		t.Run("LowerBoundApplies", func(t *testing.T) {
			result, err := flow.RecordTransaction(context.Background(), &dto.RecordTransactionRequest{
				StoreID:     store.ID,
				OrderID:     "order-2001",
				CategoryID:  50,
				OrderAmount: 100.00, // 10% = 10, clamped up to 15
			}, metadata)
			require.NoError(t, err)
			assert.InDelta(t, 15.00, result.CommissionAmount, 1e-9)
		})

		t.Run("UpperBoundApplies", func(t *testing.T) {
			result, err := flow.RecordTransaction(context.Background(), &dto.RecordTransactionRequest{
				StoreID:     store.ID,
				OrderID:     "order-2002",
				CategoryID:  50,
				OrderAmount: 1000.00, // 10% = 100, clamped down to 40
			}, metadata)
			require.NoError(t, err)
			assert.InDelta(t, 40.00, result.CommissionAmount, 1e-9)
		})

		t.Run("FixedRateIgnoresOrderAmount", func(t *testing.T) {
			result, err := flow.RecordTransaction(context.Background(), &dto.RecordTransactionRequest{
				StoreID:     store.ID,
				OrderID:     "order-2003",
				CategoryID:  51,
				OrderAmount: 9999.00,
			}, metadata)
			require.NoError(t, err)
			assert.InDelta(t, 7.50, result.CommissionAmount, 1e-9)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestListTransactions(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _ := newLedgerFlow(testDB)

		store, err := fixtures.CreateActiveStore()
		require.NoError(t, err)
		other, err := fixtures.CreateActiveStore()
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			_, err := fixtures.CreateTestTransaction(store.ID, 10, 100, 10)
			require.NoError(t, err)
		}
		_, err = fixtures.CreateTestTransaction(other.ID, 10, 100, 10)
		require.NoError(t, err)

		t.Run("FilterByStore", func(t *testing.T) {
			result, err := flow.ListTransactions(context.Background(), &dto.ListTransactionsRequest{
				StoreID: &store.ID,
			})
			require.NoError(t, err)
			assert.Len(t, result.Transactions, 5)
			assert.Equal(t, int64(5), result.Pagination.TotalItems)
		})

		t.Run("Pagination", func(t *testing.T) {
			result, err := flow.ListTransactions(context.Background(), &dto.ListTransactionsRequest{
				StoreID:  &store.ID,
				Page:     2,
				PageSize: 2,
			})
			require.NoError(t, err)
			assert.Len(t, result.Transactions, 2)
			assert.Equal(t, int64(5), result.Pagination.TotalItems)
			assert.Equal(t, 3, result.Pagination.TotalPages)
		})

		t.Run("InvalidDateRangeRejected", func(t *testing.T) {
			_, err := flow.ListTransactions(context.Background(), &dto.ListTransactionsRequest{
				StartDate: utils.ToPtr("2026-02-01"),
				EndDate:   utils.ToPtr("2026-01-01"),
			})
			require.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}
