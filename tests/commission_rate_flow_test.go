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

func newRateFlow(testDB *testingutil.TestDB) (businessflow.CommissionRateFlow, repository.CommissionRateRepository, repository.AuditLogRepository) {
	rateRepo := repository.NewCommissionRateRepository(testDB.DB)
	txRepo := repository.NewCommissionTransactionRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	cache := services.NewMemoryCache()

	flow := businessflow.NewCommissionRateFlow(rateRepo, txRepo, auditRepo, cache, testDB.DB)
	return flow, rateRepo, auditRepo
}

func TestCommissionRateFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, rateRepo, auditRepo := newRateFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")

		t.Run("CreatePercentageRate", func(t *testing.T) {
			req := &dto.CreateCommissionRateRequest{
				CategoryID:      10,
				CommissionType:  string(models.CommissionTypePercentage),
				CommissionValue: 0.10,
				Description:     "electronics",
			}

			result, err := flow.CreateRate(context.Background(), req, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, uint(10), result.CategoryID)
			assert.Equal(t, "percentage", result.CommissionType)
			assert.InDelta(t, 0.10, result.CommissionValue, 1e-9)
			assert.True(t, result.IsActive)
			assert.NotEmpty(t, result.UUID)

			// Verify persisted row
			stored, err := rateRepo.ActiveByCategoryID(context.Background(), 10)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, result.ID, stored.ID)

			// Verify audit log was created
			logs, err := auditRepo.ListByAction(context.Background(), models.AuditActionRateCreated, 10, 0)
			require.NoError(t, err)
			require.NotEmpty(t, logs)
			assert.True(t, utils.IsTrue(logs[0].Success))
		})

		t.Run("SecondActiveRatePerCategoryRejected", func(t *testing.T) {
			req := &dto.CreateCommissionRateRequest{
				CategoryID:      10,
				CommissionType:  string(models.CommissionTypeFixed),
				CommissionValue: 5,
			}

			_, err := flow.CreateRate(context.Background(), req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCategoryRateConflict(err))
		})

		t.Run("InvalidRateConfigurationRejected", func(t *testing.T) {
			_, err := flow.CreateRate(context.Background(), &dto.CreateCommissionRateRequest{
				CategoryID:      11,
				CommissionType:  "tiered",
				CommissionValue: 0.10,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidCommissionType(err))

			_, err = flow.CreateRate(context.Background(), &dto.CreateCommissionRateRequest{
				CategoryID:      11,
				CommissionType:  string(models.CommissionTypePercentage),
				CommissionValue: -0.10,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidCommissionValue(err))

			_, err = flow.CreateRate(context.Background(), &dto.CreateCommissionRateRequest{
				CategoryID:      11,
				CommissionType:  string(models.CommissionTypePercentage),
				CommissionValue: 0.10,
				MinAmount:       utils.ToPtr(50.0),
				MaxAmount:       utils.ToPtr(10.0),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidRateBounds(err))
		})

		t.Run("UpdateRateValue", func(t *testing.T) {
			created, err := flow.CreateRate(context.Background(), &dto.CreateCommissionRateRequest{
				CategoryID:      20,
				CommissionType:  string(models.CommissionTypePercentage),
				CommissionValue: 0.08,
			}, metadata)
			require.NoError(t, err)

			updated, err := flow.UpdateRate(context.Background(), created.ID, &dto.UpdateCommissionRateRequest{
				CommissionValue: utils.ToPtr(0.12),
			}, metadata)
			require.NoError(t, err)
			assert.InDelta(t, 0.12, updated.CommissionValue, 1e-9)

			// New resolutions must see the updated value, not a stale cache entry
			resolved, err := flow.ResolveRate(context.Background(), 20)
			require.NoError(t, err)
			assert.InDelta(t, 0.12, resolved.CommissionValue, 1e-9)
		})

		t.Run("DeactivateThenCreateNewRate", func(t *testing.T) {
			created, err := flow.CreateRate(context.Background(), &dto.CreateCommissionRateRequest{
				CategoryID:      30,
				CommissionType:  string(models.CommissionTypePercentage),
				CommissionValue: 0.05,
			}, metadata)
			require.NoError(t, err)

			_, err = flow.UpdateRate(context.Background(), created.ID, &dto.UpdateCommissionRateRequest{
				IsActive: utils.ToPtr(false),
			}, metadata)
			require.NoError(t, err)

			// The category slot is free again
			replacement, err := flow.CreateRate(context.Background(), &dto.CreateCommissionRateRequest{
				CategoryID:      30,
				CommissionType:  string(models.CommissionTypeFixed),
				CommissionValue: 3,
			}, metadata)
			require.NoError(t, err)
			assert.NotEqual(t, created.ID, replacement.ID)
		})

		t.Run("ResolveRateMissesInactiveCategory", func(t *testing.T) {
			_, err := flow.ResolveRate(context.Background(), 999)
			require.Error(t, err)
			assert.True(t, businessflow.IsCommissionRateNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDeleteCommissionRate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, rateRepo, _ := newRateFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")

		t.Run("DeleteUnreferencedRate", func(t *testing.T) {
			created, err := flow.CreateRate(context.Background(), &dto.CreateCommissionRateRequest{
				CategoryID:      40,
				CommissionType:  string(models.CommissionTypePercentage),
				CommissionValue: 0.07,
			}, metadata)
			require.NoError(t, err)

			require.NoError(t, flow.DeleteRate(context.Background(), created.ID, metadata))

			stored, err := rateRepo.ActiveByCategoryID(context.Background(), 40)
			require.NoError(t, err)
			assert.Nil(t, stored)
		})

		t.Run("DeleteRateWithLedgerEntriesRejected", func(t *testing.T) {
			store, err := fixtures.CreateActiveStore()
			require.NoError(t, err)

			created, err := flow.CreateRate(context.Background(), &dto.CreateCommissionRateRequest{
				CategoryID:      41,
				CommissionType:  string(models.CommissionTypePercentage),
				CommissionValue: 0.07,
			}, metadata)
			require.NoError(t, err)

			_, err = fixtures.CreateTestTransaction(store.ID, 41, 100, 7)
			require.NoError(t, err)

			err = flow.DeleteRate(context.Background(), created.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsRateHasTransactions(err))
		})

		t.Run("DeleteMissingRate", func(t *testing.T) {
			err := flow.DeleteRate(context.Background(), 424242, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCommissionRateNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
