package tests

import (
	"context"
	"errors"
	"testing"
	"time"

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

func newPayoutFlow(testDB *testingutil.TestDB) (businessflow.PayoutFlow, repository.CommissionPayoutRepository, repository.AuditLogRepository) {
	payoutRepo := repository.NewCommissionPayoutRepository(testDB.DB)
	txRepo := repository.NewCommissionTransactionRepository(testDB.DB)
	storeRepo := repository.NewStoreRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	reportService := services.NewReportService()

	flow := businessflow.NewPayoutFlow(payoutRepo, txRepo, storeRepo, auditRepo, reportService, testDB.DB)
	return flow, payoutRepo, auditRepo
}

func TestCreatePayout(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, payoutRepo, _ := newPayoutFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")
		period := utils.CurrentPeriod(utils.UTCNow())

		store, err := fixtures.CreateActiveStore()
		require.NoError(t, err)

		t.Run("BatchesCalculatedEntries", func(t *testing.T) {
			for _, amount := range []float64{10.00, 12.50, 7.25} {
				_, err := fixtures.CreateTestTransaction(store.ID, 10, amount*10, amount)
				require.NoError(t, err)
			}

			result, err := flow.CreatePayout(context.Background(), &dto.CreatePayoutRequest{
				StoreID: store.ID,
				Period:  period,
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, period, result.Period)
			assert.InDelta(t, 29.75, result.TotalCommission, 1e-9)
			assert.InDelta(t, result.TotalCommission, result.TotalPayout, 1e-9)
			assert.Equal(t, 3, result.TransactionCount)
			assert.Equal(t, string(models.CommissionPayoutStatusPending), result.Status)

			stored, err := payoutRepo.ByStoreAndPeriod(context.Background(), store.ID, period)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, result.ID, stored.ID)
		})

		t.Run("SecondPayoutForPeriodRejected", func(t *testing.T) {
			_, err := flow.CreatePayout(context.Background(), &dto.CreatePayoutRequest{
				StoreID: store.ID,
				Period:  period,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsPayoutAlreadyExists(err))
		})

		t.Run("EmptyPeriodRejected", func(t *testing.T) {
			idle, err := fixtures.CreateActiveStore()
			require.NoError(t, err)

			_, err = flow.CreatePayout(context.Background(), &dto.CreatePayoutRequest{
				StoreID: idle.ID,
				Period:  period,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsNothingToPayOut(err))
		})

		t.Run("MalformedPeriodRejected", func(t *testing.T) {
			_, err := flow.CreatePayout(context.Background(), &dto.CreatePayoutRequest{
				StoreID: store.ID,
				Period:  "08-2026",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPeriod(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPayoutStatusTransitions(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _, auditRepo := newPayoutFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")
		period := utils.CurrentPeriod(utils.UTCNow())
		operatorID := uint(7)

		store, err := fixtures.CreateActiveStore()
		require.NoError(t, err)
		for i := 0; i < 2; i++ {
			_, err := fixtures.CreateTestTransaction(store.ID, 10, 100, 10)
			require.NoError(t, err)
		}

		created, err := flow.CreatePayout(context.Background(), &dto.CreatePayoutRequest{
			StoreID: store.ID,
			Period:  period,
		}, metadata)
		require.NoError(t, err)

		t.Run("PendingToProcessing", func(t *testing.T) {
			result, err := flow.UpdateStatus(context.Background(), created.ID, operatorID, &dto.UpdatePayoutStatusRequest{
				Status: string(models.CommissionPayoutStatusProcessing),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, string(models.CommissionPayoutStatusProcessing), result.Status)
			require.NotNil(t, result.ProcessedBy)
			assert.Equal(t, operatorID, *result.ProcessedBy)
			assert.NotNil(t, result.ProcessedAt)
		})

		t.Run("SkippingProcessingRejected", func(t *testing.T) {
			other, err := fixtures.CreateActiveStore()
			require.NoError(t, err)
			pending, err := fixtures.CreateTestPayout(other.ID, period, 10, 1)
			require.NoError(t, err)

			_, err = flow.UpdateStatus(context.Background(), pending.ID, operatorID, &dto.UpdatePayoutStatusRequest{
				Status: string(models.CommissionPayoutStatusCompleted),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPayoutTransition(err))
		})

		t.Run("UnknownStatusRejected", func(t *testing.T) {
			_, err := flow.UpdateStatus(context.Background(), created.ID, operatorID, &dto.UpdatePayoutStatusRequest{
				Status: "settled",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPayoutStatus(err))
		})

		t.Run("CompletionCascadesToLedger", func(t *testing.T) {
			result, err := flow.UpdateStatus(context.Background(), created.ID, operatorID, &dto.UpdatePayoutStatusRequest{
				Status:           string(models.CommissionPayoutStatusCompleted),
				PaymentReference: "wire-778899",
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, string(models.CommissionPayoutStatusCompleted), result.Status)
			assert.Equal(t, "wire-778899", result.PaymentReference)
			require.NotNil(t, result.ProcessedAt)

			// Every calculated entry in the period is now settled
			var remaining int64
			err = testDB.DB.Model(&models.CommissionTransaction{}).
				Where("store_id = ? AND status = ?", store.ID, models.CommissionTransactionStatusCalculated).
				Count(&remaining).Error
			require.NoError(t, err)
			assert.Zero(t, remaining)

			var paid int64
			err = testDB.DB.Model(&models.CommissionTransaction{}).
				Where("store_id = ? AND status = ? AND paid_at IS NOT NULL", store.ID, models.CommissionTransactionStatusPaid).
				Count(&paid).Error
			require.NoError(t, err)
			assert.Equal(t, int64(2), paid)

			logs, err := auditRepo.ListByAction(context.Background(), models.AuditActionPayoutCascadeApplied, 10, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, logs)
		})

		t.Run("CompletedIsTerminal", func(t *testing.T) {
			_, err := flow.UpdateStatus(context.Background(), created.ID, operatorID, &dto.UpdatePayoutStatusRequest{
				Status: string(models.CommissionPayoutStatusPending),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPayoutTransition(err))
		})

		t.Run("FailedPayoutCanBeReissued", func(t *testing.T) {
			other, err := fixtures.CreateActiveStore()
			require.NoError(t, err)
			pending, err := fixtures.CreateTestPayout(other.ID, period, 10, 1)
			require.NoError(t, err)

			_, err = flow.UpdateStatus(context.Background(), pending.ID, operatorID, &dto.UpdatePayoutStatusRequest{
				Status: string(models.CommissionPayoutStatusFailed),
				Notes:  "bank rejected the transfer",
			}, metadata)
			require.NoError(t, err)

			result, err := flow.UpdateStatus(context.Background(), pending.ID, operatorID, &dto.UpdatePayoutStatusRequest{
				Status: string(models.CommissionPayoutStatusPending),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, string(models.CommissionPayoutStatusPending), result.Status)
		})

		t.Run("MissingPayoutRejected", func(t *testing.T) {
			_, err := flow.UpdateStatus(context.Background(), 424242, operatorID, &dto.UpdatePayoutStatusRequest{
				Status: string(models.CommissionPayoutStatusProcessing),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsPayoutNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPayoutSnapshotExcludesLaterEntries(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _, _ := newPayoutFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")
		period := utils.CurrentPeriod(utils.UTCNow())
		operatorID := uint(7)

		store, err := fixtures.CreateActiveStore()
		require.NoError(t, err)
		_, err = fixtures.CreateTestTransaction(store.ID, 10, 100, 10)
		require.NoError(t, err)

		created, err := flow.CreatePayout(context.Background(), &dto.CreatePayoutRequest{
			StoreID: store.ID,
			Period:  period,
		}, metadata)
		require.NoError(t, err)
		assert.Equal(t, 1, created.TransactionCount)

		// An entry recorded after the snapshot keeps the original totals
		late, err := fixtures.CreateTestTransaction(store.ID, 10, 200, 20)
		require.NoError(t, err)

		fetched, err := flow.GetPayout(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, fetched.TransactionCount)
		assert.InDelta(t, 10.00, fetched.TotalCommission, 1e-9)

		// The cascade still settles everything calculated in the period;
		// the late entry is settled but was never part of the snapshot totals
		_, err = flow.UpdateStatus(context.Background(), created.ID, operatorID, &dto.UpdatePayoutStatusRequest{
			Status: string(models.CommissionPayoutStatusProcessing),
		}, metadata)
		require.NoError(t, err)
		_, err = flow.UpdateStatus(context.Background(), created.ID, operatorID, &dto.UpdatePayoutStatusRequest{
			Status: string(models.CommissionPayoutStatusCompleted),
		}, metadata)
		require.NoError(t, err)

		var stored models.CommissionTransaction
		require.NoError(t, testDB.DB.First(&stored, late.ID).Error)
		assert.Equal(t, models.CommissionTransactionStatusPaid, stored.Status)

		return nil
	})
	require.NoError(t, err)
}

// unsettledLedgerRepo refuses the bulk paid-flip so the completion path's
// failure handling can be exercised against a live database.
type unsettledLedgerRepo struct {
	repository.CommissionTransactionRepository
}

func (r *unsettledLedgerRepo) MarkPaidForPeriod(ctx context.Context, storeID uint, from, to time.Time, paidAt time.Time) (int64, error) {
	return 0, errors.New("ledger unavailable")
}

func TestPayoutCompletionSurvivesCascadeFailure(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		payoutRepo := repository.NewCommissionPayoutRepository(testDB.DB)
		txRepo := &unsettledLedgerRepo{repository.NewCommissionTransactionRepository(testDB.DB)}
		storeRepo := repository.NewStoreRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		flow := businessflow.NewPayoutFlow(payoutRepo, txRepo, storeRepo, auditRepo, services.NewReportService(), testDB.DB)

		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")
		period := utils.CurrentPeriod(utils.UTCNow())
		operatorID := uint(7)

		store, err := fixtures.CreateActiveStore()
		require.NoError(t, err)
		entry, err := fixtures.CreateTestTransaction(store.ID, 10, 100, 10)
		require.NoError(t, err)

		created, err := flow.CreatePayout(context.Background(), &dto.CreatePayoutRequest{
			StoreID: store.ID,
			Period:  period,
		}, metadata)
		require.NoError(t, err)

		_, err = flow.UpdateStatus(context.Background(), created.ID, operatorID, &dto.UpdatePayoutStatusRequest{
			Status: string(models.CommissionPayoutStatusProcessing),
		}, metadata)
		require.NoError(t, err)

		// Completion succeeds even though the ledger flip fails
		result, err := flow.UpdateStatus(context.Background(), created.ID, operatorID, &dto.UpdatePayoutStatusRequest{
			Status: string(models.CommissionPayoutStatusCompleted),
		}, metadata)
		require.NoError(t, err)
		assert.Equal(t, string(models.CommissionPayoutStatusCompleted), result.Status)

		// The completed status is durable and the failure is recorded on the payout
		stored, err := payoutRepo.ByID(context.Background(), created.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, models.CommissionPayoutStatusCompleted, stored.Status)
		assert.Contains(t, stored.Notes, "ledger cascade failed")

		// The ledger entry was left untouched for reconciliation
		var tx models.CommissionTransaction
		require.NoError(t, testDB.DB.First(&tx, entry.ID).Error)
		assert.Equal(t, models.CommissionTransactionStatusCalculated, tx.Status)

		logs, err := auditRepo.ListByAction(context.Background(), models.AuditActionPayoutCascadeFailed, 10, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, logs)

		return nil
	})
	require.NoError(t, err)
}

func TestBuildPayoutReport(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _, _ := newPayoutFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "go-test")
		period := utils.CurrentPeriod(utils.UTCNow())

		store, err := fixtures.CreateActiveStore()
		require.NoError(t, err)
		_, err = fixtures.CreateTestTransaction(store.ID, 10, 100, 10)
		require.NoError(t, err)

		created, err := flow.CreatePayout(context.Background(), &dto.CreatePayoutRequest{
			StoreID: store.ID,
			Period:  period,
		}, metadata)
		require.NoError(t, err)

		content, filename, err := flow.BuildPayoutReport(context.Background(), created.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, content)
		assert.Contains(t, filename, ".xlsx")

		return nil
	})
	require.NoError(t, err)
}
