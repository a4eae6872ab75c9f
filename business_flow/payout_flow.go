// Package businessflow contains the core business logic for payout batching and settlement
package businessflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/feirahub/commission-engine/app/dto"
	"github.com/feirahub/commission-engine/app/services"
	"github.com/feirahub/commission-engine/models"
	"github.com/feirahub/commission-engine/repository"
	"github.com/feirahub/commission-engine/utils"
	"gorm.io/gorm"
)

// PayoutFlow handles payout batching and the settlement state machine
type PayoutFlow interface {
	CreatePayout(ctx context.Context, req *dto.CreatePayoutRequest, metadata *ClientMetadata) (*dto.CommissionPayoutDTO, error)
	UpdateStatus(ctx context.Context, payoutID uint, operatorID uint, req *dto.UpdatePayoutStatusRequest, metadata *ClientMetadata) (*dto.CommissionPayoutDTO, error)
	GetPayout(ctx context.Context, payoutID uint) (*dto.CommissionPayoutDTO, error)
	ListPayouts(ctx context.Context, req *dto.ListPayoutsRequest) (*dto.ListPayoutsResponse, error)
	BuildPayoutReport(ctx context.Context, payoutID uint) ([]byte, string, error)
}

// PayoutFlowImpl implements the payout business flow
type PayoutFlowImpl struct {
	payoutRepo    repository.CommissionPayoutRepository
	txRepo        repository.CommissionTransactionRepository
	storeRepo     repository.StoreRepository
	auditRepo     repository.AuditLogRepository
	reportService services.ReportService
	db            *gorm.DB
}

// NewPayoutFlow creates a new payout flow instance
func NewPayoutFlow(
	payoutRepo repository.CommissionPayoutRepository,
	txRepo repository.CommissionTransactionRepository,
	storeRepo repository.StoreRepository,
	auditRepo repository.AuditLogRepository,
	reportService services.ReportService,
	db *gorm.DB,
) PayoutFlow {
	return &PayoutFlowImpl{
		payoutRepo:    payoutRepo,
		txRepo:        txRepo,
		storeRepo:     storeRepo,
		auditRepo:     auditRepo,
		reportService: reportService,
		db:            db,
	}
}

// CreatePayout batches a store's calculated commissions for a billing period
// into a pending payout. Totals are snapshotted at creation: entries recorded
// for the same period afterwards flow into a future payout. The unique
// (store_id, period) index decides races between concurrent creators.
func (f *PayoutFlowImpl) CreatePayout(ctx context.Context, req *dto.CreatePayoutRequest, metadata *ClientMetadata) (*dto.CommissionPayoutDTO, error) {
	from, to, err := utils.PeriodBounds(req.Period)
	if err != nil {
		return nil, NewBusinessError("CREATE_PAYOUT_FAILED", "Create payout failed", ErrInvalidPeriod)
	}

	var payout *models.CommissionPayout

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		store, err := getStore(txCtx, f.storeRepo, req.StoreID)
		if err != nil {
			return err
		}

		existing, err := f.payoutRepo.ByStoreAndPeriod(txCtx, store.ID, req.Period)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrPayoutAlreadyExists
		}

		totalCommission, count, err := f.txRepo.SumCalculatedForPeriod(txCtx, store.ID, from, to)
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNothingToPayOut
		}

		payout = &models.CommissionPayout{
			StoreID:          store.ID,
			Period:           req.Period,
			TotalCommission:  totalCommission,
			TotalPayout:      totalCommission, // no deductions modeled
			TransactionCount: count,
			Status:           models.CommissionPayoutStatusPending,
		}
		return f.payoutRepo.Save(txCtx, payout)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			err = ErrPayoutAlreadyExists
		}
		return nil, NewBusinessError("CREATE_PAYOUT_FAILED", "Create payout failed", err)
	}

	description := fmt.Sprintf("Payout created for store %d period %s: %.2f over %d transactions",
		payout.StoreID, payout.Period, payout.TotalCommission, payout.TransactionCount)
	if err := createAuditLog(ctx, f.auditRepo, &payout.StoreID, models.AuditActionPayoutCreated, description, true, nil, metadata); err != nil {
		log.Println("Failed to create audit log for payout creation", err)
	}

	return toCommissionPayoutDTO(payout), nil
}

// UpdateStatus moves a payout through its lifecycle, enforcing the transition
// table. Completing a payout also cascades its period's calculated ledger
// entries to paid, after the status change has committed. A cascade failure
// does not undo completion: the payout stays completed and the inconsistency
// is recorded in the payout notes, the audit log, and a metric so
// reconciliation can pick it up.
func (f *PayoutFlowImpl) UpdateStatus(ctx context.Context, payoutID uint, operatorID uint, req *dto.UpdatePayoutStatusRequest, metadata *ClientMetadata) (*dto.CommissionPayoutDTO, error) {
	target := models.CommissionPayoutStatus(req.Status)
	if !target.IsValid() {
		return nil, NewBusinessError("UPDATE_PAYOUT_FAILED", "Update payout status failed", ErrInvalidPayoutStatus)
	}

	var payout *models.CommissionPayout
	var previous models.CommissionPayoutStatus
	now := utils.UTCNow()

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		var err error
		payout, err = f.payoutRepo.ByID(txCtx, payoutID)
		if err != nil {
			return err
		}
		if payout == nil {
			return ErrPayoutNotFound
		}

		previous = payout.Status
		if !previous.CanTransitionTo(target) {
			return ErrInvalidPayoutTransition
		}

		payout.Status = target
		payout.ProcessedBy = &operatorID
		if target == models.CommissionPayoutStatusProcessing || target == models.CommissionPayoutStatusCompleted {
			payout.ProcessedAt = &now
		}
		if req.PaymentReference != "" {
			payout.PaymentReference = req.PaymentReference
		}
		if req.Notes != "" {
			payout.Notes = req.Notes
		}
		return f.payoutRepo.Update(txCtx, payout)
	})
	if err != nil {
		return nil, NewBusinessError("UPDATE_PAYOUT_FAILED", "Update payout status failed", err)
	}

	payoutTransitionsTotal.WithLabelValues(string(target)).Inc()

	description := fmt.Sprintf("Payout %d moved %s -> %s", payout.ID, previous, target)
	if err := createAuditLog(ctx, f.auditRepo, &payout.StoreID, models.AuditActionPayoutStatusChanged, description, true, nil, metadata); err != nil {
		log.Println("Failed to create audit log for payout transition", err)
	}

	if target == models.CommissionPayoutStatusCompleted {
		f.applyCompletionCascade(ctx, payout, now, metadata)
	}

	return toCommissionPayoutDTO(payout), nil
}

// applyCompletionCascade bulk-flips the completed payout's period entries to
// paid. It runs after the status transaction has committed: a cascade failure
// must never undo a confirmed settlement, so the payout stays completed and
// the miss is recorded in the payout notes, the audit log, and a counter for
// out-of-band reconciliation.
func (f *PayoutFlowImpl) applyCompletionCascade(ctx context.Context, payout *models.CommissionPayout, paidAt time.Time, metadata *ClientMetadata) {
	var cascadeRows int64
	from, to, cascadeErr := utils.PeriodBounds(payout.Period)
	if cascadeErr == nil {
		cascadeRows, cascadeErr = f.txRepo.MarkPaidForPeriod(ctx, payout.StoreID, from, to, paidAt)
	}

	if cascadeErr == nil {
		description := fmt.Sprintf("Payout %d cascade marked %d transactions paid for period %s", payout.ID, cascadeRows, payout.Period)
		if err := createAuditLog(ctx, f.auditRepo, &payout.StoreID, models.AuditActionPayoutCascadeApplied, description, true, nil, metadata); err != nil {
			log.Println("Failed to create audit log for cascade", err)
		}
		return
	}

	payoutCascadeFailuresTotal.Inc()
	log.Println("Payout cascade failed", payout.ID, cascadeErr)

	note := fmt.Sprintf("ledger cascade failed: %v", cascadeErr)
	if payout.Notes != "" {
		payout.Notes = payout.Notes + "; " + note
	} else {
		payout.Notes = note
	}
	if err := f.payoutRepo.Update(ctx, payout); err != nil {
		log.Println("Failed to record cascade failure on payout", payout.ID, err)
	}

	errMsg := cascadeErr.Error()
	description := fmt.Sprintf("Payout %d completed but ledger cascade failed for period %s", payout.ID, payout.Period)
	if err := createAuditLog(ctx, f.auditRepo, &payout.StoreID, models.AuditActionPayoutCascadeFailed, description, false, &errMsg, metadata); err != nil {
		log.Println("Failed to create audit log for cascade failure", err)
	}
}

// GetPayout retrieves a single payout by ID
func (f *PayoutFlowImpl) GetPayout(ctx context.Context, payoutID uint) (*dto.CommissionPayoutDTO, error) {
	payout, err := f.payoutRepo.ByID(ctx, payoutID)
	if err != nil {
		return nil, NewBusinessError("GET_PAYOUT_FAILED", "Get payout failed", err)
	}
	if payout == nil {
		return nil, NewBusinessError("GET_PAYOUT_FAILED", "Get payout failed", ErrPayoutNotFound)
	}
	return toCommissionPayoutDTO(payout), nil
}

// ListPayouts lists payouts with optional filters and pagination
func (f *PayoutFlowImpl) ListPayouts(ctx context.Context, req *dto.ListPayoutsRequest) (*dto.ListPayoutsResponse, error) {
	page, pageSize, err := normalizePagination(req.Page, req.PageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_PAYOUTS_FAILED", "List payouts failed", err)
	}

	filter := models.CommissionPayoutFilter{
		StoreID: req.StoreID,
		Period:  req.Period,
	}
	if req.Status != nil {
		status := models.CommissionPayoutStatus(*req.Status)
		filter.Status = &status
	}

	payouts, err := f.payoutRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_PAYOUTS_FAILED", "List payouts failed", err)
	}
	total, err := f.payoutRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_PAYOUTS_FAILED", "List payouts failed", err)
	}

	items := make([]dto.CommissionPayoutDTO, 0, len(payouts))
	for _, payout := range payouts {
		items = append(items, *toCommissionPayoutDTO(payout))
	}

	return &dto.ListPayoutsResponse{
		Payouts:    items,
		Pagination: buildPagination(page, pageSize, total),
	}, nil
}

// BuildPayoutReport renders a payout and its period's ledger entries as an
// xlsx workbook for finance review. Returns the file contents and a filename.
func (f *PayoutFlowImpl) BuildPayoutReport(ctx context.Context, payoutID uint) ([]byte, string, error) {
	payout, err := f.payoutRepo.ByID(ctx, payoutID)
	if err != nil {
		return nil, "", NewBusinessError("PAYOUT_REPORT_FAILED", "Build payout report failed", err)
	}
	if payout == nil {
		return nil, "", NewBusinessError("PAYOUT_REPORT_FAILED", "Build payout report failed", ErrPayoutNotFound)
	}

	from, to, err := utils.PeriodBounds(payout.Period)
	if err != nil {
		return nil, "", NewBusinessError("PAYOUT_REPORT_FAILED", "Build payout report failed", err)
	}

	filter := models.CommissionTransactionFilter{
		StoreID:       &payout.StoreID,
		CreatedAfter:  &from,
		CreatedBefore: &to,
	}
	transactions, err := f.txRepo.ByFilter(ctx, filter, "created_at", 0, 0)
	if err != nil {
		return nil, "", NewBusinessError("PAYOUT_REPORT_FAILED", "Build payout report failed", err)
	}

	contents, err := f.reportService.BuildPayoutReport(payout, transactions)
	if err != nil {
		return nil, "", NewBusinessError("PAYOUT_REPORT_FAILED", "Build payout report failed", err)
	}

	filename := fmt.Sprintf("payout_%d_%s.xlsx", payout.StoreID, payout.Period)
	return contents, filename, nil
}

func toCommissionPayoutDTO(payout *models.CommissionPayout) *dto.CommissionPayoutDTO {
	out := &dto.CommissionPayoutDTO{
		ID:               payout.ID,
		UUID:             payout.UUID.String(),
		StoreID:          payout.StoreID,
		Period:           payout.Period,
		TotalCommission:  payout.TotalCommission,
		TotalPayout:      payout.TotalPayout,
		TransactionCount: payout.TransactionCount,
		Status:           string(payout.Status),
		PaymentReference: payout.PaymentReference,
		Notes:            payout.Notes,
		ProcessedBy:      payout.ProcessedBy,
		CreatedAt:        payout.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        payout.UpdatedAt.Format(time.RFC3339),
	}
	if payout.ProcessedAt != nil {
		processedAt := payout.ProcessedAt.Format(time.RFC3339)
		out.ProcessedAt = &processedAt
	}
	return out
}
