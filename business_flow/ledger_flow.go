// Package businessflow contains the core business logic for the commission ledger
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
	"gorm.io/gorm"
)

// LedgerFlow handles commission ledger recording and reads
type LedgerFlow interface {
	RecordTransaction(ctx context.Context, req *dto.RecordTransactionRequest, metadata *ClientMetadata) (*dto.CommissionTransactionDTO, error)
	GetTransaction(ctx context.Context, transactionID uint) (*dto.CommissionTransactionDTO, error)
	ListTransactions(ctx context.Context, req *dto.ListTransactionsRequest) (*dto.ListTransactionsResponse, error)
}

// LedgerFlowImpl implements the commission ledger business flow
type LedgerFlowImpl struct {
	txRepo           repository.CommissionTransactionRepository
	rateRepo         repository.CommissionRateRepository
	storeRepo        repository.StoreRepository
	subscriptionRepo repository.SubscriptionRepository
	auditRepo        repository.AuditLogRepository
	cache            services.CacheService
	db               *gorm.DB
}

// NewLedgerFlow creates a new ledger flow instance
func NewLedgerFlow(
	txRepo repository.CommissionTransactionRepository,
	rateRepo repository.CommissionRateRepository,
	storeRepo repository.StoreRepository,
	subscriptionRepo repository.SubscriptionRepository,
	auditRepo repository.AuditLogRepository,
	cache services.CacheService,
	db *gorm.DB,
) LedgerFlow {
	return &LedgerFlowImpl{
		txRepo:           txRepo,
		rateRepo:         rateRepo,
		storeRepo:        storeRepo,
		subscriptionRepo: subscriptionRepo,
		auditRepo:        auditRepo,
		cache:            cache,
		db:               db,
	}
}

// RecordTransaction records one commission ledger entry for a completed order.
// The resolved rate is applied and snapshotted into the entry so later rate
// changes never alter it. One entry per order; replays of the same order ID
// are rejected.
func (f *LedgerFlowImpl) RecordTransaction(ctx context.Context, req *dto.RecordTransactionRequest, metadata *ClientMetadata) (*dto.CommissionTransactionDTO, error) {
	if err := f.validateRecordRequest(req); err != nil {
		return nil, NewBusinessError("RECORD_TRANSACTION_FAILED", "Record commission transaction failed", err)
	}

	var entry *models.CommissionTransaction

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		store, err := getStore(txCtx, f.storeRepo, req.StoreID)
		if err != nil {
			return err
		}

		subscription, err := f.subscriptionRepo.ByStoreID(txCtx, store.ID)
		if err != nil {
			return err
		}
		if subscription == nil || !subscription.IsActive() {
			return ErrSubscriptionNotActive
		}

		existing, err := f.txRepo.ByOrderID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrOrderAlreadyRecorded
		}

		rate, err := resolveActiveRate(txCtx, f.rateRepo, f.cache, req.CategoryID)
		if err != nil {
			return err
		}

		entry = &models.CommissionTransaction{
			StoreID:               store.ID,
			CategoryID:            req.CategoryID,
			OrderID:               req.OrderID,
			OrderAmount:           req.OrderAmount,
			CommissionRateApplied: rate.CommissionValue,
			CommissionAmount:      rate.Apply(req.OrderAmount),
			Status:                models.CommissionTransactionStatusCalculated,
		}
		return f.txRepo.Save(txCtx, entry)
	})
	if repository.IsUniqueViolation(err) {
		err = ErrOrderAlreadyRecorded
	}
	if err != nil {
		errMsg := err.Error()
		description := fmt.Sprintf("Commission recording failed for order %s", req.OrderID)
		if auditErr := createAuditLog(ctx, f.auditRepo, &req.StoreID, models.AuditActionTransactionRecorded, description, false, &errMsg, metadata); auditErr != nil {
			log.Println("Failed to create audit log for transaction failure", auditErr)
		}
		return nil, NewBusinessError("RECORD_TRANSACTION_FAILED", "Record commission transaction failed", err)
	}

	description := fmt.Sprintf("Commission %.2f recorded for order %s (category %d)", entry.CommissionAmount, entry.OrderID, entry.CategoryID)
	if err := createAuditLog(ctx, f.auditRepo, &entry.StoreID, models.AuditActionTransactionRecorded, description, true, nil, metadata); err != nil {
		log.Println("Failed to create audit log for transaction recording", err)
	}

	return toCommissionTransactionDTO(entry), nil
}

// GetTransaction retrieves a single ledger entry by ID
func (f *LedgerFlowImpl) GetTransaction(ctx context.Context, transactionID uint) (*dto.CommissionTransactionDTO, error) {
	entry, err := f.txRepo.ByID(ctx, transactionID)
	if err != nil {
		return nil, NewBusinessError("GET_TRANSACTION_FAILED", "Get commission transaction failed", err)
	}
	if entry == nil {
		return nil, NewBusinessError("GET_TRANSACTION_FAILED", "Get commission transaction failed", gorm.ErrRecordNotFound)
	}
	return toCommissionTransactionDTO(entry), nil
}

// ListTransactions lists ledger entries with optional filters and pagination
func (f *LedgerFlowImpl) ListTransactions(ctx context.Context, req *dto.ListTransactionsRequest) (*dto.ListTransactionsResponse, error) {
	page, pageSize, err := normalizePagination(req.Page, req.PageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSACTIONS_FAILED", "List commission transactions failed", err)
	}

	filter := models.CommissionTransactionFilter{
		StoreID:    req.StoreID,
		CategoryID: req.CategoryID,
	}
	if req.Status != nil {
		status := models.CommissionTransactionStatus(*req.Status)
		filter.Status = &status
	}
	if req.StartDate != nil {
		start, err := time.ParseInLocation("2006-01-02", *req.StartDate, time.UTC)
		if err != nil {
			return nil, NewBusinessError("LIST_TRANSACTIONS_FAILED", "List commission transactions failed", err)
		}
		filter.CreatedAfter = &start
	}
	if req.EndDate != nil {
		end, err := time.ParseInLocation("2006-01-02", *req.EndDate, time.UTC)
		if err != nil {
			return nil, NewBusinessError("LIST_TRANSACTIONS_FAILED", "List commission transactions failed", err)
		}
		end = end.AddDate(0, 0, 1)
		filter.CreatedBefore = &end
	}
	if filter.CreatedAfter != nil && filter.CreatedBefore != nil && filter.CreatedAfter.After(*filter.CreatedBefore) {
		return nil, NewBusinessError("LIST_TRANSACTIONS_FAILED", "List commission transactions failed", ErrStartDateAfterEndDate)
	}

	entries, err := f.txRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSACTIONS_FAILED", "List commission transactions failed", err)
	}
	total, err := f.txRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSACTIONS_FAILED", "List commission transactions failed", err)
	}

	items := make([]dto.CommissionTransactionDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, *toCommissionTransactionDTO(entry))
	}

	return &dto.ListTransactionsResponse{
		Transactions: items,
		Pagination:   buildPagination(page, pageSize, total),
	}, nil
}

func (f *LedgerFlowImpl) validateRecordRequest(req *dto.RecordTransactionRequest) error {
	if req.OrderID == "" {
		return ErrOrderIDRequired
	}
	if req.OrderAmount <= 0 {
		return ErrInvalidOrderAmount
	}
	return nil
}

func toCommissionTransactionDTO(entry *models.CommissionTransaction) *dto.CommissionTransactionDTO {
	out := &dto.CommissionTransactionDTO{
		ID:                    entry.ID,
		UUID:                  entry.UUID.String(),
		StoreID:               entry.StoreID,
		OrderID:               entry.OrderID,
		CategoryID:            entry.CategoryID,
		OrderAmount:           entry.OrderAmount,
		CommissionRateApplied: entry.CommissionRateApplied,
		CommissionAmount:      entry.CommissionAmount,
		Status:                string(entry.Status),
		CreatedAt:             entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.PaidAt != nil {
		paidAt := entry.PaidAt.Format(time.RFC3339)
		out.PaidAt = &paidAt
	}
	return out
}
