// Package businessflow contains the core business logic for commission rate configuration
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/feirahub/commission-engine/app/dto"
	"github.com/feirahub/commission-engine/app/services"
	"github.com/feirahub/commission-engine/models"
	"github.com/feirahub/commission-engine/repository"
	"gorm.io/gorm"
)

// CommissionRateFlow handles commission rate configuration and resolution
type CommissionRateFlow interface {
	CreateRate(ctx context.Context, req *dto.CreateCommissionRateRequest, metadata *ClientMetadata) (*dto.CommissionRateDTO, error)
	UpdateRate(ctx context.Context, rateID uint, req *dto.UpdateCommissionRateRequest, metadata *ClientMetadata) (*dto.CommissionRateDTO, error)
	DeleteRate(ctx context.Context, rateID uint, metadata *ClientMetadata) error
	GetRate(ctx context.Context, rateID uint) (*dto.CommissionRateDTO, error)
	ListRates(ctx context.Context, req *dto.ListCommissionRatesRequest) (*dto.ListCommissionRatesResponse, error)
	ResolveRate(ctx context.Context, categoryID uint) (*models.CommissionRate, error)
}

// CommissionRateFlowImpl implements the commission rate business flow
type CommissionRateFlowImpl struct {
	rateRepo  repository.CommissionRateRepository
	txRepo    repository.CommissionTransactionRepository
	auditRepo repository.AuditLogRepository
	cache     services.CacheService
	db        *gorm.DB
}

// NewCommissionRateFlow creates a new commission rate flow instance
func NewCommissionRateFlow(
	rateRepo repository.CommissionRateRepository,
	txRepo repository.CommissionTransactionRepository,
	auditRepo repository.AuditLogRepository,
	cache services.CacheService,
	db *gorm.DB,
) CommissionRateFlow {
	return &CommissionRateFlowImpl{
		rateRepo:  rateRepo,
		txRepo:    txRepo,
		auditRepo: auditRepo,
		cache:     cache,
		db:        db,
	}
}

// CreateRate configures the commission rate for a product category. At most one
// active rate may exist per category; the partial unique index backs up the
// in-transaction conflict check against concurrent creators.
func (f *CommissionRateFlowImpl) CreateRate(ctx context.Context, req *dto.CreateCommissionRateRequest, metadata *ClientMetadata) (*dto.CommissionRateDTO, error) {
	rate := &models.CommissionRate{
		CategoryID:      req.CategoryID,
		CommissionType:  models.CommissionType(req.CommissionType),
		CommissionValue: req.CommissionValue,
		MinAmount:       req.MinAmount,
		MaxAmount:       req.MaxAmount,
		IsActive:        true,
		Description:     req.Description,
	}

	if err := validateRate(rate); err != nil {
		return nil, NewBusinessError("CREATE_RATE_FAILED", "Create commission rate failed", err)
	}

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		existing, err := f.rateRepo.ActiveByCategoryID(txCtx, req.CategoryID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrCategoryRateConflict
		}
		return f.rateRepo.Save(txCtx, rate)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			err = ErrCategoryRateConflict
		}
		return nil, NewBusinessError("CREATE_RATE_FAILED", "Create commission rate failed", err)
	}

	f.invalidateRateCache(ctx, req.CategoryID)

	description := fmt.Sprintf("Commission rate created for category %d (%s %v)", rate.CategoryID, rate.CommissionType, rate.CommissionValue)
	if err := createAuditLog(ctx, f.auditRepo, nil, models.AuditActionRateCreated, description, true, nil, metadata); err != nil {
		log.Println("Failed to create audit log for rate creation", err)
	}

	return toCommissionRateDTO(rate), nil
}

// UpdateRate updates an existing commission rate. Deactivating or re-pricing a
// rate never touches historical ledger entries; only future calculations see
// the change.
func (f *CommissionRateFlowImpl) UpdateRate(ctx context.Context, rateID uint, req *dto.UpdateCommissionRateRequest, metadata *ClientMetadata) (*dto.CommissionRateDTO, error) {
	var rate *models.CommissionRate

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		var err error
		rate, err = f.rateRepo.ByID(txCtx, rateID)
		if err != nil {
			return err
		}
		if rate == nil {
			return ErrCommissionRateNotFound
		}

		reactivating := req.IsActive != nil && *req.IsActive && !rate.IsActive
		if reactivating {
			existing, err := f.rateRepo.ActiveByCategoryID(txCtx, rate.CategoryID)
			if err != nil {
				return err
			}
			if existing != nil && existing.ID != rate.ID {
				return ErrCategoryRateConflict
			}
		}

		if req.CommissionType != nil {
			rate.CommissionType = models.CommissionType(*req.CommissionType)
		}
		if req.CommissionValue != nil {
			rate.CommissionValue = *req.CommissionValue
		}
		if req.MinAmount != nil {
			rate.MinAmount = req.MinAmount
		}
		if req.MaxAmount != nil {
			rate.MaxAmount = req.MaxAmount
		}
		if req.IsActive != nil {
			rate.IsActive = *req.IsActive
		}
		if req.Description != nil {
			rate.Description = *req.Description
		}

		if err := validateRate(rate); err != nil {
			return err
		}
		return f.rateRepo.Update(txCtx, rate)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			err = ErrCategoryRateConflict
		}
		return nil, NewBusinessError("UPDATE_RATE_FAILED", "Update commission rate failed", err)
	}

	f.invalidateRateCache(ctx, rate.CategoryID)

	description := fmt.Sprintf("Commission rate %d updated for category %d", rate.ID, rate.CategoryID)
	if err := createAuditLog(ctx, f.auditRepo, nil, models.AuditActionRateUpdated, description, true, nil, metadata); err != nil {
		log.Println("Failed to create audit log for rate update", err)
	}

	return toCommissionRateDTO(rate), nil
}

// DeleteRate soft-deletes a commission rate. Rates referenced by recorded
// ledger entries can only be deactivated, never deleted, so historical
// snapshots stay explainable.
func (f *CommissionRateFlowImpl) DeleteRate(ctx context.Context, rateID uint, metadata *ClientMetadata) error {
	var categoryID uint

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		rate, err := f.rateRepo.ByID(txCtx, rateID)
		if err != nil {
			return err
		}
		if rate == nil {
			return ErrCommissionRateNotFound
		}
		categoryID = rate.CategoryID

		hasTransactions, err := f.txRepo.ExistsByRateCategory(txCtx, rate.CategoryID)
		if err != nil {
			return err
		}
		if hasTransactions {
			return ErrRateHasTransactions
		}

		rate.IsActive = false
		if err := f.rateRepo.Update(txCtx, rate); err != nil {
			return err
		}
		return f.rateRepo.Delete(txCtx, rate)
	})
	if err != nil {
		return NewBusinessError("DELETE_RATE_FAILED", "Delete commission rate failed", err)
	}

	f.invalidateRateCache(ctx, categoryID)

	description := fmt.Sprintf("Commission rate %d deleted for category %d", rateID, categoryID)
	if err := createAuditLog(ctx, f.auditRepo, nil, models.AuditActionRateDeleted, description, true, nil, metadata); err != nil {
		log.Println("Failed to create audit log for rate deletion", err)
	}

	return nil
}

// GetRate retrieves a single commission rate by ID
func (f *CommissionRateFlowImpl) GetRate(ctx context.Context, rateID uint) (*dto.CommissionRateDTO, error) {
	rate, err := f.rateRepo.ByID(ctx, rateID)
	if err != nil {
		return nil, NewBusinessError("GET_RATE_FAILED", "Get commission rate failed", err)
	}
	if rate == nil {
		return nil, NewBusinessError("GET_RATE_FAILED", "Get commission rate failed", ErrCommissionRateNotFound)
	}
	return toCommissionRateDTO(rate), nil
}

// ListRates lists commission rates with optional filters and pagination
func (f *CommissionRateFlowImpl) ListRates(ctx context.Context, req *dto.ListCommissionRatesRequest) (*dto.ListCommissionRatesResponse, error) {
	page, pageSize, err := normalizePagination(req.Page, req.PageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_RATES_FAILED", "List commission rates failed", err)
	}

	filter := models.CommissionRateFilter{
		CategoryID: req.CategoryID,
		IsActive:   req.IsActive,
	}

	rates, err := f.rateRepo.ByFilter(ctx, filter, "category_id", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_RATES_FAILED", "List commission rates failed", err)
	}
	total, err := f.rateRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_RATES_FAILED", "List commission rates failed", err)
	}

	items := make([]dto.CommissionRateDTO, 0, len(rates))
	for _, rate := range rates {
		items = append(items, *toCommissionRateDTO(rate))
	}

	return &dto.ListCommissionRatesResponse{
		Rates:      items,
		Pagination: buildPagination(page, pageSize, total),
	}, nil
}

// ResolveRate returns the single active rate for a category, serving from
// cache when possible. A category with no active rate is a configuration gap
// surfaced as ErrCommissionRateNotFound; callers must not fall back to a
// default rate.
func (f *CommissionRateFlowImpl) ResolveRate(ctx context.Context, categoryID uint) (*models.CommissionRate, error) {
	return resolveActiveRate(ctx, f.rateRepo, f.cache, categoryID)
}

// resolveActiveRate is shared between rate configuration and ledger recording
func resolveActiveRate(ctx context.Context, rateRepo repository.CommissionRateRepository, cache services.CacheService, categoryID uint) (*models.CommissionRate, error) {
	cacheKey := fmt.Sprintf("%s%d", rateCacheKeyPrefix, categoryID)

	if cache != nil {
		if cached, found, err := cache.Get(ctx, cacheKey); err == nil && found {
			var rate models.CommissionRate
			if err := json.Unmarshal([]byte(cached), &rate); err == nil {
				return &rate, nil
			}
		}
	}

	rate, err := rateRepo.ActiveByCategoryID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, ErrCommissionRateNotFound
	}

	if cache != nil {
		if raw, err := json.Marshal(rate); err == nil {
			if err := cache.Set(ctx, cacheKey, string(raw), rateCacheTTL); err != nil {
				log.Println("Failed to cache commission rate", err)
			}
		}
	}

	return rate, nil
}

func (f *CommissionRateFlowImpl) invalidateRateCache(ctx context.Context, categoryID uint) {
	if f.cache == nil {
		return
	}
	cacheKey := fmt.Sprintf("%s%d", rateCacheKeyPrefix, categoryID)
	if err := f.cache.Delete(ctx, cacheKey); err != nil {
		log.Println("Failed to invalidate commission rate cache", err)
	}
}

// validateRate checks business rules shared by create and update
func validateRate(rate *models.CommissionRate) error {
	if rate.CommissionType != models.CommissionTypePercentage && rate.CommissionType != models.CommissionTypeFixed {
		return ErrInvalidCommissionType
	}
	if rate.CommissionValue <= 0 {
		return ErrInvalidCommissionValue
	}
	if rate.HasBounds() && !rate.ValidBounds() {
		return ErrInvalidRateBounds
	}
	return nil
}

func toCommissionRateDTO(rate *models.CommissionRate) *dto.CommissionRateDTO {
	return &dto.CommissionRateDTO{
		ID:              rate.ID,
		UUID:            rate.UUID.String(),
		CategoryID:      rate.CategoryID,
		CommissionType:  string(rate.CommissionType),
		CommissionValue: rate.CommissionValue,
		MinAmount:       rate.MinAmount,
		MaxAmount:       rate.MaxAmount,
		IsActive:        rate.IsActive,
		Description:     rate.Description,
		CreatedAt:       rate.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       rate.UpdatedAt.Format(time.RFC3339),
	}
}

// normalizePagination applies defaults and validates paging parameters
func normalizePagination(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}
	if page < 1 {
		return 0, 0, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return 0, 0, ErrInvalidPageSize
	}
	return page, pageSize, nil
}

func buildPagination(page, pageSize int, total int64) dto.PaginationDTO {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return dto.PaginationDTO{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
