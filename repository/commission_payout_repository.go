package repository

import (
	"context"
	"errors"

	"github.com/feirahub/commission-engine/models"
	"gorm.io/gorm"
)

// CommissionPayoutRepositoryImpl implements CommissionPayoutRepository interface
type CommissionPayoutRepositoryImpl struct {
	*BaseRepository[models.CommissionPayout, models.CommissionPayoutFilter]
}

// NewCommissionPayoutRepository creates a new commission payout repository
func NewCommissionPayoutRepository(db *gorm.DB) CommissionPayoutRepository {
	return &CommissionPayoutRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CommissionPayout, models.CommissionPayoutFilter](db),
	}
}

// ByStoreAndPeriod finds the payout issued for a (store, period) pair
func (r *CommissionPayoutRepositoryImpl) ByStoreAndPeriod(ctx context.Context, storeID uint, period string) (*models.CommissionPayout, error) {
	db := r.getDB(ctx)
	var payout models.CommissionPayout
	err := db.Where("store_id = ? AND period = ?", storeID, period).Last(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// ByUUID finds a payout by UUID
func (r *CommissionPayoutRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.CommissionPayout, error) {
	db := r.getDB(ctx)
	var payout models.CommissionPayout
	err := db.Where("uuid = ?", uuid).Last(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// ListByStore lists a store's payouts, most recent period first
func (r *CommissionPayoutRepositoryImpl) ListByStore(ctx context.Context, storeID uint, limit, offset int) ([]*models.CommissionPayout, error) {
	db := r.getDB(ctx)
	var payouts []*models.CommissionPayout

	query := db.Where("store_id = ?", storeID).Order("period DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

// ByFilter retrieves payouts based on filter criteria
func (r *CommissionPayoutRepositoryImpl) ByFilter(ctx context.Context, filter models.CommissionPayoutFilter, orderBy string, limit, offset int) ([]*models.CommissionPayout, error) {
	db := r.getDB(ctx)
	var payouts []*models.CommissionPayout

	query := db.Model(&models.CommissionPayout{})
	query = r.applyFilter(query, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	} else {
		query = query.Order("period DESC, store_id")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

// Count returns the number of payouts matching the filter
func (r *CommissionPayoutRepositoryImpl) Count(ctx context.Context, filter models.CommissionPayoutFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64

	query := db.Model(&models.CommissionPayout{})
	query = r.applyFilter(query, filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any payout matching the filter exists
func (r *CommissionPayoutRepositoryImpl) Exists(ctx context.Context, filter models.CommissionPayoutFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies the filter to the query
func (r *CommissionPayoutRepositoryImpl) applyFilter(query *gorm.DB, filter models.CommissionPayoutFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.Period != nil {
		query = query.Where("period = ?", *filter.Period)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return query
}
