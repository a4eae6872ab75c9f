package repository

import (
	"context"
	"errors"
	"time"

	"github.com/feirahub/commission-engine/models"
	"gorm.io/gorm"
)

// CommissionTransactionRepositoryImpl implements CommissionTransactionRepository interface
type CommissionTransactionRepositoryImpl struct {
	*BaseRepository[models.CommissionTransaction, models.CommissionTransactionFilter]
}

// NewCommissionTransactionRepository creates a new commission transaction repository
func NewCommissionTransactionRepository(db *gorm.DB) CommissionTransactionRepository {
	return &CommissionTransactionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CommissionTransaction, models.CommissionTransactionFilter](db),
	}
}

// ByOrderID finds the ledger entry recorded for an order
func (r *CommissionTransactionRepositoryImpl) ByOrderID(ctx context.Context, orderID string) (*models.CommissionTransaction, error) {
	db := r.getDB(ctx)
	var tx models.CommissionTransaction
	err := db.Where("order_id = ?", orderID).Last(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// SumCalculatedForPeriod sums commission over a store's calculated entries
// created within [from, to). Returns the total and the number of entries.
func (r *CommissionTransactionRepositoryImpl) SumCalculatedForPeriod(ctx context.Context, storeID uint, from, to time.Time) (float64, int, error) {
	db := r.getDB(ctx)

	var result struct {
		Total float64
		Count int
	}
	err := db.Model(&models.CommissionTransaction{}).
		Select("COALESCE(SUM(commission_amount), 0) AS total, COUNT(*) AS count").
		Where("store_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			storeID, models.CommissionTransactionStatusCalculated, from, to).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Total, result.Count, nil
}

// ListCalculatedForPeriod lists a store's settleable entries within [from, to)
func (r *CommissionTransactionRepositoryImpl) ListCalculatedForPeriod(ctx context.Context, storeID uint, from, to time.Time) ([]*models.CommissionTransaction, error) {
	db := r.getDB(ctx)
	var txs []*models.CommissionTransaction
	err := db.Where("store_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
		storeID, models.CommissionTransactionStatusCalculated, from, to).
		Order("created_at").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// MarkPaidForPeriod bulk-flips a store's calculated entries within [from, to)
// to paid. This is the payout completion cascade; no other code path may move
// an entry to paid. Returns the number of rows updated.
func (r *CommissionTransactionRepositoryImpl) MarkPaidForPeriod(ctx context.Context, storeID uint, from, to time.Time, paidAt time.Time) (int64, error) {
	db := r.getDB(ctx)

	result := db.Model(&models.CommissionTransaction{}).
		Where("store_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			storeID, models.CommissionTransactionStatusCalculated, from, to).
		Updates(map[string]any{
			"status":     models.CommissionTransactionStatusPaid,
			"paid_at":    paidAt,
			"updated_at": paidAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ExistsByRateCategory checks whether any ledger entry references a category.
// Used to refuse hard-deleting a rate with dependent transactions.
func (r *CommissionTransactionRepositoryImpl) ExistsByRateCategory(ctx context.Context, categoryID uint) (bool, error) {
	db := r.getDB(ctx)
	var count int64
	err := db.Model(&models.CommissionTransaction{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ByFilter retrieves ledger entries based on filter criteria
func (r *CommissionTransactionRepositoryImpl) ByFilter(ctx context.Context, filter models.CommissionTransactionFilter, orderBy string, limit, offset int) ([]*models.CommissionTransaction, error) {
	db := r.getDB(ctx)
	var txs []*models.CommissionTransaction

	query := db.Model(&models.CommissionTransaction{})
	query = r.applyFilter(query, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	} else {
		query = query.Order("created_at DESC")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Count returns the number of ledger entries matching the filter
func (r *CommissionTransactionRepositoryImpl) Count(ctx context.Context, filter models.CommissionTransactionFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64

	query := db.Model(&models.CommissionTransaction{})
	query = r.applyFilter(query, filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any ledger entry matching the filter exists
func (r *CommissionTransactionRepositoryImpl) Exists(ctx context.Context, filter models.CommissionTransactionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies the filter to the query
func (r *CommissionTransactionRepositoryImpl) applyFilter(query *gorm.DB, filter models.CommissionTransactionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
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
