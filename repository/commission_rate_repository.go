package repository

import (
	"context"
	"errors"

	"github.com/feirahub/commission-engine/models"
	"gorm.io/gorm"
)

// CommissionRateRepositoryImpl implements CommissionRateRepository interface
type CommissionRateRepositoryImpl struct {
	*BaseRepository[models.CommissionRate, models.CommissionRateFilter]
}

// NewCommissionRateRepository creates a new commission rate repository
func NewCommissionRateRepository(db *gorm.DB) CommissionRateRepository {
	return &CommissionRateRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CommissionRate, models.CommissionRateFilter](db),
	}
}

// ActiveByCategoryID finds the single active commission rate for a category
func (r *CommissionRateRepositoryImpl) ActiveByCategoryID(ctx context.Context, categoryID uint) (*models.CommissionRate, error) {
	db := r.getDB(ctx)
	var rate models.CommissionRate
	err := db.Where("category_id = ? AND is_active = ?", categoryID, true).Last(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}

// Delete soft-deletes a commission rate
func (r *CommissionRateRepositoryImpl) Delete(ctx context.Context, rate *models.CommissionRate) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Delete(rate).Error
	return err
}

// ListActive gets active commission rates ordered by category
func (r *CommissionRateRepositoryImpl) ListActive(ctx context.Context, limit, offset int) ([]*models.CommissionRate, error) {
	db := r.getDB(ctx)
	var rates []*models.CommissionRate

	query := db.Where("is_active = ?", true).Order("category_id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

// ByFilter retrieves commission rates based on filter criteria
func (r *CommissionRateRepositoryImpl) ByFilter(ctx context.Context, filter models.CommissionRateFilter, orderBy string, limit, offset int) ([]*models.CommissionRate, error) {
	db := r.getDB(ctx)
	var rates []*models.CommissionRate

	query := db.Model(&models.CommissionRate{})
	query = r.applyFilter(query, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	} else {
		query = query.Order("category_id")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

// Count returns the number of commission rates matching the filter
func (r *CommissionRateRepositoryImpl) Count(ctx context.Context, filter models.CommissionRateFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64

	query := db.Model(&models.CommissionRate{})
	query = r.applyFilter(query, filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any commission rate matching the filter exists
func (r *CommissionRateRepositoryImpl) Exists(ctx context.Context, filter models.CommissionRateFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies the filter to the query
func (r *CommissionRateRepositoryImpl) applyFilter(query *gorm.DB, filter models.CommissionRateFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.CommissionType != nil {
		query = query.Where("commission_type = ?", *filter.CommissionType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}
