package repository

import (
	"context"
	"errors"

	"github.com/feirahub/commission-engine/models"
	"gorm.io/gorm"
)

// SubscriptionRepositoryImpl implements SubscriptionRepository interface
type SubscriptionRepositoryImpl struct {
	*BaseRepository[models.Subscription, models.SubscriptionFilter]
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Subscription, models.SubscriptionFilter](db),
	}
}

// ByStoreID finds the subscription belonging to a store
func (r *SubscriptionRepositoryImpl) ByStoreID(ctx context.Context, storeID uint) (*models.Subscription, error) {
	db := r.getDB(ctx)
	var sub models.Subscription
	err := db.Where("store_id = ?", storeID).Last(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ByGatewayPaymentID finds the subscription last billed by a gateway payment
func (r *SubscriptionRepositoryImpl) ByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Subscription, error) {
	db := r.getDB(ctx)
	var sub models.Subscription
	err := db.Where("gateway_payment_id = ?", paymentID).Last(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ByGatewayCustomerID finds the subscription registered for a gateway customer
func (r *SubscriptionRepositoryImpl) ByGatewayCustomerID(ctx context.Context, customerID string) (*models.Subscription, error) {
	db := r.getDB(ctx)
	var sub models.Subscription
	err := db.Where("gateway_customer_id = ?", customerID).Last(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ByFilter retrieves subscriptions based on filter criteria
func (r *SubscriptionRepositoryImpl) ByFilter(ctx context.Context, filter models.SubscriptionFilter, orderBy string, limit, offset int) ([]*models.Subscription, error) {
	db := r.getDB(ctx)
	var subs []*models.Subscription

	query := db.Model(&models.Subscription{})
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

	err := query.Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// Count returns the number of subscriptions matching the filter
func (r *SubscriptionRepositoryImpl) Count(ctx context.Context, filter models.SubscriptionFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64

	query := db.Model(&models.Subscription{})
	query = r.applyFilter(query, filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any subscription matching the filter exists
func (r *SubscriptionRepositoryImpl) Exists(ctx context.Context, filter models.SubscriptionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies the filter to the query
func (r *SubscriptionRepositoryImpl) applyFilter(query *gorm.DB, filter models.SubscriptionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.GatewayPaymentID != nil {
		query = query.Where("gateway_payment_id = ?", *filter.GatewayPaymentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}
