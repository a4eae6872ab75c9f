package repository

import (
	"context"
	"errors"
	"time"

	"github.com/feirahub/commission-engine/models"
	"gorm.io/gorm"
)

// WebhookEventRepositoryImpl implements WebhookEventRepository interface
type WebhookEventRepositoryImpl struct {
	*BaseRepository[models.WebhookEvent, models.WebhookEventFilter]
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &WebhookEventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.WebhookEvent, models.WebhookEventFilter](db),
	}
}

// ByIdempotencyKey finds the event recorded for an idempotency key
func (r *WebhookEventRepositoryImpl) ByIdempotencyKey(ctx context.Context, key string) (*models.WebhookEvent, error) {
	db := r.getDB(ctx)
	var event models.WebhookEvent
	err := db.Where("idempotency_key = ?", key).Last(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// MarkCompleted transitions an event from processing to completed
func (r *WebhookEventRepositoryImpl) MarkCompleted(ctx context.Context, eventID uint, processedAt time.Time) error {
	db := r.getDB(ctx)
	return db.Model(&models.WebhookEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"status":       models.WebhookEventStatusCompleted,
			"processed_at": processedAt,
			"updated_at":   processedAt,
		}).Error
}

// MarkFailed transitions an event from processing to failed with the error recorded
func (r *WebhookEventRepositoryImpl) MarkFailed(ctx context.Context, eventID uint, errorMessage string, processedAt time.Time) error {
	db := r.getDB(ctx)
	return db.Model(&models.WebhookEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"status":        models.WebhookEventStatusFailed,
			"error_message": errorMessage,
			"processed_at":  processedAt,
			"updated_at":    processedAt,
		}).Error
}

// ByFilter retrieves webhook events based on filter criteria
func (r *WebhookEventRepositoryImpl) ByFilter(ctx context.Context, filter models.WebhookEventFilter, orderBy string, limit, offset int) ([]*models.WebhookEvent, error) {
	db := r.getDB(ctx)
	var events []*models.WebhookEvent

	query := db.Model(&models.WebhookEvent{})
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

	err := query.Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of webhook events matching the filter
func (r *WebhookEventRepositoryImpl) Count(ctx context.Context, filter models.WebhookEventFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64

	query := db.Model(&models.WebhookEvent{})
	query = r.applyFilter(query, filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any webhook event matching the filter exists
func (r *WebhookEventRepositoryImpl) Exists(ctx context.Context, filter models.WebhookEventFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies the filter to the query
func (r *WebhookEventRepositoryImpl) applyFilter(query *gorm.DB, filter models.WebhookEventFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.IdempotencyKey != nil {
		query = query.Where("idempotency_key = ?", *filter.IdempotencyKey)
	}
	if filter.EventType != nil {
		query = query.Where("event_type = ?", *filter.EventType)
	}
	if filter.PaymentID != nil {
		query = query.Where("payment_id = ?", *filter.PaymentID)
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
