// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/feirahub/commission-engine/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// StoreRepository defines operations for seller stores
type StoreRepository interface {
	Repository[models.Store, models.StoreFilter]
	ByEmail(ctx context.Context, email string) (*models.Store, error)
	ByUUID(ctx context.Context, uuid string) (*models.Store, error)
}

// SubscriptionRepository defines operations for store subscriptions
type SubscriptionRepository interface {
	Repository[models.Subscription, models.SubscriptionFilter]
	ByStoreID(ctx context.Context, storeID uint) (*models.Subscription, error)
	ByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Subscription, error)
	ByGatewayCustomerID(ctx context.Context, customerID string) (*models.Subscription, error)
}

// CommissionRateRepository defines operations for commission rates
type CommissionRateRepository interface {
	Repository[models.CommissionRate, models.CommissionRateFilter]
	ActiveByCategoryID(ctx context.Context, categoryID uint) (*models.CommissionRate, error)
	Delete(ctx context.Context, rate *models.CommissionRate) error
	ListActive(ctx context.Context, limit, offset int) ([]*models.CommissionRate, error)
}

// CommissionTransactionRepository defines operations for the commission ledger
type CommissionTransactionRepository interface {
	Repository[models.CommissionTransaction, models.CommissionTransactionFilter]
	ByOrderID(ctx context.Context, orderID string) (*models.CommissionTransaction, error)
	SumCalculatedForPeriod(ctx context.Context, storeID uint, from, to time.Time) (float64, int, error)
	ListCalculatedForPeriod(ctx context.Context, storeID uint, from, to time.Time) ([]*models.CommissionTransaction, error)
	MarkPaidForPeriod(ctx context.Context, storeID uint, from, to time.Time, paidAt time.Time) (int64, error)
	ExistsByRateCategory(ctx context.Context, categoryID uint) (bool, error)
}

// CommissionPayoutRepository defines operations for commission payouts
type CommissionPayoutRepository interface {
	Repository[models.CommissionPayout, models.CommissionPayoutFilter]
	ByStoreAndPeriod(ctx context.Context, storeID uint, period string) (*models.CommissionPayout, error)
	ByUUID(ctx context.Context, uuid string) (*models.CommissionPayout, error)
	ListByStore(ctx context.Context, storeID uint, limit, offset int) ([]*models.CommissionPayout, error)
}

// WebhookEventRepository defines operations for webhook idempotency records
type WebhookEventRepository interface {
	Repository[models.WebhookEvent, models.WebhookEventFilter]
	ByIdempotencyKey(ctx context.Context, key string) (*models.WebhookEvent, error)
	MarkCompleted(ctx context.Context, eventID uint, processedAt time.Time) error
	MarkFailed(ctx context.Context, eventID uint, errorMessage string, processedAt time.Time) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByStore(ctx context.Context, storeID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
