// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/feirahub/commission-engine/models"
	"github.com/feirahub/commission-engine/repository"
	"github.com/feirahub/commission-engine/utils"
)

const RequestIDKey = "X-Request-ID"

// Commission rate cache keys. Resolution is read-heavy (one lookup per
// recorded order) while rates change rarely, so resolved rates are cached
// per category and invalidated on every write.
const (
	rateCacheKeyPrefix = "commission_rate:category:"
	rateCacheTTL       = 5 * time.Minute
)

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// getStore loads a store by ID and checks it is usable
func getStore(ctx context.Context, storeRepo repository.StoreRepository, storeID uint) (*models.Store, error) {
	store, err := storeRepo.ByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}
	if !utils.IsTrue(store.IsActive) {
		return nil, ErrStoreInactive
	}
	return store, nil
}

// createAuditLog persists a reconciliation audit entry. Audit failures are
// returned to the caller; flows decide whether they are fatal.
func createAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, storeID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		StoreID:      storeID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	if metadata != nil && len(metadata.Additional) > 0 {
		if raw, err := json.Marshal(metadata.Additional); err == nil {
			audit.Metadata = raw
		}
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return auditRepo.Save(ctx, audit)
}
