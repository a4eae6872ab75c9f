// Package models contains domain entities and business models for the commission engine
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	StoreID      *uint           `gorm:"index:idx_audit_store_id" json:"store_id,omitempty"`
	Store        *Store          `gorm:"foreignKey:StoreID;references:ID" json:"store,omitempty"`
	Action       string          `gorm:"type:varchar(64);not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionRateCreated          = "commission_rate_created"
	AuditActionRateUpdated          = "commission_rate_updated"
	AuditActionRateDeleted          = "commission_rate_deleted"
	AuditActionTransactionRecorded  = "commission_transaction_recorded"
	AuditActionPayoutCreated        = "payout_created"
	AuditActionPayoutStatusChanged  = "payout_status_changed"
	AuditActionPayoutCascadeApplied = "payout_cascade_applied"
	AuditActionPayoutCascadeFailed  = "payout_cascade_failed"
	AuditActionWebhookProcessed     = "webhook_processed"
	AuditActionWebhookFailed        = "webhook_failed"
	AuditActionWebhookDuplicate     = "webhook_duplicate"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	StoreID       *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

// IsReconciliationEvent reports whether this entry marks a ledger state that
// needs out-of-band reconciliation (completed payout whose cascade failed).
func (a *AuditLog) IsReconciliationEvent() bool {
	return a.Action == AuditActionPayoutCascadeFailed
}
