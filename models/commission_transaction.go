package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommissionTransactionStatus represents the current status of a ledger entry
type CommissionTransactionStatus string

const (
	CommissionTransactionStatusCalculated CommissionTransactionStatus = "calculated" // Commission computed at order completion
	CommissionTransactionStatusPaid       CommissionTransactionStatus = "paid"       // Settled via a completed payout
	CommissionTransactionStatusCancelled  CommissionTransactionStatus = "cancelled"  // Order refunded/cancelled before settlement
)

// CommissionTransaction represents one commission ledger entry tied to a single
// order. The applied rate is snapshotted at creation time so later rate changes
// never alter historical entries. Entries become immutable once paid; only the
// payout completion cascade flips calculated -> paid.
type CommissionTransaction struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`

	// Order and store references
	StoreID    uint   `gorm:"not null;index" json:"store_id"`
	CategoryID uint   `gorm:"not null;index" json:"category_id"`
	OrderID    string `gorm:"type:varchar(255);not null;uniqueIndex" json:"order_id"`

	// Amounts (snapshot at calculation time)
	OrderAmount           float64 `gorm:"type:decimal(12,2);not null" json:"order_amount"`
	CommissionRateApplied float64 `gorm:"type:decimal(12,4);not null" json:"commission_rate_applied"`
	CommissionAmount      float64 `gorm:"type:decimal(12,2);not null" json:"commission_amount"`

	// Status tracking
	Status CommissionTransactionStatus `gorm:"type:varchar(20);not null;default:'calculated';index" json:"status"`
	PaidAt *time.Time                  `gorm:"index" json:"paid_at"`

	// Audit fields
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Relationships
	Store Store `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"store,omitempty"`
}

// BeforeCreate ensures UUID is set
func (ct *CommissionTransaction) BeforeCreate(tx *gorm.DB) error {
	if ct.UUID == uuid.Nil {
		ct.UUID = uuid.New()
	}
	return nil
}

// IsPaid returns true if the entry has been settled by a payout
func (ct *CommissionTransaction) IsPaid() bool {
	return ct.Status == CommissionTransactionStatusPaid
}

// IsSettleable returns true if the entry can still flow into a payout
func (ct *CommissionTransaction) IsSettleable() bool {
	return ct.Status == CommissionTransactionStatusCalculated
}

// TableName specifies the table name for GORM
func (CommissionTransaction) TableName() string {
	return "commission_transactions"
}

// CommissionTransactionFilter represents filter criteria for ledger queries
type CommissionTransactionFilter struct {
	ID            *uint                        `json:"id,omitempty"`
	UUID          *uuid.UUID                   `json:"uuid,omitempty"`
	StoreID       *uint                        `json:"store_id,omitempty"`
	CategoryID    *uint                        `json:"category_id,omitempty"`
	OrderID       *string                      `json:"order_id,omitempty"`
	Status        *CommissionTransactionStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time                   `json:"created_after,omitempty"`
	CreatedBefore *time.Time                   `json:"created_before,omitempty"`
}
