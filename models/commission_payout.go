package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommissionPayoutStatus represents the lifecycle state of a payout
type CommissionPayoutStatus string

const (
	CommissionPayoutStatusPending    CommissionPayoutStatus = "pending"    // Batched, waiting for an operator to pick it up
	CommissionPayoutStatusProcessing CommissionPayoutStatus = "processing" // Settlement in progress at the gateway
	CommissionPayoutStatusCompleted  CommissionPayoutStatus = "completed"  // Settled; terminal
	CommissionPayoutStatusFailed     CommissionPayoutStatus = "failed"     // Settlement failed; may be retried back to pending
)

// payoutTransitions is the allowed state transition table. Completed is
// terminal; failed payouts retry back through pending.
var payoutTransitions = map[CommissionPayoutStatus][]CommissionPayoutStatus{
	CommissionPayoutStatusPending:    {CommissionPayoutStatusProcessing, CommissionPayoutStatusFailed},
	CommissionPayoutStatusProcessing: {CommissionPayoutStatusCompleted, CommissionPayoutStatusFailed},
	CommissionPayoutStatusCompleted:  {},
	CommissionPayoutStatusFailed:     {CommissionPayoutStatusPending},
}

// CanTransitionTo reports whether a payout in status s may move to target
func (s CommissionPayoutStatus) CanTransitionTo(target CommissionPayoutStatus) bool {
	for _, allowed := range payoutTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsValid reports whether s is one of the known payout statuses
func (s CommissionPayoutStatus) IsValid() bool {
	switch s {
	case CommissionPayoutStatusPending, CommissionPayoutStatusProcessing,
		CommissionPayoutStatusCompleted, CommissionPayoutStatusFailed:
		return true
	}
	return false
}

// CommissionPayout represents a batched, periodic aggregation of a store's
// calculated commission transactions. Totals are a snapshot taken at creation
// time, not a live view: entries recorded for the same period after the payout
// is issued are excluded and flow into a future payout. The composite unique
// index on (store_id, period) is the arbiter between concurrent creators.
type CommissionPayout struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`

	// Store and billing period
	StoreID uint   `gorm:"not null;uniqueIndex:idx_commission_payouts_store_period" json:"store_id"`
	Period  string `gorm:"type:varchar(7);not null;uniqueIndex:idx_commission_payouts_store_period" json:"period"` // YYYY-MM

	// Snapshot totals at creation time
	TotalCommission  float64 `gorm:"type:decimal(12,2);not null" json:"total_commission"`
	TotalPayout      float64 `gorm:"type:decimal(12,2);not null" json:"total_payout"`
	TransactionCount int     `gorm:"not null" json:"transaction_count"`

	// Status tracking
	Status           CommissionPayoutStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentReference string                 `gorm:"type:varchar(255)" json:"payment_reference"`
	Notes            string                 `gorm:"type:text" json:"notes"`
	ProcessedBy      *uint                  `gorm:"index" json:"processed_by"`
	ProcessedAt      *time.Time             `json:"processed_at"`

	// Audit fields
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Relationships
	Store Store `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"store,omitempty"`
}

// BeforeCreate ensures UUID is set
func (cp *CommissionPayout) BeforeCreate(tx *gorm.DB) error {
	if cp.UUID == uuid.Nil {
		cp.UUID = uuid.New()
	}
	return nil
}

// IsFinal returns true if the payout is in a terminal state
func (cp *CommissionPayout) IsFinal() bool {
	return cp.Status == CommissionPayoutStatusCompleted
}

// TableName specifies the table name for GORM
func (CommissionPayout) TableName() string {
	return "commission_payouts"
}

// CommissionPayoutFilter represents filter criteria for payout queries
type CommissionPayoutFilter struct {
	ID            *uint                   `json:"id,omitempty"`
	UUID          *uuid.UUID              `json:"uuid,omitempty"`
	StoreID       *uint                   `json:"store_id,omitempty"`
	Period        *string                 `json:"period,omitempty"`
	Status        *CommissionPayoutStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time              `json:"created_after,omitempty"`
	CreatedBefore *time.Time              `json:"created_before,omitempty"`
}
