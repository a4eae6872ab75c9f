package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommissionType distinguishes percentage-based rates from fixed fees
type CommissionType string

const (
	CommissionTypePercentage CommissionType = "percentage" // commission = order amount * value
	CommissionTypeFixed      CommissionType = "fixed"      // commission = value, regardless of order amount
)

// CommissionRate represents the commission configuration for a product category.
// At most one active rate may exist per category; the partial unique index on
// (category_id) WHERE is_active enforces this at the database level.
type CommissionRate struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`

	// Category and rate configuration
	CategoryID      uint           `gorm:"not null;index:idx_commission_rates_active_category,unique,where:is_active" json:"category_id"`
	CommissionType  CommissionType `gorm:"type:varchar(20);not null" json:"commission_type"`
	CommissionValue float64        `gorm:"type:decimal(12,4);not null" json:"commission_value"` // Rate (e.g., 0.10 for 10%) or fixed amount

	// Optional clamp bounds applied to the computed commission
	MinAmount *float64 `gorm:"type:decimal(12,2)" json:"min_amount"` // Lower clamp bound (null = unbounded)
	MaxAmount *float64 `gorm:"type:decimal(12,2)" json:"max_amount"` // Upper clamp bound (null = unbounded)
	IsActive  bool     `gorm:"not null;default:true;index" json:"is_active"`

	Description string `gorm:"type:text" json:"description"`

	// Audit fields
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate ensures UUID is set
func (cr *CommissionRate) BeforeCreate(tx *gorm.DB) error {
	if cr.UUID == uuid.Nil {
		cr.UUID = uuid.New()
	}
	return nil
}

// HasBounds returns true if both clamp bounds are configured
func (cr *CommissionRate) HasBounds() bool {
	return cr.MinAmount != nil && cr.MaxAmount != nil
}

// ValidBounds returns true if the configured bounds form a valid interval.
// Rates without both bounds are always valid.
func (cr *CommissionRate) ValidBounds() bool {
	if !cr.HasBounds() {
		return true
	}
	return *cr.MinAmount < *cr.MaxAmount
}

// Apply calculates the commission amount for a given order amount,
// clamped to [MinAmount, MaxAmount] when both bounds are set.
func (cr *CommissionRate) Apply(orderAmount float64) float64 {
	var commission float64
	switch cr.CommissionType {
	case CommissionTypeFixed:
		commission = cr.CommissionValue
	default:
		commission = orderAmount * cr.CommissionValue
	}

	if cr.HasBounds() && cr.ValidBounds() {
		if commission < *cr.MinAmount {
			commission = *cr.MinAmount
		}
		if commission > *cr.MaxAmount {
			commission = *cr.MaxAmount
		}
	}

	return commission
}

// TableName specifies the table name for GORM
func (CommissionRate) TableName() string {
	return "commission_rates"
}

// CommissionRateFilter represents filter criteria for commission rate queries
type CommissionRateFilter struct {
	ID             *uint           `json:"id,omitempty"`
	UUID           *uuid.UUID      `json:"uuid,omitempty"`
	CategoryID     *uint           `json:"category_id,omitempty"`
	CommissionType *CommissionType `json:"commission_type,omitempty"`
	IsActive       *bool           `json:"is_active,omitempty"`
}
