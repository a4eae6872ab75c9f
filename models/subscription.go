package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionStatus represents the billing state of a store's marketplace plan
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"   // Awaiting first gateway confirmation
	SubscriptionStatusActive    SubscriptionStatus = "active"    // Paid up; store may accept commission-relevant orders
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled" // Overdue or refunded at the gateway
)

// Subscription represents a store's gateway-billed marketplace plan. Gateway
// webhooks drive its status; an inactive subscription gates whether new
// commission-relevant orders are accepted for the store.
type Subscription struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`

	StoreID uint `gorm:"not null;uniqueIndex" json:"store_id"`

	// Gateway references
	GatewayCustomerID string `gorm:"type:varchar(255);index" json:"gateway_customer_id"`
	GatewayPaymentID  string `gorm:"type:varchar(255);index" json:"gateway_payment_id"` // Last payment that touched this subscription

	Status      SubscriptionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ActivatedAt *time.Time         `json:"activated_at"`
	CancelledAt *time.Time         `json:"cancelled_at"`

	// Audit fields
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Relationships
	Store Store `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"store,omitempty"`
}

// BeforeCreate ensures UUID is set
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	return nil
}

// IsActive returns true if the subscription is paid up
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// SubscriptionFilter represents filter criteria for subscription queries
type SubscriptionFilter struct {
	ID               *uint               `json:"id,omitempty"`
	UUID             *uuid.UUID          `json:"uuid,omitempty"`
	StoreID          *uint               `json:"store_id,omitempty"`
	GatewayPaymentID *string             `json:"gateway_payment_id,omitempty"`
	Status           *SubscriptionStatus `json:"status,omitempty"`
}
