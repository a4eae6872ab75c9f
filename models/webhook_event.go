package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookEventStatus represents the processing state of a gateway notification
type WebhookEventStatus string

const (
	WebhookEventStatusProcessing WebhookEventStatus = "processing" // Inserted before side effects run
	WebhookEventStatusCompleted  WebhookEventStatus = "completed"  // Side effects applied exactly once
	WebhookEventStatusFailed     WebhookEventStatus = "failed"     // Side effects failed; safe to retry on redelivery
)

// WebhookEvent is the idempotency and audit record for gateway notifications.
// The unique constraint on idempotency_key is the concurrency mutex: concurrent
// deliveries of the same logical event race to insert the key, exactly one wins
// and runs side effects, the loser reads back the stored outcome.
type WebhookEvent struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`

	// Event identity
	IdempotencyKey string `gorm:"type:varchar(64);uniqueIndex;not null" json:"idempotency_key"`
	EventType      string `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PaymentID      string `gorm:"type:varchar(255);not null;index" json:"payment_id"`

	// Processing state
	Status       WebhookEventStatus `gorm:"type:varchar(20);not null;default:'processing';index" json:"status"`
	ErrorMessage string             `gorm:"type:text" json:"error_message"`
	ProcessedAt  *time.Time         `json:"processed_at"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// BeforeCreate ensures UUID is set
func (we *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if we.UUID == uuid.Nil {
		we.UUID = uuid.New()
	}
	return nil
}

// IsSettled returns true if the event reached a terminal processing state
func (we *WebhookEvent) IsSettled() bool {
	return we.Status == WebhookEventStatusCompleted || we.Status == WebhookEventStatusFailed
}

// TableName specifies the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// WebhookEventFilter represents filter criteria for webhook event queries
type WebhookEventFilter struct {
	ID             *uint               `json:"id,omitempty"`
	IdempotencyKey *string             `json:"idempotency_key,omitempty"`
	EventType      *string             `json:"event_type,omitempty"`
	PaymentID      *string             `json:"payment_id,omitempty"`
	Status         *WebhookEventStatus `json:"status,omitempty"`
	CreatedAfter   *time.Time          `json:"created_after,omitempty"`
	CreatedBefore  *time.Time          `json:"created_before,omitempty"`
}
