package businessflow

import (
	"testing"

	"github.com/feirahub/commission-engine/models"
	"github.com/stretchr/testify/assert"
)

func TestDeriveIdempotencyKey(t *testing.T) {
	key := DeriveIdempotencyKey("PAYMENT_CONFIRMED", "pay_123", "2026-08-30 10:00:00")

	// Deterministic across redeliveries
	assert.Equal(t, key, DeriveIdempotencyKey("PAYMENT_CONFIRMED", "pay_123", "2026-08-30 10:00:00"))
	assert.Len(t, key, 64)

	// Any component change yields a different logical event
	assert.NotEqual(t, key, DeriveIdempotencyKey("PAYMENT_RECEIVED", "pay_123", "2026-08-30 10:00:00"))
	assert.NotEqual(t, key, DeriveIdempotencyKey("PAYMENT_CONFIRMED", "pay_456", "2026-08-30 10:00:00"))
	assert.NotEqual(t, key, DeriveIdempotencyKey("PAYMENT_CONFIRMED", "pay_123", "2026-08-30 11:00:00"))

	// No separator ambiguity between event type and payment id
	assert.NotEqual(t,
		DeriveIdempotencyKey("PAYMENT|a", "b", "2026-08-30"),
		DeriveIdempotencyKey("PAYMENT", "a|b", "2026-08-30"))
}

func TestPaymentStatusEffects(t *testing.T) {
	activating := []string{"RECEIVED", "CONFIRMED"}
	for _, status := range activating {
		effect, ok := paymentStatusEffects[status]
		assert.True(t, ok, "status %s should be mapped", status)
		assert.Equal(t, models.SubscriptionStatusActive, effect.TargetStatus)
	}

	cancelling := []string{"OVERDUE", "REFUNDED"}
	for _, status := range cancelling {
		effect, ok := paymentStatusEffects[status]
		assert.True(t, ok, "status %s should be mapped", status)
		assert.Equal(t, models.SubscriptionStatusCancelled, effect.TargetStatus)
	}

	_, ok := paymentStatusEffects["PENDING"]
	assert.False(t, ok, "pending payments have no subscription effect")
}
