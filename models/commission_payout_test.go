package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayoutStatusTransitionTable(t *testing.T) {
	allowed := []struct {
		from CommissionPayoutStatus
		to   CommissionPayoutStatus
	}{
		{CommissionPayoutStatusPending, CommissionPayoutStatusProcessing},
		{CommissionPayoutStatusPending, CommissionPayoutStatusFailed},
		{CommissionPayoutStatusProcessing, CommissionPayoutStatusCompleted},
		{CommissionPayoutStatusProcessing, CommissionPayoutStatusFailed},
		{CommissionPayoutStatusFailed, CommissionPayoutStatusPending},
	}
	for _, tr := range allowed {
		assert.True(t, tr.from.CanTransitionTo(tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	denied := []struct {
		from CommissionPayoutStatus
		to   CommissionPayoutStatus
	}{
		{CommissionPayoutStatusPending, CommissionPayoutStatusCompleted},
		{CommissionPayoutStatusCompleted, CommissionPayoutStatusPending},
		{CommissionPayoutStatusCompleted, CommissionPayoutStatusProcessing},
		{CommissionPayoutStatusCompleted, CommissionPayoutStatusFailed},
		{CommissionPayoutStatusFailed, CommissionPayoutStatusCompleted},
		{CommissionPayoutStatusPending, CommissionPayoutStatusPending},
	}
	for _, tr := range denied {
		assert.False(t, tr.from.CanTransitionTo(tr.to), "%s -> %s should be rejected", tr.from, tr.to)
	}
}

func TestPayoutStatusIsValid(t *testing.T) {
	assert.True(t, CommissionPayoutStatusPending.IsValid())
	assert.True(t, CommissionPayoutStatusProcessing.IsValid())
	assert.True(t, CommissionPayoutStatusCompleted.IsValid())
	assert.True(t, CommissionPayoutStatusFailed.IsValid())
	assert.False(t, CommissionPayoutStatus("settled").IsValid())
	assert.False(t, CommissionPayoutStatus("").IsValid())
}

func TestPayoutIsFinal(t *testing.T) {
	assert.True(t, (&CommissionPayout{Status: CommissionPayoutStatusCompleted}).IsFinal())
	assert.False(t, (&CommissionPayout{Status: CommissionPayoutStatusFailed}).IsFinal())
	assert.False(t, (&CommissionPayout{Status: CommissionPayoutStatusPending}).IsFinal())
}
