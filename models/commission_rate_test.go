package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestCommissionRateApply(t *testing.T) {
	tests := []struct {
		name        string
		rate        CommissionRate
		orderAmount float64
		expected    float64
	}{
		{
			name:        "percentage",
			rate:        CommissionRate{CommissionType: CommissionTypePercentage, CommissionValue: 0.10},
			orderAmount: 250,
			expected:    25,
		},
		{
			name:        "fixed ignores order amount",
			rate:        CommissionRate{CommissionType: CommissionTypeFixed, CommissionValue: 7.5},
			orderAmount: 9999,
			expected:    7.5,
		},
		{
			name: "clamped to lower bound",
			rate: CommissionRate{
				CommissionType:  CommissionTypePercentage,
				CommissionValue: 0.10,
				MinAmount:       ptr(15),
				MaxAmount:       ptr(40),
			},
			orderAmount: 100,
			expected:    15,
		},
		{
			name: "clamped to upper bound",
			rate: CommissionRate{
				CommissionType:  CommissionTypePercentage,
				CommissionValue: 0.10,
				MinAmount:       ptr(15),
				MaxAmount:       ptr(40),
			},
			orderAmount: 1000,
			expected:    40,
		},
		{
			name: "inside bounds untouched",
			rate: CommissionRate{
				CommissionType:  CommissionTypePercentage,
				CommissionValue: 0.10,
				MinAmount:       ptr(15),
				MaxAmount:       ptr(40),
			},
			orderAmount: 300,
			expected:    30,
		},
		{
			name: "single bound is not a clamp",
			rate: CommissionRate{
				CommissionType:  CommissionTypePercentage,
				CommissionValue: 0.10,
				MinAmount:       ptr(15),
			},
			orderAmount: 100,
			expected:    10,
		},
		{
			name: "inverted bounds ignored",
			rate: CommissionRate{
				CommissionType:  CommissionTypePercentage,
				CommissionValue: 0.10,
				MinAmount:       ptr(40),
				MaxAmount:       ptr(15),
			},
			orderAmount: 100,
			expected:    10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.rate.Apply(tt.orderAmount), 1e-9)
		})
	}
}

func TestCommissionRateValidBounds(t *testing.T) {
	assert.True(t, (&CommissionRate{}).ValidBounds())
	assert.True(t, (&CommissionRate{MinAmount: ptr(1)}).ValidBounds())
	assert.True(t, (&CommissionRate{MinAmount: ptr(1), MaxAmount: ptr(2)}).ValidBounds())
	assert.False(t, (&CommissionRate{MinAmount: ptr(2), MaxAmount: ptr(2)}).ValidBounds())
	assert.False(t, (&CommissionRate{MinAmount: ptr(3), MaxAmount: ptr(2)}).ValidBounds())
}
