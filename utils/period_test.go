package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	parsed, err := ParsePeriod("2026-08")
	require.NoError(t, err)
	assert.Equal(t, 2026, parsed.Year())
	assert.Equal(t, time.August, parsed.Month())
	assert.Equal(t, time.UTC, parsed.Location())

	for _, bad := range []string{"", "2026", "08-2026", "2026-13", "2026-8", "august"} {
		_, err := ParsePeriod(bad)
		assert.Error(t, err, "period %q should be rejected", bad)
	}
}

func TestPeriodBounds(t *testing.T) {
	from, to, err := PeriodBounds("2026-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), to)

	// December rolls into the next year
	from, to, err = PeriodBounds("2025-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestCurrentPeriod(t *testing.T) {
	assert.Equal(t, "2026-08", CurrentPeriod(time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)))

	// Local times are normalized to UTC first
	tehran := time.FixedZone("UTC+3:30", 3*3600+1800)
	assert.Equal(t, "2026-08", CurrentPeriod(time.Date(2026, 9, 1, 1, 0, 0, 0, tehran)))
}
