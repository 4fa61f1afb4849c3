package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDayUTC(t *testing.T) {
	in := time.Date(2026, 8, 30, 23, 59, 59, 999, time.FixedZone("CST", 8*3600))
	got := StartOfDayUTC(in)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), got)
}

func TestAddDaysUTC(t *testing.T) {
	in := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC), AddDaysUTC(in, 1))
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), AddDaysUTC(in, -1))
}

func TestSameUTCDay(t *testing.T) {
	a := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)
	c := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	assert.True(t, SameUTCDay(a, b))
	assert.False(t, SameUTCDay(a, c))
}
