package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitSystemClockVersion(t *testing.T) {
	first := systemClock{}.Version()
	time.Sleep(2 * time.Millisecond)
	second := systemClock{}.Version()

	assert.InDelta(t, time.Now().UnixMilli(), second, float64(50), "should return current unix milliseconds")
	assert.Greater(t, second, first, "later run should get greater version")
}

func TestUnitSystemClockNow(t *testing.T) {
	now := systemClock{}.Now()

	require.NotNil(t, now, "should return time")
	assert.Equal(t, time.UTC, now.Location(), "should return UTC time")
	assert.Zero(t, now.Nanosecond()%int(storedPrecision), "should truncate to stored precision")
	assert.WithinDuration(t, time.Now(), *now, 50*time.Millisecond, "should return current time")
}
