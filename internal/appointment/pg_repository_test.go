package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayBoundsFollowCallerZone(t *testing.T) {
	lagos, err := time.LoadLocation("Africa/Lagos")
	require.NoError(t, err)

	// 00:30 in Lagos is still the previous day in UTC; the range must stay
	// on the caller's calendar day.
	early := time.Date(2025, 3, 11, 0, 30, 0, 0, lagos)
	require.Equal(t, 10, early.UTC().Day())

	start, end := dayBounds(early)
	assert.True(t, start.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, lagos)), "start %s", start)
	assert.True(t, end.Equal(time.Date(2025, 3, 12, 0, 0, 0, 0, lagos)), "end %s", end)
}

func TestDayBoundsCoverWholeDay(t *testing.T) {
	noon := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	start, end := dayBounds(noon)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
	assert.False(t, noon.Before(start))
	assert.True(t, noon.Before(end))
}
