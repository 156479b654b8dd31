package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysIn(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 30, DaysIn(2024, time.April))
	assert.Equal(t, 31, DaysIn(2024, time.December))
}

func TestDateSet(t *testing.T) {
	t.Parallel()

	kolkata := time.FixedZone("IST", 5*3600+1800)

	// 20:00 UTC on Jan 5 is already Jan 6 in Kolkata.
	s := NewDateSet(GranularityDay, kolkata, time.Date(2024, 1, 5, 20, 0, 0, 0, time.UTC))
	assert.True(t, s.Has(time.Date(2024, 1, 6, 9, 0, 0, 0, kolkata)))
	assert.False(t, s.Has(time.Date(2024, 1, 5, 9, 0, 0, 0, kolkata)))

	s.Add(time.Date(2024, 1, 1, 12, 0, 0, 0, kolkata))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(time.Date(2024, 1, 1, 23, 0, 0, 0, kolkata)))

	hours := NewDateSet(GranularityHour, nil, time.Date(2024, 1, 1, 8, 15, 0, 0, time.UTC))
	assert.True(t, hours.Has(time.Date(2024, 1, 1, 8, 45, 0, 0, time.UTC)))
	assert.False(t, hours.Has(time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)))
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	tod, err := ParseTimeOfDay("07:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 7, Minute: 30}, tod)
	assert.Equal(t, "07:30", tod.String())

	on := tod.On(time.Date(2024, 3, 1, 22, 10, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC), on)

	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, err := ParseTimeOfDay(bad)
		assert.True(t, errors.Is(err, ErrInvalidTimeOfDay), bad)
	}
}
