package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 30}, tod)
	assert.Equal(t, "09:30", tod.String())
	assert.Equal(t, 570, tod.Minutes())
	assert.Equal(t, tod, TimeOfDayFromMinutes(570))

	for _, bad := range []string{"", "9", "24:00", "12:60", "noon"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimeOfDay_NextOccurrence(t *testing.T) {
	nine := TimeOfDay{Hour: 9}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC),
			want: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly now rolls to tomorrow",
			now:  time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
			want: time.Date(2024, 5, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "already passed",
			now:  time.Date(2024, 5, 31, 22, 15, 0, 0, time.UTC),
			want: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(nine.NextOccurrence(tt.now)))
		})
	}
}

func TestTimeOfDay_NextOccurrenceKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2024, 5, 10, 3, 0, 0, 0, loc)

	next := TimeOfDay{Hour: 9}.NextOccurrence(now)
	assert.Equal(t, loc, next.Location())
	assert.Equal(t, 6*time.Hour, next.Sub(now))
}

func TestSortTimes(t *testing.T) {
	times := []TimeOfDay{{Hour: 18}, {Hour: 9, Minute: 30}, {Hour: 0, Minute: 5}}
	SortTimes(times)
	assert.Equal(t, []TimeOfDay{{Hour: 0, Minute: 5}, {Hour: 9, Minute: 30}, {Hour: 18}}, times)
}
