package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func mustRange(t *testing.T, date time.Time, start, end string) TimeRange {
	t.Helper()
	r, err := NewTimeRange(date, MustClock(start), MustClock(end))
	require.NoError(t, err)
	return r
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, c.Hour())
	assert.Equal(t, 30, c.Minute())
	assert.Equal(t, "09:30", c.String())

	end, err := ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, Clock(24*60), end)

	_, err = ParseClock("25:00")
	assert.ErrorIs(t, err, ErrInvalidClock)
	_, err = ParseClock("nine")
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestClockJSON(t *testing.T) {
	var payload struct {
		Start Clock `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"14:15"}`), &payload))
	assert.Equal(t, MustClock("14:15"), payload.Start)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"14:15"}`, string(out))
}

func TestNewTimeRange(t *testing.T) {
	r, err := NewTimeRange(time.Date(2025, 6, 1, 17, 45, 0, 0, time.FixedZone("X", 3600)), MustClock("09:00"), MustClock("10:00"))
	require.NoError(t, err)
	assert.Equal(t, day, r.Date)
	assert.Equal(t, time.Hour, r.Duration())

	_, err = NewTimeRange(day, MustClock("10:00"), MustClock("10:00"))
	assert.ErrorIs(t, err, ErrEmptyRange)
	_, err = NewTimeRange(day, MustClock("11:00"), MustClock("10:00"))
	assert.ErrorIs(t, err, ErrEmptyRange)
	_, err = NewTimeRange(time.Time{}, MustClock("09:00"), MustClock("10:00"))
	assert.ErrorIs(t, err, ErrRangeMissingDay)
	_, err = NewTimeRange(day, MustClock("24:00"), MustClock("24:00"))
	assert.ErrorIs(t, err, ErrRangeOutOfDay)

	late, err := NewTimeRange(day, MustClock("23:00"), MustClock("24:00"))
	require.NoError(t, err)
	assert.Equal(t, "23:00-24:00", late.TimeString())
}

func TestTimeRangeOverlaps(t *testing.T) {
	base := mustRange(t, day, "10:00", "11:00")

	tests := []struct {
		name  string
		other TimeRange
		want  bool
	}{
		{"identical", mustRange(t, day, "10:00", "11:00"), true},
		{"inside", mustRange(t, day, "10:15", "10:45"), true},
		{"covering", mustRange(t, day, "09:00", "12:00"), true},
		{"overlapping start", mustRange(t, day, "09:30", "10:30"), true},
		{"overlapping end", mustRange(t, day, "10:30", "11:30"), true},
		{"touching before", mustRange(t, day, "09:00", "10:00"), false},
		{"touching after", mustRange(t, day, "11:00", "12:00"), false},
		{"other date", mustRange(t, day.AddDate(0, 0, 1), "10:00", "11:00"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestTimeRangeOrderingAndFormat(t *testing.T) {
	a := mustRange(t, day, "09:00", "10:00")
	b := mustRange(t, day, "11:00", "12:00")
	c := mustRange(t, day.AddDate(0, 0, -1), "15:00", "16:00")

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, c.Less(a))
	assert.Equal(t, "2025-06-01 09:00-10:00", a.String())
	assert.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), a.StartsAt(time.UTC))
}
