package timerange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelativeDays(t *testing.T) {
	spec, err := Parse("last_7d")
	require.NoError(t, err)

	now := time.Date(2025, 11, 17, 12, 0, 0, 0, time.UTC)
	r, err := spec.Resolve(now)
	require.NoError(t, err)

	assert.Equal(t, now.AddDate(0, 0, -7), r.Start)
	assert.Equal(t, now, r.End)
}

func TestParseRelativeVariants(t *testing.T) {
	now := time.Date(2025, 11, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"24h", 24 * time.Hour},
		{"last-24h", 24 * time.Hour},
		{"last7d", 7 * 24 * time.Hour},
		{"90m", 90 * time.Minute},
		{"2w", 2 * 7 * 24 * time.Hour},
		{`"14 Days"`, 14 * 24 * time.Hour},
		{`"6 Hours"`, 6 * time.Hour},
	}

	for _, tc := range tests {
		spec, err := Parse(tc.raw)
		require.NoError(t, err, tc.raw)

		r, err := spec.Resolve(now)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, r.End.Sub(r.Start), tc.raw)
	}
}

func TestParseToday(t *testing.T) {
	spec, err := Parse("today")
	require.NoError(t, err)

	now := time.Date(2025, 11, 17, 9, 30, 0, 0, time.UTC)
	r, err := spec.Resolve(now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, now, r.End)
}

func TestParseYesterday(t *testing.T) {
	spec, err := Parse("yesterday")
	require.NoError(t, err)

	now := time.Date(2025, 11, 17, 9, 30, 0, 0, time.UTC)
	r, err := spec.Resolve(now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 11, 16, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC), r.End)
}

func TestParseAbsoluteRange(t *testing.T) {
	spec, err := Parse("[2025-01-01 00:00:00,2025-01-02 00:00:00]")
	require.NoError(t, err)

	r, err := spec.Resolve(time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), r.End)
}

func TestParseOpenEndAbsoluteRange(t *testing.T) {
	spec, err := Parse("[2025-11-16T09:06:34.543Z,]")
	require.NoError(t, err)

	now := time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC)
	r, err := spec.Resolve(now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 11, 16, 9, 6, 34, 543000000, time.UTC), r.Start)
	assert.Equal(t, now, r.End)
}

func TestParseOpenStartAbsoluteRange(t *testing.T) {
	spec, err := Parse("[,2025-11-16T09:06:34.543Z]")
	require.NoError(t, err)

	now := time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC)
	r, err := spec.Resolve(now)
	require.NoError(t, err)

	assert.True(t, r.Start.IsZero())
	assert.Equal(t, time.Date(2025, 11, 16, 9, 6, 34, 543000000, time.UTC), r.End)
}

func TestParseAbsoluteRangeLowercaseSeparators(t *testing.T) {
	spec, err := Parse("[2025-11-16t09:06:34.543z,2025-11-17t00:00:00z]")
	require.NoError(t, err)

	r, err := spec.Resolve(time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 11, 16, 9, 6, 34, 543000000, time.UTC), r.Start)
	assert.Equal(t, time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC), r.End)
}

func TestReversedRangeRejected(t *testing.T) {
	spec, err := Parse("[2025-01-02 00:00:00,2025-01-01 00:00:00]")
	require.NoError(t, err)

	_, err = spec.Resolve(time.Now().UTC())
	assert.Error(t, err)
}

func TestUnsupportedToken(t *testing.T) {
	_, err := Parse("fortnight")
	assert.Error(t, err)
}
