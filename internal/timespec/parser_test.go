package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("RFC3339 timestamp", func(t *testing.T) {
		got, err := Parse("2026-08-29T13:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 29, 13, 0, 0, 0, time.UTC), got)
	})

	t.Run("duration relative to now", func(t *testing.T) {
		before := time.Now().Add(-time.Hour)
		got, err := Parse("1h")
		require.NoError(t, err)
		after := time.Now().Add(-time.Hour)

		assert.False(t, got.Before(before))
		assert.False(t, got.After(after))
	})

	t.Run("empty spec", func(t *testing.T) {
		_, err := Parse("")
		assert.Error(t, err)
	})

	t.Run("garbage spec", func(t *testing.T) {
		_, err := Parse("next tuesday")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid time specification")
	})
}

func TestParseRange(t *testing.T) {
	t.Run("both bounds open", func(t *testing.T) {
		since, until, err := ParseRange("", "")
		require.NoError(t, err)
		assert.True(t, since.IsZero())
		assert.True(t, until.IsZero())
	})

	t.Run("valid range", func(t *testing.T) {
		since, until, err := ParseRange("2026-08-01T00:00:00Z", "2026-08-29T00:00:00Z")
		require.NoError(t, err)
		assert.True(t, since.Before(until))
	})

	t.Run("inverted range", func(t *testing.T) {
		_, _, err := ParseRange("2026-08-29T00:00:00Z", "2026-08-01T00:00:00Z")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--since must be before --until")
	})

	t.Run("bad since", func(t *testing.T) {
		_, _, err := ParseRange("bogus", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --since")
	})
}

func TestInRange(t *testing.T) {
	at := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	early := at.Add(-time.Hour)
	late := at.Add(time.Hour)

	assert.True(t, InRange(at, time.Time{}, time.Time{}))
	assert.True(t, InRange(at, early, late))
	assert.False(t, InRange(early, at, time.Time{}))
	assert.False(t, InRange(late, time.Time{}, at))
}
