package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	t.Parallel()

	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		assert.Len(t, next, 26)
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestAtRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 14, 15, 9, 26, 535_000_000, time.UTC)
	s := At(ts)
	got, err := Time(s)
	require.NoError(t, err)
	assert.True(t, ts.Equal(got), "got %s", got)

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}

func TestTrade(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "RUN-0007", Trade("RUN", 7))
}
