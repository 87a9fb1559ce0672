package resolver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempTimestampPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "last-update")
}

func TestLastUpdateMissingFile(t *testing.T) {
	u := NewUpdater(tempTimestampPath(t), 0)
	assert.True(t, u.LastUpdate().IsZero())
}

func TestLastUpdateCorruptFile(t *testing.T) {
	path := tempTimestampPath(t)
	require.NoError(t, os.WriteFile(path, []byte("not a timestamp"), 0o644))

	u := NewUpdater(path, 0)
	assert.True(t, u.LastUpdate().IsZero())
}

func TestMarkUpdatedRoundTrip(t *testing.T) {
	u := NewUpdater(tempTimestampPath(t), 0)

	now := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	u.markUpdated(now)

	got := u.LastUpdate()
	require.False(t, got.IsZero())
	assert.True(t, got.Equal(now), "got %v, want %v", got, now)
}

func TestShouldUpdate(t *testing.T) {
	u := NewUpdater(tempTimestampPath(t), 0)
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	// Never updated.
	assert.True(t, u.ShouldUpdate(now))

	// Updated an hour ago.
	u.markUpdated(now.Add(-time.Hour))
	assert.False(t, u.ShouldUpdate(now))

	// Updated just over a day ago.
	u.markUpdated(now.Add(-25 * time.Hour))
	assert.True(t, u.ShouldUpdate(now))

	// Exactly at the interval boundary counts as stale.
	u.markUpdated(now.Add(-updateInterval))
	assert.True(t, u.ShouldUpdate(now))
}
