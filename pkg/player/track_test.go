package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Song Name", Track{Title: "Song Name", Source: "query"}.DisplayTitle())
	assert.Equal(t, "some query", Track{Source: "some query"}.DisplayTitle())
}

func TestParseLoopMode(t *testing.T) {
	tests := []struct {
		input    string
		expected LoopMode
		wantErr  bool
	}{
		{"off", LoopOff, false},
		{"track", LoopTrack, false},
		{"queue", LoopQueue, false},
		{"TRACK", LoopTrack, false},
		{"  queue  ", LoopQueue, false},
		{"song", LoopOff, true},
		{"", LoopOff, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ParseLoopMode(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLoopMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
		})
	}
}

func TestLoopModeString(t *testing.T) {
	assert.Equal(t, "off", LoopOff.String())
	assert.Equal(t, "track", LoopTrack.String())
	assert.Equal(t, "queue", LoopQueue.String())
	assert.Equal(t, "unknown", LoopMode(42).String())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "stopping", StateStopping.String())
}
