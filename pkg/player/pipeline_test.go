package player

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFFmpegArgs(t *testing.T) {
	args := buildFFmpegArgs("https://cdn.example/audio", nil)

	// Input options must precede -i or ffmpeg silently ignores them.
	inputIdx := -1
	for i, a := range args {
		if a == "-i" {
			inputIdx = i
			break
		}
	}
	require.GreaterOrEqual(t, inputIdx, 0)
	assert.Equal(t, "https://cdn.example/audio", args[inputIdx+1])
	assert.Contains(t, args[:inputIdx], "-reconnect")
	assert.Contains(t, args[:inputIdx], "-rw_timeout")

	assert.Contains(t, args, "s16le")
	assert.Contains(t, args, "48000")
	assert.Contains(t, args, "pipe:1")
	assert.Equal(t, "pipe:1", args[len(args)-1])
	assert.NotContains(t, args, "-headers")
}

func TestBuildFFmpegArgsWithHeaders(t *testing.T) {
	args := buildFFmpegArgs("https://cdn.example/audio", map[string]string{
		"User-Agent": "Mozilla/5.0",
	})

	idx := -1
	for i, a := range args {
		if a == "-headers" {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "User-Agent: Mozilla/5.0\r\n", args[idx+1])

	inputIdx := -1
	for i, a := range args {
		if a == "-i" {
			inputIdx = i
			break
		}
	}
	assert.Less(t, idx, inputIdx, "-headers is an input option")
}

func TestFormatHeaderBlock(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{
			name:     "empty map",
			headers:  nil,
			expected: "",
		},
		{
			name:     "single header",
			headers:  map[string]string{"Cookie": "a=b"},
			expected: "Cookie: a=b\r\n",
		},
		{
			name: "keys sorted",
			headers: map[string]string{
				"User-Agent": "ua",
				"Accept":     "*/*",
				"Cookie":     "a=b",
			},
			expected: "Accept: */*\r\nCookie: a=b\r\nUser-Agent: ua\r\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatHeaderBlock(tt.headers))
		})
	}
}

type countingCloser struct {
	closes int
}

func (c *countingCloser) Read(p []byte) (int, error) { return 0, nil }
func (c *countingCloser) Close() error {
	c.closes++
	return nil
}

func TestFFmpegPipelineDestroyIdempotent(t *testing.T) {
	stdout := &countingCloser{}
	p := &ffmpegPipeline{cmd: exec.Command("true"), stdout: stdout}

	p.Destroy()
	p.Destroy()
	p.Destroy()
	assert.Equal(t, 1, stdout.closes)
}

func TestFFmpegFactoryBinaryDefault(t *testing.T) {
	f := &FFmpegFactory{}
	assert.Equal(t, "ffmpeg", f.binary())

	f.BinaryPath = "/usr/local/bin/ffmpeg"
	assert.Equal(t, "/usr/local/bin/ffmpeg", f.binary())
}
