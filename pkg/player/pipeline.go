package player

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sort"
	"strings"
	"sync"
)

// Pipeline wraps exactly one external transcoding subprocess and its output
// byte stream. A pipeline is owned by the engine that created it and is
// never reused across tracks.
type Pipeline interface {
	// Stream returns the subprocess's stdout: 48kHz stereo signed 16-bit
	// little-endian PCM.
	Stream() io.ReadCloser

	// Destroy force-terminates the subprocess and its stream. Idempotent and
	// best-effort; safe to call from error handlers and multiple times.
	Destroy()
}

// PipelineFactory spawns a transcoder subprocess for a resolved source.
type PipelineFactory interface {
	Start(ctx context.Context, directURL string, headers map[string]string) (Pipeline, error)
}

// FFmpegFactory starts ffmpeg processes configured for voice playback:
// audio-only, 2-channel 48kHz PCM output, low probe overhead for fast
// start, bounded read timeouts and source-side reconnect on error.
type FFmpegFactory struct {
	// BinaryPath overrides the ffmpeg binary, default "ffmpeg".
	BinaryPath string

	// Debug logs the subprocess stderr instead of silently draining it.
	Debug bool
}

const defaultFFmpegBinary = "ffmpeg"

func (f *FFmpegFactory) binary() string {
	if f.BinaryPath != "" {
		return f.BinaryPath
	}
	return defaultFFmpegBinary
}

// Start spawns the transcoder for directURL. Transient network errors are
// handled inside ffmpeg by its reconnect flags; a spawn failure is surfaced
// as ErrPipelineSpawn and the caller treats the track as unplayable.
func (f *FFmpegFactory) Start(ctx context.Context, directURL string, headers map[string]string) (Pipeline, error) {
	cmd := exec.CommandContext(ctx, f.binary(), buildFFmpegArgs(directURL, headers)...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %v", ErrPipelineSpawn, err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrPipelineSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPipelineSpawn, err)
	}

	p := &ffmpegPipeline{cmd: cmd, stdout: stdout}
	go p.drainStderr(stderr, f.Debug)
	return p, nil
}

// buildFFmpegArgs assembles the fixed transcode arguments. Input options
// (reconnect, headers, timeouts) must precede -i.
func buildFFmpegArgs(directURL string, headers map[string]string) []string {
	args := []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-rw_timeout", "15000000",
		"-analyzeduration", "0",
		"-probesize", "32768",
	}
	if block := formatHeaderBlock(headers); block != "" {
		args = append(args, "-headers", block)
	}
	args = append(args,
		"-i", directURL,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", "48000",
		"-ac", "2",
		"-loglevel", "warning",
		"pipe:1",
	)
	return args
}

// formatHeaderBlock renders HTTP headers the way ffmpeg's -headers option
// expects them: CRLF-separated "Key: Value" lines. Keys are sorted so the
// command line is deterministic.
func formatHeaderBlock(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(headers[k])
		b.WriteString("\r\n")
	}
	return b.String()
}

type ffmpegPipeline struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	once   sync.Once
}

func (p *ffmpegPipeline) Stream() io.ReadCloser {
	return p.stdout
}

// Destroy kills the subprocess and closes its stream. The peer closing the
// pipe first is expected, so broken-pipe class errors are swallowed.
func (p *ffmpegPipeline) Destroy() {
	p.once.Do(func() {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		_ = p.stdout.Close()
		// Reap the process; the exit status of a killed transcoder is noise.
		_ = p.cmd.Wait()
	})
}

func (p *ffmpegPipeline) drainStderr(stderr io.ReadCloser, debug bool) {
	defer stderr.Close()
	buf := make([]byte, 1024)
	for {
		n, err := stderr.Read(buf)
		if n > 0 && debug {
			log.Printf("ffmpeg: %s", strings.TrimSpace(string(buf[:n])))
		}
		if err != nil {
			return
		}
	}
}
