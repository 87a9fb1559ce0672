package player

import (
	"context"
	"io"
)

// EventKind identifies an asynchronous sink notification.
type EventKind int

const (
	EventPlaying EventKind = iota // the sink accepted the resource and audio is flowing
	EventIdle                     // playback ended (end of stream or forced stop)
	EventError                    // playback aborted mid-stream
)

func (k EventKind) String() string {
	switch k {
	case EventPlaying:
		return "playing"
	case EventIdle:
		return "idle"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted by a Sink while it plays a resource. PlayID echoes the
// identifier passed to Play so the engine can discard events from a playback
// attempt it has already replaced.
type Event struct {
	Kind   EventKind
	PlayID uint64
	Err    error
}

// Sink is the voice-transport collaborator: it consumes the decoded audio
// stream and emits lifecycle events. Implementations must never block on
// delivering events, and all methods must be safe to call from the engine
// while it holds its own lock.
type Sink interface {
	// Play starts streaming the resource. It returns once playback has been
	// accepted; completion and errors arrive on Events tagged with playID.
	Play(playID uint64, stream io.ReadCloser, volumePercent int) error

	// SetVolume adjusts the live resource's volume (0-1000 percent).
	SetVolume(percent int)

	// SetPaused pauses or resumes frame delivery without ending playback.
	SetPaused(paused bool)

	// StopPlayback force-stops the current resource. The sink reports the
	// stop as an Idle event for the active playID.
	StopPlayback()

	// Events returns the sink's event stream.
	Events() <-chan Event

	// Release tears down the underlying voice connection.
	Release()
}

// SinkProvider hands out the per-guild sink, joining the voice channel on
// first use and reusing the live connection for subsequent tracks.
type SinkProvider interface {
	Acquire(guildID, voiceChannelID string) (Sink, error)
}

// Source is a playable media reference: a direct (short-lived) stream URL
// plus the HTTP headers required to fetch it.
type Source struct {
	Title   string
	URL     string
	Headers map[string]string
}

// Resolver turns a query or page URL into a playable Source immediately
// before playback starts.
type Resolver interface {
	ResolveDirectSource(ctx context.Context, query string) (*Source, error)
}

// Notifier receives user-visible playback notifications. Implementations
// route them to the track's originating text channel.
type Notifier interface {
	NowPlaying(t Track)
	TrackFailed(t Track, err error)
	Reconnecting(t Track)
	QueueEmpty(t Track)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) NowPlaying(Track)         {}
func (NopNotifier) TrackFailed(Track, error) {}
func (NopNotifier) Reconnecting(Track)       {}
func (NopNotifier) QueueEmpty(Track)         {}
