package player

import (
	"fmt"
	"strings"
)

// Track represents a single item in the playback queue. The Source field
// keeps the original query or page URL; direct stream URLs are signed and
// short-lived, so they are resolved again right before playback starts.
type Track struct {
	Title          string
	Source         string
	RequestedBy    string
	GuildID        string
	VoiceChannelID string
	TextChannelID  string
}

// DisplayTitle returns the track title, falling back to the raw source
// when metadata resolution never produced one.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Source
}

// LoopMode controls what happens to a track after it finishes.
type LoopMode int

const (
	LoopOff   LoopMode = iota // advance to the next queue item
	LoopTrack                 // replay the same item
	LoopQueue                 // requeue the item at the tail, then advance
)

func (m LoopMode) String() string {
	switch m {
	case LoopOff:
		return "off"
	case LoopTrack:
		return "track"
	case LoopQueue:
		return "queue"
	default:
		return "unknown"
	}
}

// ParseLoopMode parses a user-supplied loop mode name.
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return LoopOff, nil
	case "track":
		return LoopTrack, nil
	case "queue":
		return LoopQueue, nil
	default:
		return LoopOff, fmt.Errorf("%w: %q", ErrInvalidLoopMode, s)
	}
}

// State is the explicit playback state of an engine. Modelling it as a
// tagged value rather than inferring it from nullable fields rules out
// invalid combinations like a live pipeline with no current track.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// trackOutcome tags why a track stopped being the current one. Keeping the
// natural-end and failed-end paths as distinct values means loop policy is
// never inferred from event timing.
type trackOutcome int

const (
	endNatural trackOutcome = iota // sink reported normal completion
	endFailed                      // abandoned after the one-shot restart was exhausted
)
