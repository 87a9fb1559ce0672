package player

import "errors"

// Sentinel errors surfaced across the player package. Per-track playback
// failures (resolution, spawn, mid-stream) never escape the engine; they are
// recovered by skip-and-continue or the one-shot restart policy. The
// validation errors below are returned directly to the command caller and
// cause no state change.
var (
	// ErrResolution means the external resolver returned no usable URL or
	// title for a query.
	ErrResolution = errors.New("player: no playable source resolved")

	// ErrPipelineSpawn means the transcoder binary is missing or failed to
	// start.
	ErrPipelineSpawn = errors.New("player: transcoder failed to start")

	// ErrStream means the sink reported an error after the pipeline was live.
	ErrStream = errors.New("player: stream error during playback")

	// ErrInvalidIndex is returned by RemoveAt for positions outside
	// [1, queue length].
	ErrInvalidIndex = errors.New("player: invalid queue index")

	// ErrInvalidLoopMode is returned for unrecognized loop mode names.
	ErrInvalidLoopMode = errors.New("player: invalid loop mode")
)
