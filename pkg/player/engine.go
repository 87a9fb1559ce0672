package player

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
)

// Engine owns one guild's playback: the queue, the current track, loop mode,
// volume and the live transcoder pipeline. All mutation goes through the
// engine mutex so command handlers and sink events never race; blocking work
// (resolution, subprocess spawn) runs outside the lock in a load goroutine
// tagged with a generation counter, so a skip or stop that lands mid-load
// cannot cause the stale attempt to advance the queue a second time.
type Engine struct {
	guildID string

	resolver  Resolver
	sinks     SinkProvider
	pipelines PipelineFactory
	notifier  Notifier

	mu               sync.Mutex
	state            State
	queue            []Track
	current          *Track
	loopMode         LoopMode
	volume           int
	paused           bool
	pipeline         Pipeline
	restartAttempted bool
	skipRequested    bool

	sink     Sink
	sinkDone chan struct{}

	// playID is bumped whenever a new playback attempt starts or the current
	// one is invalidated; events and load results carrying an older id are
	// discarded.
	playID     uint64
	playCancel context.CancelFunc
}

// EngineConfig carries the per-engine defaults and collaborators.
type EngineConfig struct {
	Resolver      Resolver
	Sinks         SinkProvider
	Pipelines     PipelineFactory
	Notifier      Notifier
	DefaultVolume int
	DefaultLoop   LoopMode
}

// NewEngine creates an idle engine for one guild.
func NewEngine(guildID string, cfg EngineConfig) *Engine {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	volume := cfg.DefaultVolume
	if volume <= 0 {
		volume = DefaultVolume
	}
	return &Engine{
		guildID:  guildID,
		resolver: cfg.Resolver,
		sinks:    cfg.Sinks,
		pipelines: func() PipelineFactory {
			if cfg.Pipelines != nil {
				return cfg.Pipelines
			}
			return &FFmpegFactory{}
		}(),
		notifier: notifier,
		state:    StateIdle,
		loopMode: cfg.DefaultLoop,
		volume:   clampVolume(volume),
	}
}

// Volume bounds. Values outside the domain are clamped, never rejected.
const (
	MinVolume     = 0
	MaxVolume     = 1000
	DefaultVolume = 100
)

func clampVolume(v int) int {
	if v < MinVolume {
		return MinVolume
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}

// Enqueue appends a track and starts playback if the engine is idle.
// It returns the track's 1-based queue position, or 0 when it starts
// playing immediately.
func (e *Engine) Enqueue(t Track) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue = append(e.queue, t)
	if e.state == StateIdle && e.current == nil {
		e.startNextLocked()
		return 0
	}
	return len(e.queue)
}

// EnqueueBatch appends several tracks at once, starting playback if idle.
// It returns the number of tracks accepted.
func (e *Engine) EnqueueBatch(tracks []Track) int {
	if len(tracks) == 0 {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue = append(e.queue, tracks...)
	if e.state == StateIdle && e.current == nil {
		e.startNextLocked()
	}
	return len(tracks)
}

// Skip abandons the current track and moves on. A skip suppresses the
// track-loop requeue for the completion it triggers. Skipping while a load
// is in flight aborts the attempt directly.
func (e *Engine) Skip() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StatePlaying:
		e.skipRequested = true
		e.destroyPipelineLocked()
		if e.sink != nil {
			// The forced stop surfaces as the sink's Idle event, which takes
			// the natural-end path with skip semantics.
			e.sink.StopPlayback()
		}
		return nil
	case StateLoading:
		// Abort the in-flight attempt; its completion is already stale.
		e.invalidateLocked()
		e.current = nil
		e.startNextLocked()
		return nil
	default:
		return fmt.Errorf("nothing is playing")
	}
}

// Stop clears the queue and all playback state and releases the voice
// connection. Loop mode resets to off.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = StateStopping
	e.queue = nil
	e.loopMode = LoopOff
	e.skipRequested = false
	e.invalidateLocked()
	e.destroyPipelineLocked()
	e.current = nil
	e.paused = false
	e.releaseSinkLocked()
	e.state = StateIdle
}

// Pause suspends frame delivery for the current track.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePlaying || e.sink == nil {
		return fmt.Errorf("nothing is playing")
	}
	e.paused = true
	e.sink.SetPaused(true)
	return nil
}

// Resume continues a paused track.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePlaying || e.sink == nil {
		return fmt.Errorf("nothing is playing")
	}
	e.paused = false
	e.sink.SetPaused(false)
	return nil
}

// SetVolume stores the volume (clamped to [0, 1000]) and applies it to the
// live resource if one is playing.
func (e *Engine) SetVolume(percent int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.volume = clampVolume(percent)
	if e.sink != nil {
		e.sink.SetVolume(e.volume)
	}
	return e.volume
}

// SetLoopMode changes the loop policy, effective from the next completion.
func (e *Engine) SetLoopMode(m LoopMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loopMode = m
}

// Shuffle applies a uniform Fisher-Yates permutation to the pending queue.
// A queue below two items is left untouched.
func (e *Engine) Shuffle() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) >= 2 {
		rand.Shuffle(len(e.queue), func(i, j int) {
			e.queue[i], e.queue[j] = e.queue[j], e.queue[i]
		})
	}
	return len(e.queue)
}

// RemoveAt removes the queue entry at a 1-based position.
func (e *Engine) RemoveAt(position int) (Track, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if position < 1 || position > len(e.queue) {
		return Track{}, fmt.Errorf("%w: %d (queue has %d items)", ErrInvalidIndex, position, len(e.queue))
	}
	idx := position - 1
	removed := e.queue[idx]
	e.queue = append(e.queue[:idx], e.queue[idx+1:]...)
	return removed, nil
}

// QueueSnapshot returns a copy of the pending queue in play order.
func (e *Engine) QueueSnapshot() []Track {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Track, len(e.queue))
	copy(out, e.queue)
	return out
}

// NowPlaying returns the current track, or nil when idle.
func (e *Engine) NowPlaying() *Track {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return nil
	}
	t := *e.current
	return &t
}

// LoopMode returns the active loop policy.
func (e *Engine) LoopMode() LoopMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loopMode
}

// Volume returns the stored volume percent.
func (e *Engine) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// CurrentState returns the engine's playback state.
func (e *Engine) CurrentState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Paused reports whether the current track is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// QueueLength returns the number of pending tracks.
func (e *Engine) QueueLength() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// --- state machine internals -------------------------------------------------

// invalidateLocked bumps the generation counter and cancels the in-flight
// load context, so any pending load result or sink event becomes stale.
func (e *Engine) invalidateLocked() {
	e.playID++
	if e.playCancel != nil {
		e.playCancel()
		e.playCancel = nil
	}
}

func (e *Engine) destroyPipelineLocked() {
	if e.pipeline != nil {
		e.pipeline.Destroy()
		e.pipeline = nil
	}
}

func (e *Engine) releaseSinkLocked() {
	if e.sink != nil {
		e.sink.Release()
		e.sink = nil
	}
	if e.sinkDone != nil {
		close(e.sinkDone)
		e.sinkDone = nil
	}
}

// startNextLocked pops the head of the queue and begins loading it. With an
// empty queue the engine settles idle and the voice connection is released.
// Callers must hold e.mu and have already cleared e.current.
func (e *Engine) startNextLocked() {
	if len(e.queue) == 0 {
		e.state = StateIdle
		e.releaseSinkLocked()
		return
	}

	next := e.queue[0]
	e.queue = e.queue[1:]
	e.beginLoadLocked(next, true)
}

// beginLoadLocked transitions to Loading for the given track. freshTrack is
// false only on the one-shot mid-stream restart, which must keep the
// restartAttempted flag set so a second failure abandons the item.
func (e *Engine) beginLoadLocked(t Track, freshTrack bool) {
	e.state = StateLoading
	e.current = &t
	if freshTrack {
		e.restartAttempted = false
	}
	e.invalidateLocked()

	ctx, cancel := context.WithCancel(context.Background())
	e.playCancel = cancel
	id := e.playID

	go e.load(ctx, t, id)
}

// load resolves the track and spawns its pipeline outside the engine lock.
// Every exit path re-checks the generation counter before touching engine
// state, so a skip or stop that interrupted the load wins the race.
func (e *Engine) load(ctx context.Context, t Track, id uint64) {
	src, err := e.resolver.ResolveDirectSource(ctx, t.Source)
	if err != nil {
		log.Printf("guild %s: resolution failed for %q: %v", e.guildID, t.DisplayTitle(), err)
		e.failLoad(t, id, fmt.Errorf("%w: %v", ErrResolution, err))
		return
	}

	pipe, err := e.pipelines.Start(ctx, src.URL, src.Headers)
	if err != nil {
		log.Printf("guild %s: pipeline spawn failed for %q: %v", e.guildID, t.DisplayTitle(), err)
		e.failLoad(t, id, err)
		return
	}

	sink, err := e.sinks.Acquire(t.GuildID, t.VoiceChannelID)
	if err != nil {
		pipe.Destroy()
		log.Printf("guild %s: voice join failed: %v", e.guildID, err)
		e.failLoad(t, id, err)
		return
	}

	e.mu.Lock()
	if id != e.playID {
		// A skip or stop replaced this attempt while it was in flight.
		e.mu.Unlock()
		pipe.Destroy()
		return
	}

	e.adoptSinkLocked(sink)
	e.pipeline = pipe
	if err := sink.Play(id, pipe.Stream(), e.volume); err != nil {
		e.mu.Unlock()
		log.Printf("guild %s: sink rejected resource for %q: %v", e.guildID, t.DisplayTitle(), err)
		e.failLoad(t, id, err)
		return
	}
	e.state = StatePlaying
	e.paused = false
	e.mu.Unlock()

	// Only announced once the pipeline has actually started.
	e.notifier.NowPlaying(t)
	log.Printf("guild %s: now playing %q", e.guildID, t.DisplayTitle())
}

// adoptSinkLocked wires the event pump for a newly acquired sink. Providers
// may hand back the same sink for every track in a session; the pump is
// started once per sink instance.
func (e *Engine) adoptSinkLocked(sink Sink) {
	if e.sink == sink {
		return
	}
	if e.sink != nil {
		e.releaseSinkLocked()
	}
	e.sink = sink
	done := make(chan struct{})
	e.sinkDone = done
	go e.pumpEvents(sink, done)
}

func (e *Engine) pumpEvents(sink Sink, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-sink.Events():
			if !ok {
				return
			}
			e.handleSinkEvent(ev)
		}
	}
}

// failLoad abandons a track whose resolution or pipeline start failed, then
// immediately attempts the next queue entry. Each failed attempt consumes
// one queue item, so a persistently broken queue drains to idle instead of
// recursing forever.
func (e *Engine) failLoad(t Track, id uint64, err error) {
	e.mu.Lock()
	if id != e.playID {
		// The attempt was already aborted by a skip or stop; stay quiet.
		e.mu.Unlock()
		return
	}
	e.destroyPipelineLocked()
	e.current = nil
	emptied := len(e.queue) == 0
	e.startNextLocked()
	e.mu.Unlock()

	e.notifier.TrackFailed(t, err)
	if emptied {
		e.notifier.QueueEmpty(t)
	}
}

// handleSinkEvent is the transition function for the sink's asynchronous
// Idle/Error/Playing callbacks.
func (e *Engine) handleSinkEvent(ev Event) {
	e.mu.Lock()

	if ev.PlayID != e.playID || e.current == nil {
		// Stale: belongs to a playback attempt that was already replaced.
		e.mu.Unlock()
		return
	}

	switch ev.Kind {
	case EventPlaying:
		e.mu.Unlock()

	case EventIdle:
		e.finishCurrentLocked(endNatural)

	case EventError:
		log.Printf("guild %s: stream error on %q: %v", e.guildID, e.current.DisplayTitle(), ev.Err)
		if e.skipRequested {
			// The error is an artifact of the skip tearing the pipeline down;
			// take the completion path with skip semantics instead of the
			// restart policy.
			e.finishCurrentLocked(endNatural)
			return
		}
		if !e.restartAttempted {
			// One automatic restart per track instance: announce the restart
			// first, then re-resolve and respawn the same item.
			e.restartAttempted = true
			t := *e.current
			e.destroyPipelineLocked()
			e.invalidateLocked()
			e.state = StateLoading
			id := e.playID
			e.mu.Unlock()

			e.notifier.Reconnecting(t)

			e.mu.Lock()
			if id != e.playID {
				// A skip or stop landed while the notification went out.
				e.mu.Unlock()
				return
			}
			e.beginLoadLocked(t, false)
			e.mu.Unlock()
			return
		}
		e.finishCurrentLocked(endFailed)

	default:
		e.mu.Unlock()
	}
}

// finishCurrentLocked ends the current track with an explicit outcome,
// applies loop policy and advances. It is entered with e.mu held and
// releases it before emitting notifications.
func (e *Engine) finishCurrentLocked(outcome trackOutcome) {
	e.destroyPipelineLocked()
	e.invalidateLocked()

	finished := *e.current
	e.current = nil
	e.paused = false

	// Read-once: the flag governs only this completion event.
	skipped := e.skipRequested
	e.skipRequested = false

	var failed *Track
	if outcome == endFailed {
		f := finished
		failed = &f
	}

	switch {
	case outcome == endNatural && !skipped && e.loopMode == LoopTrack:
		// Replay the same item rather than advancing.
		e.beginLoadLocked(finished, true)
		e.mu.Unlock()
		return

	case outcome == endNatural && !skipped && e.loopMode == LoopQueue:
		// Rotated, not duplicated: requeue at the tail, then advance.
		e.queue = append(e.queue, finished)
	}

	emptied := len(e.queue) == 0
	e.startNextLocked()
	e.mu.Unlock()

	if failed != nil {
		e.notifier.TrackFailed(*failed, ErrStream)
	}
	if emptied {
		e.notifier.QueueEmpty(finished)
	}
}
