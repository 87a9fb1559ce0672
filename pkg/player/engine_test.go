package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// --- fakes -------------------------------------------------------------------

type fakeResolver struct {
	mu      sync.Mutex
	failFor map[string]bool
	block   chan struct{} // when set, resolution waits for close or ctx cancel
	calls   []string
}

func (r *fakeResolver) ResolveDirectSource(ctx context.Context, query string) (*Source, error) {
	r.mu.Lock()
	r.calls = append(r.calls, query)
	failing := r.failFor[query]
	block := r.block
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failing {
		return nil, errors.New("no formats found")
	}
	return &Source{
		Title:   "resolved " + query,
		URL:     "https://cdn.example/" + query,
		Headers: map[string]string{"User-Agent": "test"},
	}, nil
}

func (r *fakeResolver) callsFor(query string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == query {
			n++
		}
	}
	return n
}

func (r *fakeResolver) allCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakePipeline struct {
	mu        sync.Mutex
	destroyed bool
}

func (p *fakePipeline) Stream() io.ReadCloser {
	return io.NopCloser(strings.NewReader(""))
}

func (p *fakePipeline) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
}

func (p *fakePipeline) isDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

type fakeFactory struct {
	mu      sync.Mutex
	failFor map[string]bool
	created []*fakePipeline
}

func (f *fakeFactory) Start(ctx context.Context, directURL string, headers map[string]string) (Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[directURL] {
		return nil, fmt.Errorf("%w: exec: not found", ErrPipelineSpawn)
	}
	p := &fakePipeline{}
	f.created = append(f.created, p)
	return p, nil
}

// liveCount reports how many spawned pipelines have not been destroyed.
func (f *fakeFactory) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.created {
		if !p.isDestroyed() {
			n++
		}
	}
	return n
}

type fakeSink struct {
	events chan Event

	mu         sync.Mutex
	plays      int
	lastPlayID uint64
	volume     int
	paused     bool
	released   bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{events: make(chan Event, 32)}
}

func (s *fakeSink) Play(playID uint64, stream io.ReadCloser, volumePercent int) error {
	_ = stream.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays++
	s.lastPlayID = playID
	s.volume = volumePercent
	return nil
}

func (s *fakeSink) SetVolume(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = percent
}

func (s *fakeSink) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

// StopPlayback mimics the real sink: a forced stop surfaces as an Idle
// event for the active playback.
func (s *fakeSink) StopPlayback() {
	s.mu.Lock()
	id := s.lastPlayID
	s.mu.Unlock()
	s.events <- Event{Kind: EventIdle, PlayID: id}
}

func (s *fakeSink) Events() <-chan Event { return s.events }

func (s *fakeSink) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
}

func (s *fakeSink) playCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

func (s *fakeSink) isReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// finish reports natural end-of-stream for the active playback.
func (s *fakeSink) finish() {
	s.mu.Lock()
	id := s.lastPlayID
	s.mu.Unlock()
	s.events <- Event{Kind: EventIdle, PlayID: id}
}

// errorOut reports a mid-stream failure for the active playback.
func (s *fakeSink) errorOut() {
	s.mu.Lock()
	id := s.lastPlayID
	s.mu.Unlock()
	s.events <- Event{Kind: EventError, PlayID: id, Err: errors.New("connection reset")}
}

type fakeProvider struct {
	sink *fakeSink
	err  error
}

func (p *fakeProvider) Acquire(guildID, voiceChannelID string) (Sink, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.sink, nil
}

type fakeNotifier struct {
	mu           sync.Mutex
	nowPlaying   []Track
	failed       []Track
	reconnecting []Track
	queueEmpty   int
	seq          []string
}

func (n *fakeNotifier) NowPlaying(t Track) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nowPlaying = append(n.nowPlaying, t)
	n.seq = append(n.seq, "nowplaying")
}

func (n *fakeNotifier) TrackFailed(t Track, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, t)
	n.seq = append(n.seq, "failed")
}

func (n *fakeNotifier) Reconnecting(t Track) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reconnecting = append(n.reconnecting, t)
	n.seq = append(n.seq, "reconnecting")
}

func (n *fakeNotifier) QueueEmpty(t Track) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queueEmpty++
}

func (n *fakeNotifier) nowPlayingCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.nowPlaying)
}

func (n *fakeNotifier) failedTitles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.failed))
	for i, t := range n.failed {
		out[i] = t.Title
	}
	return out
}

func (n *fakeNotifier) reconnectCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reconnecting)
}

func (n *fakeNotifier) sequence() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.seq...)
}

// --- harness -----------------------------------------------------------------

type harness struct {
	engine   *Engine
	resolver *fakeResolver
	factory  *fakeFactory
	sink     *fakeSink
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		resolver: &fakeResolver{failFor: map[string]bool{}},
		factory:  &fakeFactory{failFor: map[string]bool{}},
		sink:     newFakeSink(),
		notifier: &fakeNotifier{},
	}
	h.engine = NewEngine("guild-1", EngineConfig{
		Resolver:  h.resolver,
		Sinks:     &fakeProvider{sink: h.sink},
		Pipelines: h.factory,
		Notifier:  h.notifier,
	})
	return h
}

func track(source string) Track {
	return Track{
		Title:          source,
		Source:         source,
		RequestedBy:    "tester",
		GuildID:        "guild-1",
		VoiceChannelID: "vc-1",
		TextChannelID:  "tc-1",
	}
}

// waitPlaying blocks until the engine reports Playing with the given number
// of sink plays observed.
func (h *harness) waitPlaying(t *testing.T, plays int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.engine.CurrentState() == StatePlaying && h.sink.playCount() == plays
	}, waitFor, tick, "engine never reached play #%d (state=%s, plays=%d)",
		plays, h.engine.CurrentState(), h.sink.playCount())
}

func (h *harness) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.engine.CurrentState() == StateIdle && h.engine.NowPlaying() == nil
	}, waitFor, tick, "engine never settled idle")
}

// --- properties --------------------------------------------------------------

func TestFIFOPlayOrder(t *testing.T) {
	h := newHarness(t)

	h.engine.Enqueue(track("a"))
	h.waitPlaying(t, 1)
	h.engine.Enqueue(track("b"))
	h.engine.Enqueue(track("c"))

	h.sink.finish()
	h.waitPlaying(t, 2)
	h.sink.finish()
	h.waitPlaying(t, 3)
	h.sink.finish()
	h.waitIdle(t)

	assert.Equal(t, []string{"a", "b", "c"}, h.resolver.allCalls())
}

func TestSingleLivePipeline(t *testing.T) {
	h := newHarness(t)

	h.engine.Enqueue(track("a"))
	h.waitPlaying(t, 1)
	h.engine.Enqueue(track("b"))
	assert.LessOrEqual(t, h.factory.liveCount(), 1)

	h.sink.finish()
	h.waitPlaying(t, 2)
	assert.LessOrEqual(t, h.factory.liveCount(), 1)

	require.NoError(t, h.engine.Skip())
	h.waitIdle(t)
	assert.Equal(t, 0, h.factory.liveCount())
}

func TestRetryOncePerTrack(t *testing.T) {
	h := newHarness(t)

	h.engine.Enqueue(track("flaky"))
	h.waitPlaying(t, 1)

	// First mid-stream error triggers exactly one automatic restart.
	h.sink.errorOut()
	h.waitPlaying(t, 2)
	assert.Equal(t, 1, h.notifier.reconnectCount())

	// Second error for the same track instance abandons it.
	h.sink.errorOut()
	h.waitIdle(t)

	assert.Equal(t, 2, h.resolver.callsFor("flaky"))
	assert.Equal(t, []string{"flaky"}, h.notifier.failedTitles())
}

func TestReconnectAnnouncedBeforeRetry(t *testing.T) {
	h := newHarness(t)

	h.engine.Enqueue(track("a"))
	h.waitPlaying(t, 1)

	h.sink.errorOut()
	h.waitPlaying(t, 2)

	require.Eventually(t, func() bool {
		return len(h.notifier.sequence()) == 3
	}, waitFor, tick)
	assert.Equal(t, []string{"nowplaying", "reconnecting", "nowplaying"}, h.notifier.sequence())
}

func TestRestartFlagResetsForNextTrack(t *testing.T) {
	h := newHarness(t)

	h.engine.Enqueue(track("a"))
	h.waitPlaying(t, 1)
	h.engine.Enqueue(track("b"))

	h.sink.errorOut()
	h.waitPlaying(t, 2) // restart of a
	h.sink.errorOut()
	h.waitPlaying(t, 3) // a abandoned, b starts

	// b gets its own restart budget.
	h.sink.errorOut()
	h.waitPlaying(t, 4)
	assert.Equal(t, 2, h.resolver.callsFor("b"))
}

func TestLoopTrackReplays(t *testing.T) {
	h := newHarness(t)
	h.engine.SetLoopMode(LoopTrack)

	h.engine.Enqueue(track("a"))
	h.waitPlaying(t, 1)

	for i := 2; i <= 4; i++ {
		h.sink.finish()
		h.waitPlaying(t, i)
		assert.Equal(t, 0, h.engine.QueueLength(), "replay must not touch the queue")
	}
	assert.Equal(t, 4, h.resolver.callsFor("a"))
	assert.Equal(t, "a", h.engine.NowPlaying().Title)
}

func TestLoopQueueRotates(t *testing.T) {
	h := newHarness(t)
	h.engine.SetLoopMode(LoopQueue)

	h.engine.Enqueue(track("a"))
	h.waitPlaying(t, 1)
	h.engine.Enqueue(track("b"))

	// a completes: requeued at the tail, b starts.
	h.sink.finish()
	h.waitPlaying(t, 2)
	require.Equal(t, "b", h.engine.NowPlaying().Title)
	queue := h.engine.QueueSnapshot()
	require.Len(t, queue, 1, "rotated, not duplicated")
	assert.Equal(t, "a", queue[0].Title)

	// b completes: the cycle comes back around to a.
	h.sink.finish()
	h.waitPlaying(t, 3)
	require.Equal(t, "a", h.engine.NowPlaying().Title)
	queue = h.engine.QueueSnapshot()
	require.Len(t, queue, 1)
	assert.Equal(t, "b", queue[0].Title)
}

func TestSkipSuppressesTrackLoop(t *testing.T) {
	h := newHarness(t)
	h.engine.SetLoopMode(LoopTrack)

	h.engine.Enqueue(track("a"))
	h.waitPlaying(t, 1)
	h.engine.Enqueue(track("b"))

	require.NoError(t, h.engine.Skip())
	h.waitPlaying(t, 2)

	assert.Equal(t, "b", h.engine.NowPlaying().Title)
	assert.Equal(t, 1, h.resolver.callsFor("a"))
}

func TestVolumeClamp(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 0, h.engine.SetVolume(-5))
	assert.Equal(t, 0, h.engine.Volume())

	assert.Equal(t, 1000, h.engine.SetVolume(5000))
	assert.Equal(t, 1000, h.engine.Volume())

	assert.Equal(t, 250, h.engine.SetVolume(250))
}

func TestConfiguredDefaultVolume(t *testing.T) {
	cfg := EngineConfig{
		Resolver:      &fakeResolver{},
		Sinks:         &fakeProvider{sink: newFakeSink()},
		Pipelines:     &fakeFactory{},
		DefaultVolume: 250,
	}
	assert.Equal(t, 250, NewEngine("g", cfg).Volume())

	// A fresh engine out of the registry reports the same configured value.
	assert.Equal(t, 250, NewRegistry(cfg).GetOrCreate("g").Volume())

	cfg.DefaultVolume = 0
	assert.Equal(t, DefaultVolume, NewEngine("g", cfg).Volume())

	cfg.DefaultVolume = 5000
	assert.Equal(t, MaxVolume, NewEngine("g", cfg).Volume())
}

func TestRemoveAtBounds(t *testing.T) {
	h := newHarness(t)
	h.engine.Enqueue(track("a"))
	h.waitPlaying(t, 1)
	h.engine.Enqueue(track("b"))
	h.engine.Enqueue(track("c"))

	tests := []struct {
		name     string
		position int
	}{
		{"zero index", 0},
		{"negative index", -3},
		{"past end", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.engine.RemoveAt(tt.position)
			require.ErrorIs(t, err, ErrInvalidIndex)
			assert.Equal(t, 2, h.engine.QueueLength(), "failed removal must leave the queue unchanged")
		})
	}

	removed, err := h.engine.RemoveAt(2)
	require.NoError(t, err)
	assert.Equal(t, "c", removed.Title)
	assert.Equal(t, 1, h.engine.QueueLength())
}

// --- scenarios ---------------------------------------------------------------

func TestEnqueueOnIdleStartsPlayback(t *testing.T) {
	h := newHarness(t)

	pos := h.engine.Enqueue(track("song1"))
	assert.Equal(t, 0, pos, "first track should start, not queue")

	h.waitPlaying(t, 1)
	assert.Equal(t, 0, h.engine.QueueLength())

	current := h.engine.NowPlaying()
	require.NotNil(t, current)
	assert.Equal(t, "song1", current.Title)
	assert.Equal(t, 1, h.notifier.nowPlayingCount())
}

func TestBrokenTrackIsSkippedWithoutIntervention(t *testing.T) {
	h := newHarness(t)
	h.resolver.failFor["y"] = true

	h.engine.Enqueue(track("x"))
	h.waitPlaying(t, 1)
	h.engine.Enqueue(track("y"))
	h.engine.Enqueue(track("z"))

	h.sink.finish()
	h.waitPlaying(t, 2)

	assert.Equal(t, []string{"x", "y", "z"}, h.resolver.allCalls())
	assert.Equal(t, "z", h.engine.NowPlaying().Title)
	assert.Equal(t, []string{"y"}, h.notifier.failedTitles())
}

func TestPipelineSpawnFailureSkips(t *testing.T) {
	h := newHarness(t)
	h.factory.failFor["https://cdn.example/bad"] = true

	h.engine.Enqueue(track("bad"))
	h.engine.Enqueue(track("good"))
	h.waitPlaying(t, 1)

	assert.Equal(t, "good", h.engine.NowPlaying().Title)
	assert.Equal(t, []string{"bad"}, h.notifier.failedTitles())
}

func TestStopClearsEverything(t *testing.T) {
	h := newHarness(t)

	h.engine.Enqueue(track("x"))
	h.waitPlaying(t, 1)
	h.engine.SetLoopMode(LoopQueue)

	h.engine.Stop()

	assert.Equal(t, StateIdle, h.engine.CurrentState())
	assert.Nil(t, h.engine.NowPlaying())
	assert.Equal(t, 0, h.engine.QueueLength())
	assert.Equal(t, LoopOff, h.engine.LoopMode())
	assert.Equal(t, 0, h.factory.liveCount())
	assert.True(t, h.sink.isReleased())
}

func TestSkipDuringLoadingAborts(t *testing.T) {
	h := newHarness(t)
	block := make(chan struct{})
	h.resolver.block = block

	h.engine.Enqueue(track("slow"))
	require.Eventually(t, func() bool {
		return h.engine.CurrentState() == StateLoading
	}, waitFor, tick)

	require.NoError(t, h.engine.Skip())
	h.waitIdle(t)

	// Unblock the stale load; it must not start playback or advance again.
	close(block)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateIdle, h.engine.CurrentState())
	assert.Equal(t, 0, h.sink.playCount())
	assert.Empty(t, h.notifier.failedTitles())
}

func TestQueueExhaustionNotifiesAndReleasesVoice(t *testing.T) {
	h := newHarness(t)

	h.engine.Enqueue(track("only"))
	h.waitPlaying(t, 1)
	h.sink.finish()
	h.waitIdle(t)

	require.Eventually(t, func() bool {
		h.notifier.mu.Lock()
		defer h.notifier.mu.Unlock()
		return h.notifier.queueEmpty == 1
	}, waitFor, tick)
	assert.True(t, h.sink.isReleased())
}

func TestStaleSinkEventsAreIgnored(t *testing.T) {
	h := newHarness(t)

	h.engine.Enqueue(track("a"))
	h.waitPlaying(t, 1)
	h.engine.Enqueue(track("b"))

	// An event for a playback generation that no longer exists.
	h.sink.events <- Event{Kind: EventIdle, PlayID: 9999}
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, "a", h.engine.NowPlaying().Title)
	assert.Equal(t, 1, h.engine.QueueLength())
}

func TestPauseResume(t *testing.T) {
	h := newHarness(t)

	require.Error(t, h.engine.Pause(), "pause with nothing playing must fail")

	h.engine.Enqueue(track("a"))
	h.waitPlaying(t, 1)

	require.NoError(t, h.engine.Pause())
	assert.True(t, h.engine.Paused())
	require.NoError(t, h.engine.Resume())
	assert.False(t, h.engine.Paused())
}
