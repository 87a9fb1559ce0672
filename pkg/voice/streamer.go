// Package voice implements the playback engine's sink over a Discord voice
// connection: it reads the transcoder's PCM output, encodes 20ms Opus
// frames, applies logarithmic volume, and reports lifecycle events back to
// the engine.
package voice

import (
	"errors"
	"io"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"

	"github.com/melodia-bot/melodia/pkg/player"
)

const (
	sampleRate  = 48000
	channels    = 2
	frameSize   = 960                          // samples per channel, 20ms at 48kHz
	pcmFrameLen = frameSize * channels         // int16 samples per frame
	frameBytes  = pcmFrameLen * 2              // bytes per frame on the wire
	opusBitrate = 128000

	// stallTimeout bounds how long the send loop waits for the transcoder to
	// produce a frame before declaring the stream dead.
	stallTimeout = 15 * time.Second

	// sendTimeout bounds a single OpusSend delivery; a blocked channel drops
	// the frame rather than stalling the loop.
	sendTimeout = 100 * time.Millisecond
)

// volumeExponent is the de facto Discord logarithmic volume curve:
// perceived loudness scales roughly with pow(volume, 1.6609).
const volumeExponent = 1.660964

// Streamer streams one guild's audio into its voice connection. It
// implements player.Sink; one Streamer lives per guild voice session and is
// reused across tracks.
type Streamer struct {
	guildID string
	vc      *discordgo.VoiceConnection
	events  chan player.Event
	release func()

	gainBits atomic.Uint64 // float64 PCM gain
	paused   atomic.Bool

	mu   sync.Mutex
	stop chan struct{} // per-playback stop signal, nil when idle
}

func newStreamer(guildID string, vc *discordgo.VoiceConnection, release func()) *Streamer {
	s := &Streamer{
		guildID: guildID,
		vc:      vc,
		events:  make(chan player.Event, 16),
		release: release,
	}
	s.SetVolume(player.DefaultVolume)
	return s
}

// Events returns the sink's event stream.
func (s *Streamer) Events() <-chan player.Event {
	return s.events
}

// Play starts streaming PCM from the given reader. It returns once the
// playback loop is running; completion and errors surface as events tagged
// with playID.
func (s *Streamer) Play(playID uint64, stream io.ReadCloser, volumePercent int) error {
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return err
	}
	enc.SetBitrate(opusBitrate)

	s.SetVolume(volumePercent)
	s.paused.Store(false)

	s.mu.Lock()
	if s.stop != nil {
		// Defensive: the engine tears down the previous playback before
		// starting a new one, but never let two loops share the connection.
		close(s.stop)
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go s.run(playID, stream, enc, stop)
	return nil
}

// SetVolume updates the PCM gain applied to the live resource.
func (s *Streamer) SetVolume(percent int) {
	if percent < player.MinVolume {
		percent = player.MinVolume
	}
	if percent > player.MaxVolume {
		percent = player.MaxVolume
	}
	gain := math.Pow(float64(percent)/100.0, volumeExponent)
	s.gainBits.Store(math.Float64bits(gain))
}

// SetPaused gates frame delivery without ending playback.
func (s *Streamer) SetPaused(paused bool) {
	s.paused.Store(paused)
}

// StopPlayback force-stops the current resource; the loop reports the stop
// as an Idle event.
func (s *Streamer) StopPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// Release stops playback and disconnects the voice connection.
func (s *Streamer) Release() {
	s.StopPlayback()
	if err := s.vc.Disconnect(); err != nil {
		log.Printf("guild %s: voice disconnect: %v", s.guildID, err)
	}
	if s.release != nil {
		s.release()
	}
}

func (s *Streamer) gain() float64 {
	return math.Float64frombits(s.gainBits.Load())
}

// emit delivers an event without ever blocking the playback loop; the
// engine's pump keeps up under normal operation, so a full channel only
// happens when the engine is already tearing this playback down.
func (s *Streamer) emit(ev player.Event) {
	select {
	case s.events <- ev:
	default:
		log.Printf("guild %s: dropping sink event %s", s.guildID, ev.Kind)
	}
}

// run is the per-playback loop: a reader goroutine pulls fixed-size PCM
// frames off the transcoder stream while the send loop encodes and ships
// them, so a network stall is observable as a timeout here rather than a
// silent hang.
func (s *Streamer) run(playID uint64, stream io.ReadCloser, enc *gopus.Encoder, stop chan struct{}) {
	defer stream.Close()

	frames := make(chan []int16, 8)
	readErrs := make(chan error, 1)

	go func() {
		defer close(frames)
		buf := make([]byte, frameBytes)
		for {
			if _, err := io.ReadFull(stream, buf); err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
					readErrs <- err
				}
				return
			}
			samples := bytesToPCM(buf)
			select {
			case frames <- samples:
			case <-stop:
				return
			}
		}
	}()

	if err := s.vc.Speaking(true); err != nil {
		log.Printf("guild %s: speaking(true): %v", s.guildID, err)
	}
	defer func() {
		if err := s.vc.Speaking(false); err != nil {
			log.Printf("guild %s: speaking(false): %v", s.guildID, err)
		}
	}()

	s.emit(player.Event{Kind: player.EventPlaying, PlayID: playID})

	for {
		if s.paused.Load() {
			select {
			case <-stop:
				s.emit(player.Event{Kind: player.EventIdle, PlayID: playID})
				return
			case <-time.After(20 * time.Millisecond):
			}
			continue
		}

		select {
		case <-stop:
			s.emit(player.Event{Kind: player.EventIdle, PlayID: playID})
			return

		case err := <-readErrs:
			s.emit(player.Event{Kind: player.EventError, PlayID: playID, Err: err})
			return

		case samples, ok := <-frames:
			if !ok {
				// End of stream: drain any racing read error first.
				select {
				case err := <-readErrs:
					s.emit(player.Event{Kind: player.EventError, PlayID: playID, Err: err})
				default:
					s.emit(player.Event{Kind: player.EventIdle, PlayID: playID})
				}
				return
			}
			if !s.sendFrame(samples, enc) {
				continue
			}

		case <-time.After(stallTimeout):
			s.emit(player.Event{
				Kind:   player.EventError,
				PlayID: playID,
				Err:    errors.New("voice: no frames from transcoder within stall timeout"),
			})
			return
		}
	}
}

// sendFrame applies gain, encodes and delivers one 20ms frame. A blocked
// OpusSend drops the frame with a warning (the connection is unhealthy, not
// the stream).
func (s *Streamer) sendFrame(samples []int16, enc *gopus.Encoder) bool {
	applyGain(samples, s.gain())

	opusData, err := enc.Encode(samples, frameSize, frameBytes)
	if err != nil {
		log.Printf("guild %s: opus encode: %v", s.guildID, err)
		return false
	}

	select {
	case s.vc.OpusSend <- opusData:
		return true
	case <-time.After(sendTimeout):
		log.Printf("guild %s: OpusSend blocked, dropping frame", s.guildID)
		return false
	}
}

func bytesToPCM(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

func applyGain(samples []int16, gain float64) {
	if gain == 1.0 {
		return
	}
	for i, v := range samples {
		scaled := float64(v) * gain
		switch {
		case scaled > math.MaxInt16:
			samples[i] = math.MaxInt16
		case scaled < math.MinInt16:
			samples[i] = math.MinInt16
		default:
			samples[i] = int16(scaled)
		}
	}
}
