package voice

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/melodia-bot/melodia/pkg/player"
)

// Provider hands out one Streamer per guild, joining the requested voice
// channel on first use and moving the live connection when a later track
// targets a different channel.
type Provider struct {
	session *discordgo.Session

	mu        sync.Mutex
	streamers map[string]*Streamer
}

// NewProvider creates a sink provider backed by the given session.
func NewProvider(session *discordgo.Session) *Provider {
	return &Provider{
		session:   session,
		streamers: make(map[string]*Streamer),
	}
}

// Acquire joins (or moves to) the voice channel and returns the guild's
// sink. discordgo keeps a single voice connection per guild, so the same
// Streamer identity survives channel moves and track changes.
func (p *Provider) Acquire(guildID, voiceChannelID string) (player.Sink, error) {
	vc, err := p.join(guildID, voiceChannelID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.streamers[guildID]; ok {
		return st, nil
	}
	st := newStreamer(guildID, vc, func() { p.drop(guildID) })
	p.streamers[guildID] = st
	return st, nil
}

// join connects with retry and waits for the connection to become ready,
// mirroring how flaky voice gateway handshakes are in practice.
func (p *Provider) join(guildID, voiceChannelID string) (*discordgo.VoiceConnection, error) {
	var vc *discordgo.VoiceConnection
	var err error

	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		vc, err = p.session.ChannelVoiceJoin(guildID, voiceChannelID, false, true)
		if err == nil {
			break
		}
		log.Printf("guild %s: voice join attempt %d/%d failed: %v", guildID, i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel after %d attempts: %w", maxRetries, err)
	}

	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-timeout:
			_ = vc.Disconnect()
			return nil, fmt.Errorf("voice connection for guild %s timed out", guildID)
		case <-ticker.C:
			if vc.Ready {
				return vc, nil
			}
		}
	}
}

func (p *Provider) drop(guildID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.streamers, guildID)
}

// UserVoiceChannel returns the voice channel the user currently occupies in
// the guild, or an empty string when they are not connected.
func UserVoiceChannel(s *discordgo.Session, guildID, userID string) string {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return ""
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID
		}
	}
	return ""
}
