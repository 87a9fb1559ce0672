package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/melodia-bot/melodia/internal/presence"
	"github.com/melodia-bot/melodia/pkg/player"
)

// Notifier routes engine notifications to each track's originating text
// channel and mirrors playback onto the bot presence.
type Notifier struct {
	session  *discordgo.Session
	presence *presence.Manager
}

// NewNotifier creates the Discord-backed engine notifier.
func NewNotifier(session *discordgo.Session, pm *presence.Manager) *Notifier {
	return &Notifier{session: session, presence: pm}
}

func (n *Notifier) NowPlaying(t player.Track) {
	sendEmbedMessage(n.session, t.TextChannelID, "🎵 Now Playing",
		fmt.Sprintf("**%s**\nRequested by %s", t.DisplayTitle(), t.RequestedBy), colorSuccess)
	if n.presence != nil {
		n.presence.SetListening(t.DisplayTitle())
	}
}

func (n *Notifier) TrackFailed(t player.Track, err error) {
	sendEmbedMessage(n.session, t.TextChannelID, "⏭️ Skipped",
		fmt.Sprintf("Could not play: **%s**", t.DisplayTitle()), colorWarning)
}

func (n *Notifier) Reconnecting(t player.Track) {
	sendEmbedMessage(n.session, t.TextChannelID, "🔄 Reconnecting",
		fmt.Sprintf("Stream error on **%s**, attempting to reconnect...", t.DisplayTitle()), colorWarning)
}

func (n *Notifier) QueueEmpty(t player.Track) {
	sendEmbedMessage(n.session, t.TextChannelID, "🔇 Queue Empty",
		"Playback finished, nothing left in the queue.", colorNeutral)
	if n.presence != nil {
		n.presence.SetDefault()
	}
}
