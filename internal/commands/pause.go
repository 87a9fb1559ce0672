package commands

import (
	"github.com/bwmarrin/discordgo"
)

// PauseCommand suspends the current track.
func PauseCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	engine := registry.Get(i.GuildID)
	if engine == nil {
		respondEmbed(s, i, "❌ Error", "Nothing is playing.", colorError)
		return
	}

	if engine.Paused() {
		respondEmbed(s, i, "❌ Error", "Playback is already paused.", colorError)
		return
	}
	if err := engine.Pause(); err != nil {
		respondEmbed(s, i, "❌ Error", "Nothing is playing.", colorError)
		return
	}
	respondEmbed(s, i, "⏸️ Playback Paused", "Music playback has been paused.", colorWarning)
}
