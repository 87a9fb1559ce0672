package commands

import (
	"github.com/bwmarrin/discordgo"
)

// ResumeCommand continues a paused track.
func ResumeCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	engine := registry.Get(i.GuildID)
	if engine == nil {
		respondEmbed(s, i, "❌ Error", "Nothing is playing.", colorError)
		return
	}

	if !engine.Paused() {
		respondEmbed(s, i, "❌ Error", "Playback is not paused.", colorError)
		return
	}
	if err := engine.Resume(); err != nil {
		respondEmbed(s, i, "❌ Error", "Nothing is playing.", colorError)
		return
	}
	respondEmbed(s, i, "▶️ Playback Resumed", "Music playback has resumed.", colorSuccess)
}
