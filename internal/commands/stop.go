package commands

import (
	"github.com/bwmarrin/discordgo"
)

// StopCommand clears the queue, stops playback and leaves the voice channel.
func StopCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	engine := registry.Get(i.GuildID)
	if engine == nil {
		respondEmbed(s, i, "🔇 Nothing Playing", "Nothing is playing in this server.", colorNeutral)
		return
	}

	engine.Stop()
	if presenceManager != nil {
		presenceManager.SetDefault()
	}
	respondEmbed(s, i, "⏹️ Stopped", "Playback stopped and queue cleared.", colorSuccess)
}
