package commands

import (
	"github.com/bwmarrin/discordgo"
)

// SkipCommand abandons the current track and advances the queue.
func SkipCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	engine := registry.Get(i.GuildID)
	if engine == nil {
		respondEmbed(s, i, "🔇 Nothing Playing", "Nothing is playing in this server.", colorNeutral)
		return
	}

	current := engine.NowPlaying()
	if err := engine.Skip(); err != nil {
		respondEmbed(s, i, "🔇 Nothing Playing", "Nothing is playing in this server.", colorNeutral)
		return
	}

	if current != nil {
		respondEmbed(s, i, "⏭️ Skipped", "Skipped **"+current.DisplayTitle()+"**.", colorSuccess)
		return
	}
	respondEmbed(s, i, "⏭️ Skipped", "Skipped to the next track.", colorSuccess)
}
