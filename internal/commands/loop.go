package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/melodia-bot/melodia/pkg/player"
)

// LoopCommand sets the loop policy: off, track or queue.
func LoopCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	opts := optionMap(data)

	modeOpt, ok := opts["mode"]
	if !ok {
		respondEmbed(s, i, "❌ Usage Error", "Please choose a loop mode: off, track or queue.", colorError)
		return
	}

	mode, err := player.ParseLoopMode(modeOpt.StringValue())
	if err != nil {
		respondEmbed(s, i, "❌ Invalid Loop Mode", "Valid modes are `off`, `track` and `queue`.", colorError)
		return
	}

	engine := registry.GetOrCreate(i.GuildID)
	engine.SetLoopMode(mode)

	switch mode {
	case player.LoopTrack:
		respondEmbed(s, i, "🔂 Loop", "Looping the current track.", colorSuccess)
	case player.LoopQueue:
		respondEmbed(s, i, "🔁 Loop", "Looping the whole queue.", colorSuccess)
	default:
		respondEmbed(s, i, "➡️ Loop", "Loop disabled.", colorSuccess)
	}
}
