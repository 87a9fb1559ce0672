package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// VolumeCommand sets the playback volume. Values outside [0, 1000] are
// clamped; the new volume applies to the live track immediately and is
// remembered for the next one.
func VolumeCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	opts := optionMap(data)

	// Creating the engine on a read is fine; a fresh one reports the
	// configured default volume.
	engine := registry.GetOrCreate(i.GuildID)

	percentOpt, ok := opts["percent"]
	if !ok {
		respondEmbed(s, i, "🔊 Volume", fmt.Sprintf("Volume is at %d%%.", engine.Volume()), colorInfo)
		return
	}

	applied := engine.SetVolume(int(percentOpt.IntValue()))
	respondEmbed(s, i, "🔊 Volume", fmt.Sprintf("Volume set to %d%%.", applied), colorSuccess)
}
