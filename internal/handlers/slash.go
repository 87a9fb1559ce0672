package handlers

import (
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/melodia-bot/melodia/internal/commands"
)

// SlashCommandHandler handles slash command interactions.
func SlashCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Ignore interactions from bots
	if i.Member != nil && i.Member.User != nil && i.Member.User.Bot {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		handleApplicationCommand(s, i)
	default:
		log.Printf("Unknown interaction type: %d", i.Type)
	}
}

// handleApplicationCommand acknowledges the interaction immediately and
// dispatches to the command implementations; resolution can take seconds,
// so every command edits the deferred response when it finishes.
func handleApplicationCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Printf("Error acknowledging interaction: %v", err)
		return
	}

	switch data.Name {
	case "play":
		commands.PlayCommand(s, i)
	case "playlist":
		commands.PlaylistCommand(s, i)
	case "skip":
		commands.SkipCommand(s, i)
	case "stop":
		commands.StopCommand(s, i)
	case "pause":
		commands.PauseCommand(s, i)
	case "resume":
		commands.ResumeCommand(s, i)
	case "nowplaying":
		commands.NowPlayingCommand(s, i)
	case "queue":
		commands.QueueCommand(s, i)
	case "loop":
		commands.LoopCommand(s, i)
	case "volume":
		commands.VolumeCommand(s, i)
	case "help":
		commands.HelpCommand(s, i)
	default:
		log.Printf("Unknown command: %s", data.Name)
	}
}
