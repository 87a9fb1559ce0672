package commands

import (
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

// NowPlayingCommand shows the current track, loop mode and volume.
func NowPlayingCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	engine := registry.Get(i.GuildID)
	if engine == nil {
		sendNothingPlaying(s, i)
		return
	}

	current := engine.NowPlaying()
	if current == nil {
		sendNothingPlaying(s, i)
		return
	}

	status := "Playing"
	if engine.Paused() {
		status = "Paused"
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Now Playing",
		Description: fmt.Sprintf("**%s**", current.DisplayTitle()),
		Color:       colorSuccess,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: status, Inline: true},
			{Name: "Requested By", Value: current.RequestedBy, Inline: true},
			{Name: "Loop", Value: engine.LoopMode().String(), Inline: true},
			{Name: "Volume", Value: fmt.Sprintf("%d%%", engine.Volume()), Inline: true},
			{Name: "Queue", Value: fmt.Sprintf("%d pending", engine.QueueLength()), Inline: true},
		},
	}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		log.Printf("Error editing interaction response: %v", err)
	}
}

func sendNothingPlaying(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEmbed(s, i, "🎵 Now Playing", "Nothing is currently playing. Use /play to start.", colorNeutral)
}
