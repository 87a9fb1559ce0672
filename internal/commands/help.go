package commands

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// HelpCommand lists the available commands.
func HelpCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	embed := &discordgo.MessageEmbed{
		Title:     "🎵 Melodia Commands",
		Color:     colorInfo,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "/play <query>", Value: "Play a URL or search result", Inline: false},
			{Name: "/playlist <query> [limit]", Value: "Queue a playlist or multiple search results (max 50)", Inline: false},
			{Name: "/skip", Value: "Skip the current track", Inline: true},
			{Name: "/stop", Value: "Stop and clear the queue", Inline: true},
			{Name: "/pause · /resume", Value: "Pause or resume playback", Inline: true},
			{Name: "/nowplaying", Value: "Show the current track", Inline: true},
			{Name: "/queue list|remove|clear|shuffle", Value: "Manage the queue", Inline: false},
			{Name: "/loop <off|track|queue>", Value: "Set the loop mode", Inline: true},
			{Name: "/volume <0-1000>", Value: "Set the playback volume", Inline: true},
		},
	}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		respondEmbed(s, i, "❌ Error", "Failed to render help.", colorError)
	}
}
