package commands

import (
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/melodia-bot/melodia/internal/presence"
	"github.com/melodia-bot/melodia/pkg/player"
	"github.com/melodia-bot/melodia/pkg/resolver"
)

// Embed colors shared by all command replies.
const (
	colorSuccess = 0x00ff00
	colorError   = 0xff0000
	colorInfo    = 0x3498db
	colorNeutral = 0x808080
	colorWarning = 0xffa500
)

// resolveTimeout bounds enqueue-time metadata lookups and playlist
// expansion; play-time resolution is bounded by the engine's own context.
const resolveTimeout = 60 * time.Second

var (
	registry        *player.Registry
	resolverClient  *resolver.Client
	presenceManager *presence.Manager
)

// Setup wires the command package to its collaborators. Must be called
// before any command handler runs.
func Setup(r *player.Registry, rc *resolver.Client, pm *presence.Manager) {
	registry = r
	resolverClient = rc
	presenceManager = pm
}

// sendEmbedMessage posts a simple embed to a channel.
func sendEmbedMessage(s *discordgo.Session, channelID, title, description string, color int) {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Printf("Error sending embed to channel %s: %v", channelID, err)
	}
}

// respondEmbed edits the deferred interaction response with an embed.
func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, title, description string, color int) {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		log.Printf("Error editing interaction response: %v", err)
	}
}

// interactionUser returns the invoking user's display name.
func interactionUser(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return "unknown"
}

// interactionUserID returns the invoking user's ID.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// optionMap indexes an interaction's options by name.
func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		out[opt.Name] = opt
	}
	return out
}

func subOptionMap(sub *discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(sub.Options))
	for _, opt := range sub.Options {
		out[opt.Name] = opt
	}
	return out
}
