package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/melodia-bot/melodia/pkg/player"
)

// QueueCommand handles the queue subcommands: list, remove, clear, shuffle.
func QueueCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		showQueue(s, i)
		return
	}

	sub := data.Options[0]
	switch sub.Name {
	case "list":
		showQueue(s, i)
	case "remove":
		removeFromQueue(s, i, sub)
	case "clear":
		clearQueue(s, i)
	case "shuffle":
		shuffleQueue(s, i)
	default:
		respondEmbed(s, i, "❌ Usage Error", "Unknown queue subcommand.", colorError)
	}
}

func showQueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	engine := registry.Get(i.GuildID)
	if engine == nil {
		respondEmbed(s, i, "📭 Queue Empty", "No songs in the queue. Use /play to add one.", colorNeutral)
		return
	}

	items := engine.QueueSnapshot()
	current := engine.NowPlaying()
	if current == nil && len(items) == 0 {
		respondEmbed(s, i, "📭 Queue Empty", "No songs in the queue. Use /play to add one.", colorNeutral)
		return
	}

	var b strings.Builder
	if current != nil {
		fmt.Fprintf(&b, "**Now playing:** %s\n\n", current.DisplayTitle())
	}
	// Cap the listing so huge queues fit in one embed.
	const maxListed = 15
	for idx, item := range items {
		if idx == maxListed {
			fmt.Fprintf(&b, "...and %d more\n", len(items)-maxListed)
			break
		}
		fmt.Fprintf(&b, "`%d.` %s (by %s)\n", idx+1, item.DisplayTitle(), item.RequestedBy)
	}
	if len(items) == 0 {
		b.WriteString("The queue is empty.")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎶 Queue",
		Description: b.String(),
		Color:       colorInfo,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d pending · loop %s", len(items), engine.LoopMode()),
		},
	}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		respondEmbed(s, i, "❌ Error", "Failed to render the queue.", colorError)
	}
}

func removeFromQueue(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := subOptionMap(sub)
	indexOpt, ok := opts["index"]
	if !ok {
		respondEmbed(s, i, "❌ Usage Error", "Please provide the 1-based position to remove.", colorError)
		return
	}
	position := int(indexOpt.IntValue())

	engine := registry.Get(i.GuildID)
	if engine == nil {
		respondEmbed(s, i, "📭 Queue Empty", "No songs in the queue.", colorNeutral)
		return
	}

	removed, err := engine.RemoveAt(position)
	if err != nil {
		if errors.Is(err, player.ErrInvalidIndex) {
			respondEmbed(s, i, "❌ Invalid Index",
				fmt.Sprintf("Position %d is out of range (queue has %d items).", position, engine.QueueLength()), colorError)
			return
		}
		respondEmbed(s, i, "❌ Error", "Failed to remove the track.", colorError)
		return
	}
	respondEmbed(s, i, "🗑️ Removed",
		fmt.Sprintf("Removed **%s** from the queue.", removed.DisplayTitle()), colorSuccess)
}

func clearQueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	engine := registry.Get(i.GuildID)
	if engine == nil || engine.QueueLength() == 0 {
		respondEmbed(s, i, "📭 Queue Empty", "Nothing to clear.", colorNeutral)
		return
	}

	for engine.QueueLength() > 0 {
		if _, err := engine.RemoveAt(1); err != nil {
			break
		}
	}
	respondEmbed(s, i, "🗑️ Queue Cleared", "All pending tracks were removed.", colorSuccess)
}

func shuffleQueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	engine := registry.Get(i.GuildID)
	if engine == nil {
		respondEmbed(s, i, "📭 Queue Empty", "No songs in queue to shuffle.", colorNeutral)
		return
	}

	size := engine.QueueLength()
	if size < 2 {
		respondEmbed(s, i, "📭 Not Enough Songs", "Need at least 2 songs to shuffle the queue.", colorNeutral)
		return
	}

	engine.Shuffle()
	respondEmbed(s, i, "🔀 Queue Shuffled",
		fmt.Sprintf("Shuffled %d songs.", size), colorSuccess)
}
