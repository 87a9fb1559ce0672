package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/melodia-bot/melodia/pkg/player"
	"github.com/melodia-bot/melodia/pkg/voice"
)

const defaultPlaylistLimit = 25

// PlaylistCommand expands a playlist URL or multi-result search into up to
// 50 tracks and enqueues them all.
func PlaylistCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	opts := optionMap(data)

	queryOpt, ok := opts["query"]
	if !ok || queryOpt.StringValue() == "" {
		respondEmbed(s, i, "❌ Usage Error", "Please provide a playlist URL or search query.", colorError)
		return
	}
	query := queryOpt.StringValue()

	limit := defaultPlaylistLimit
	if limitOpt, ok := opts["limit"]; ok {
		limit = int(limitOpt.IntValue())
	}

	voiceChannelID := voice.UserVoiceChannel(s, i.GuildID, interactionUserID(i))
	if voiceChannelID == "" {
		respondEmbed(s, i, "❌ Error", "You must be in a voice channel to play music.", colorError)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	entries := resolverClient.ResolveBatch(ctx, query, limit)
	if len(entries) == 0 {
		respondEmbed(s, i, "❌ Error", "No playable tracks found for that query.", colorError)
		return
	}

	requestedBy := interactionUser(i)
	tracks := make([]player.Track, 0, len(entries))
	for _, entry := range entries {
		tracks = append(tracks, player.Track{
			Title:          entry.Title,
			Source:         entry.URL,
			RequestedBy:    requestedBy,
			GuildID:        i.GuildID,
			VoiceChannelID: voiceChannelID,
			TextChannelID:  i.ChannelID,
		})
	}

	engine := registry.GetOrCreate(i.GuildID)
	added := engine.EnqueueBatch(tracks)

	respondEmbed(s, i, "🎵 Playlist Added",
		fmt.Sprintf("✅ Added **%d** tracks to the queue.", added), colorSuccess)
}
