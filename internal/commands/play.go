package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/melodia-bot/melodia/pkg/player"
	"github.com/melodia-bot/melodia/pkg/resolver"
	"github.com/melodia-bot/melodia/pkg/voice"
)

// PlayCommand canonicalizes the query to a page URL, resolves its title
// (best-effort, cheap) and enqueues it. The direct stream URL is
// deliberately not resolved here: signed URLs expire, so the engine
// re-resolves the page URL right before playback starts. Pinning keyword
// queries to their first match here also keeps the track stable when loop
// mode replays it later.
func PlayCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	opts := optionMap(data)

	queryOpt, ok := opts["query"]
	if !ok || queryOpt.StringValue() == "" {
		respondEmbed(s, i, "❌ Usage Error", "Please provide a URL or search query.", colorError)
		return
	}
	query := queryOpt.StringValue()

	voiceChannelID := voice.UserVoiceChannel(s, i.GuildID, interactionUserID(i))
	if voiceChannelID == "" {
		respondEmbed(s, i, "❌ Error", "You must be in a voice channel to play music.", colorError)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	source := query
	if !resolver.IsURL(query) {
		url, err := resolverClient.ResolveFirstMatch(ctx, query)
		switch {
		case err != nil:
			// Transient search failure: keep the raw query, the engine will
			// search again at play time.
			log.Printf("play: search failed for %q, enqueueing raw query: %v", query, err)
		case url == "":
			respondEmbed(s, i, "❌ No Results",
				fmt.Sprintf("No results found for **%s**.", query), colorError)
			return
		default:
			source = url
		}
	}
	title := resolverClient.ResolveTitle(ctx, source)
	if title == source && source != query {
		// Title lookup fell back to its input; the raw query reads better
		// than a bare URL.
		title = query
	}

	track := player.Track{
		Title:          title,
		Source:         source,
		RequestedBy:    interactionUser(i),
		GuildID:        i.GuildID,
		VoiceChannelID: voiceChannelID,
		TextChannelID:  i.ChannelID,
	}

	engine := registry.GetOrCreate(i.GuildID)
	position := engine.Enqueue(track)

	if position == 0 {
		respondEmbed(s, i, "🎵 Starting Playback",
			fmt.Sprintf("Loading **%s**...", track.DisplayTitle()), colorSuccess)
		return
	}
	respondEmbed(s, i, "🎵 Song Added",
		fmt.Sprintf("✅ Added **%s** to queue (Position: %d)", track.DisplayTitle(), position), colorSuccess)
}
