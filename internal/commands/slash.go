package commands

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

// RegisterSlashCommands registers all slash commands globally.
func RegisterSlashCommands(s *discordgo.Session) error {
	minLimit := float64(1)
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Add a song to the queue and play it",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "URL or search query",
					Required:    true,
				},
			},
		},
		{
			Name:        "playlist",
			Description: "Queue a playlist or several search results",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Playlist URL or search query",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "limit",
					Description: "How many tracks to queue (1-50)",
					MinValue:    &minLimit,
					MaxValue:    50,
				},
			},
		},
		{
			Name:        "queue",
			Description: "Manage the music queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "Show the current queue",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a song from the queue",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "index",
							Description: "Position of the song to remove (1-based)",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "clear",
					Description: "Clear the entire queue",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "shuffle",
					Description: "Shuffle the pending queue",
				},
			},
		},
		{
			Name:        "skip",
			Description: "Skip the current song",
		},
		{
			Name:        "stop",
			Description: "Stop playback and clear the queue",
		},
		{
			Name:        "pause",
			Description: "Pause the current playback",
		},
		{
			Name:        "resume",
			Description: "Resume paused playback",
		},
		{
			Name:        "nowplaying",
			Description: "Show what's currently playing",
		},
		{
			Name:        "loop",
			Description: "Set the loop mode",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "off, track or queue",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "off", Value: "off"},
						{Name: "track", Value: "track"},
						{Name: "queue", Value: "queue"},
					},
				},
			},
		},
		{
			Name:        "volume",
			Description: "Show or set the playback volume",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "percent",
					Description: "Volume percent (0-1000)",
				},
			},
		},
		{
			Name:        "help",
			Description: "Show help information",
		},
	}

	log.Println("Registering global slash commands...")

	for _, cmd := range commands {
		_, err := s.ApplicationCommandCreate(s.State.User.ID, "", cmd)
		if err != nil {
			log.Printf("Error creating command %s: %v", cmd.Name, err)
			return err
		}
		log.Printf("Registered command: %s", cmd.Name)
	}

	log.Println("All slash commands registered successfully!")
	return nil
}

// DeleteAllSlashCommands deletes all global slash commands.
func DeleteAllSlashCommands(s *discordgo.Session) error {
	log.Println("Deleting all global slash commands...")

	commands, err := s.ApplicationCommands(s.State.User.ID, "")
	if err != nil {
		log.Printf("Error fetching commands: %v", err)
		return err
	}

	for _, cmd := range commands {
		if err := s.ApplicationCommandDelete(s.State.User.ID, "", cmd.ID); err != nil {
			log.Printf("Error deleting command %s: %v", cmd.Name, err)
			return err
		}
		log.Printf("Deleted command: %s", cmd.Name)
	}

	return nil
}
