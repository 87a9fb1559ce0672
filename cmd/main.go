package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/melodia-bot/melodia/internal/commands"
	"github.com/melodia-bot/melodia/internal/config"
	"github.com/melodia-bot/melodia/internal/handlers"
	"github.com/melodia-bot/melodia/internal/presence"
	"github.com/melodia-bot/melodia/internal/web"
	"github.com/melodia-bot/melodia/pkg/player"
	"github.com/melodia-bot/melodia/pkg/resolver"
	"github.com/melodia-bot/melodia/pkg/voice"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	setupLogging(cfg.LogDir)

	// Create a new Discord session using the provided token
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}
	dg.State.TrackVoice = true

	// Media resolver and its self-updater
	resolverClient := &resolver.Client{
		CookiesFile: cfg.CookiesFile,
		ForceIPv4:   cfg.ForceIPv4,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var updater *resolver.Updater
	if cfg.AutoUpdate {
		updater = resolver.NewUpdater(timestampPath(cfg.LogDir), cfg.UpdateTZOffset)
		updater.Start(ctx)
		defer updater.Stop()
	}

	// Presence manager and per-guild playback registry
	presenceManager := presence.NewManager(dg)
	registry := player.NewRegistry(player.EngineConfig{
		Resolver: resolverClient,
		Sinks:    voice.NewProvider(dg),
		Pipelines: &player.FFmpegFactory{
			BinaryPath: cfg.FFmpegPath,
			Debug:      cfg.FFmpegDebug,
		},
		Notifier:      commands.NewNotifier(dg, presenceManager),
		DefaultVolume: cfg.DefaultVolume,
		DefaultLoop:   cfg.DefaultLoop,
	})
	commands.Setup(registry, resolverClient, presenceManager)

	// Register the slash command handler
	dg.AddHandler(handlers.SlashCommandHandler)

	// Open a websocket connection to Discord and begin listening.
	if err := dg.Open(); err != nil {
		log.Fatalf("Failed to open Discord session: %v", err)
	}

	if err := commands.RegisterSlashCommands(dg); err != nil {
		log.Printf("Failed to register slash commands: %v", err)
	}

	presenceManager.SetDefault()
	presenceManager.StartPeriodicUpdates()

	web.StartKeepAlive(cfg.ListenPort)

	log.Println("Bot is running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Stop every guild's playback, then close the session.
	registry.StopAll()
	dg.Close()
}

// setupLogging tees log output into LOG_DIR when configured.
func setupLogging(logDir string) {
	if logDir == "" {
		return
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Printf("Failed to create log dir %s: %v", logDir, err)
		return
	}
	f, err := os.OpenFile(filepath.Join(logDir, "melodia.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("Failed to open log file: %v", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}

// timestampPath places the resolver's last-update marker next to the logs,
// falling back to the working directory.
func timestampPath(logDir string) string {
	if logDir == "" {
		return ".ytdlp-last-update"
	}
	return filepath.Join(logDir, ".ytdlp-last-update")
}
