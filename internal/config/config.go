package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/melodia-bot/melodia/pkg/player"
)

// ErrDiscordTokenNotSet means the required DISCORD_TOKEN variable is empty.
var ErrDiscordTokenNotSet = errors.New("config: DISCORD_TOKEN is not set")

// Config holds the process configuration. Everything except the Discord
// token is optional and defaulted.
type Config struct {
	DiscordToken string

	// ListenPort serves the liveness HTTP endpoint; 0 disables it.
	ListenPort int

	// FFmpegPath overrides the transcoder binary, default "ffmpeg".
	FFmpegPath string

	// CookiesFile is handed to the resolver for gated sources.
	CookiesFile string

	// LogDir, when set, is where log output and the resolver's last-update
	// timestamp file live.
	LogDir string

	// DefaultVolume is the initial per-guild volume percent, clamped to
	// [0, 1000].
	DefaultVolume int

	// DefaultLoop is the initial per-guild loop mode.
	DefaultLoop player.LoopMode

	// UpdateTZOffset shifts the daily resolver self-update schedule, in
	// hours from UTC.
	UpdateTZOffset int

	// ForceIPv4 pins resolver traffic to IPv4.
	ForceIPv4 bool

	// AutoUpdate enables the resolver self-update on boot and daily.
	AutoUpdate bool

	// FFmpegDebug logs the transcoder's stderr output.
	FFmpegDebug bool
}

// LoadConfig reads configuration from the environment, with an optional
// .env file for local development.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return nil, ErrDiscordTokenNotSet
	}

	cfg := &Config{
		DiscordToken:   token,
		ListenPort:     intEnv("LISTEN_PORT", 8080),
		FFmpegPath:     getEnv("FFMPEG_PATH", "ffmpeg"),
		CookiesFile:    os.Getenv("YTDLP_COOKIES"),
		LogDir:         os.Getenv("LOG_DIR"),
		DefaultVolume:  clamp(intEnv("DEFAULT_VOLUME", player.DefaultVolume), player.MinVolume, player.MaxVolume),
		UpdateTZOffset: intEnv("UPDATE_TZ_OFFSET", 0),
		ForceIPv4:      boolEnv("FORCE_IPV4", false),
		AutoUpdate:     boolEnv("AUTO_UPDATE", true),
		FFmpegDebug:    boolEnv("FFMPEG_DEBUG", false),
	}

	loop, err := player.ParseLoopMode(getEnv("DEFAULT_LOOP", "off"))
	if err != nil {
		return nil, fmt.Errorf("config: DEFAULT_LOOP: %w", err)
	}
	cfg.DefaultLoop = loop

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: ignoring unparseable %s=%q", key, v)
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: ignoring unparseable %s=%q", key, v)
		return fallback
	}
	return b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
