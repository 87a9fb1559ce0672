// Package presence keeps the bot's Discord status in sync with playback:
// "Listening to <track>" while a guild plays, server statistics when idle.
package presence

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Manager updates the bot's presence.
type Manager struct {
	session *discordgo.Session

	mu      sync.RWMutex
	current string
}

// NewManager creates a presence manager for the session.
func NewManager(session *discordgo.Session) *Manager {
	return &Manager{session: session}
}

// SetDefault shows server statistics while nothing is playing.
func (m *Manager) SetDefault() {
	guilds := m.session.State.Guilds
	status := discordgo.UpdateStatusData{
		Status: "online",
		Activities: []*discordgo.Activity{
			{
				Name:  "music",
				Type:  discordgo.ActivityTypeListening,
				State: "in " + strconv.Itoa(len(guilds)) + " servers",
			},
		},
	}
	if err := m.session.UpdateStatusComplex(status); err != nil {
		log.Printf("Failed to update bot presence: %v", err)
	}

	m.mu.Lock()
	m.current = "default"
	m.mu.Unlock()
}

// SetListening shows the currently playing track title.
func (m *Manager) SetListening(title string) {
	status := discordgo.UpdateStatusData{
		Status: "online",
		Activities: []*discordgo.Activity{
			{
				Name:  "to",
				Type:  discordgo.ActivityTypeListening,
				State: title,
			},
		},
	}
	if err := m.session.UpdateStatusComplex(status); err != nil {
		log.Printf("Failed to update music presence: %v", err)
	}

	m.mu.Lock()
	m.current = "music"
	m.mu.Unlock()
}

// Current returns which presence is active ("default" or "music").
func (m *Manager) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// StartPeriodicUpdates refreshes the default presence every few minutes so
// the server count stays current, without clobbering a music presence.
func (m *Manager) StartPeriodicUpdates() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			if m.Current() != "music" {
				m.SetDefault()
			}
		}
	}()
}
