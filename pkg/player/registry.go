package player

import (
	"log"
	"sync"
)

// Registry maps guild identity to that guild's playback engine. Engines are
// created lazily on first use and live for the process lifetime, so each
// guild's queue and playback state stays isolated from every other guild's.
type Registry struct {
	cfg EngineConfig

	mu      sync.RWMutex
	engines map[string]*Engine
}

// NewRegistry creates a registry whose engines share the given collaborators
// and defaults.
func NewRegistry(cfg EngineConfig) *Registry {
	return &Registry{
		cfg:     cfg,
		engines: make(map[string]*Engine),
	}
}

// GetOrCreate returns the guild's engine, creating it on first use.
func (r *Registry) GetOrCreate(guildID string) *Engine {
	r.mu.RLock()
	e, ok := r.engines[guildID]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[guildID]; ok {
		return e
	}
	e = NewEngine(guildID, r.cfg)
	r.engines[guildID] = e
	log.Printf("created playback engine for guild %s", guildID)
	return e
}

// Get returns the guild's engine, or nil if none exists yet.
func (r *Registry) Get(guildID string) *Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engines[guildID]
}

// StopAll stops playback in every guild; used during process shutdown.
func (r *Registry) StopAll() {
	r.mu.RLock()
	engines := make([]*Engine, 0, len(r.engines))
	for _, e := range r.engines {
		engines = append(engines, e)
	}
	r.mu.RUnlock()

	for _, e := range engines {
		e.Stop()
	}
}
