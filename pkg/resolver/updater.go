package resolver

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/robfig/cron/v3"
)

// updateInterval is how stale the last successful self-update may be before
// boot triggers a new one.
const updateInterval = 24 * time.Hour

// Updater keeps the external yt-dlp tool current. The only persisted state
// is a single timestamp file recording the last successful self-update; it
// is read once on boot to decide whether to update immediately, and the
// daily schedule takes over from there.
type Updater struct {
	// TimestampPath is the file holding the last-update time, RFC 3339.
	TimestampPath string

	// TZOffsetHours shifts the daily update schedule into the operator's
	// local time.
	TZOffsetHours int

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewUpdater creates an updater persisting to timestampPath.
func NewUpdater(timestampPath string, tzOffsetHours int) *Updater {
	return &Updater{
		TimestampPath: timestampPath,
		TZOffsetHours: tzOffsetHours,
	}
}

// LastUpdate returns the persisted last-update time; zero when the file is
// missing or unreadable.
func (u *Updater) LastUpdate() time.Time {
	data, err := os.ReadFile(u.TimestampPath)
	if err != nil {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		log.Printf("updater: unparseable timestamp file %s: %v", u.TimestampPath, err)
		return time.Time{}
	}
	return ts
}

// ShouldUpdate reports whether the last successful update is older than the
// update interval (or has never happened).
func (u *Updater) ShouldUpdate(now time.Time) bool {
	last := u.LastUpdate()
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= updateInterval
}

// markUpdated persists now as the last successful update time.
func (u *Updater) markUpdated(now time.Time) {
	if err := os.WriteFile(u.TimestampPath, []byte(now.UTC().Format(time.RFC3339)+"\n"), 0o644); err != nil {
		log.Printf("updater: failed to write timestamp file %s: %v", u.TimestampPath, err)
	}
}

// RunUpdate performs a yt-dlp self-update. Overlapping invocations (boot
// update racing the first scheduled one) collapse to a single run.
func (u *Updater) RunUpdate(ctx context.Context) error {
	u.mu.Lock()
	if u.running {
		u.mu.Unlock()
		log.Println("updater: update already in progress, skipping")
		return nil
	}
	u.running = true
	u.mu.Unlock()

	defer func() {
		u.mu.Lock()
		u.running = false
		u.mu.Unlock()
	}()

	log.Println("updater: running yt-dlp self-update...")
	if _, err := ytdlp.New().Update(ctx); err != nil {
		log.Printf("updater: self-update failed: %v", err)
		return err
	}

	u.markUpdated(time.Now())
	log.Println("updater: yt-dlp self-update completed")
	return nil
}

// Start updates on boot when the persisted timestamp is stale, then
// schedules a daily update at 04:00 in the configured timezone offset.
func (u *Updater) Start(ctx context.Context) {
	if u.ShouldUpdate(time.Now()) {
		go func() {
			_ = u.RunUpdate(ctx)
		}()
	}

	loc := time.FixedZone("updater", u.TZOffsetHours*3600)
	u.cron = cron.New(cron.WithLocation(loc))
	if _, err := u.cron.AddFunc("0 4 * * *", func() {
		_ = u.RunUpdate(ctx)
	}); err != nil {
		log.Printf("updater: failed to schedule daily update: %v", err)
		return
	}
	u.cron.Start()
	log.Printf("updater: daily self-update scheduled (UTC%+d)", u.TZOffsetHours)
}

// Stop halts the schedule; an in-flight update finishes on its own.
func (u *Updater) Stop() {
	if u.cron != nil {
		u.cron.Stop()
	}
}
