package presence

import (
	"log/slog"
	"sync"

	"github.com/latoulicious/mpdbot/pkg/cron"
	"github.com/latoulicious/mpdbot/pkg/mpd"
)

// Status is where the bot's activity is shown.
type Status interface {
	SetListening(text string) error
	SetIdle(text string) error
}

type Media interface {
	CurrentSong() (*mpd.Song, error)
}

// PresenceManager mirrors the current song into the bot's presence.
type PresenceManager struct {
	status   Status
	media    Media
	idleText string
	log      *slog.Logger

	mu      sync.Mutex
	current string
	set     bool
}

// NewPresenceManager creates a presence manager. idleText is shown when
// nothing is playing.
func NewPresenceManager(status Status, media Media, idleText string, log *slog.Logger) *PresenceManager {
	return &PresenceManager{
		status:   status,
		media:    media,
		idleText: idleText,
		log:      log.With("component", "presence"),
	}
}

// Refresh reads the current song and updates the presence when it changed.
func (pm *PresenceManager) Refresh() error {
	song, err := pm.media.CurrentSong()
	if err != nil {
		return err
	}

	text := ""
	if song != nil {
		text = songLabel(song)
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pm.set && text == pm.current {
		return nil
	}

	if text == "" {
		err = pm.status.SetIdle(pm.idleText)
	} else {
		err = pm.status.SetListening(text)
	}
	if err != nil {
		return err
	}

	pm.current = text
	pm.set = true
	pm.log.Debug("Updated presence", "listening", text)
	return nil
}

// Current returns the song label on display; empty when idle.
func (pm *PresenceManager) Current() string {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.current
}

// StartPeriodicUpdates refreshes the presence on schedule. Stop the returned
// job on shutdown.
func (pm *PresenceManager) StartPeriodicUpdates(schedule string) (*cron.Job, error) {
	job, err := cron.NewJob("presence", schedule, pm.Refresh, pm.log)
	if err != nil {
		return nil, err
	}
	job.Start()
	return job, nil
}

func songLabel(song *mpd.Song) string {
	title := song.DisplayTitle()
	if artist, ok := song.Artist(); ok {
		return artist + " - " + title
	}
	return title
}
