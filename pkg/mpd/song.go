package mpd

import (
	"math"
	"strconv"
	"time"
)

// Song is a read-only view of one entry of the MPD play queue.
type Song struct {
	Position    int // 1-based queue position
	ID          int
	File        string
	Title       string
	Duration    time.Duration
	HasDuration bool
	Tags        map[string]string
}

// Artist returns the Artist tag, if present.
func (s *Song) Artist() (string, bool) {
	v, ok := s.Tags["Artist"]
	return v, ok && v != ""
}

// Album returns the Album tag, if present.
func (s *Song) Album() (string, bool) {
	v, ok := s.Tags["Album"]
	return v, ok && v != ""
}

// DisplayTitle returns the title, falling back to the file path.
func (s *Song) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.File
}

// keys handled explicitly and not copied into Tags
var reservedKeys = map[string]bool{
	"file":     true,
	"Title":    true,
	"Pos":      true,
	"Id":       true,
	"Time":     true,
	"duration": true,
}

// songFromAttrs builds a Song from an MPD attribute map. An empty map means
// "no song" and yields nil.
func songFromAttrs(attrs map[string]string) *Song {
	if len(attrs) == 0 {
		return nil
	}

	song := &Song{
		File:  attrs["file"],
		Title: attrs["Title"],
		Tags:  make(map[string]string),
	}

	if pos, err := strconv.Atoi(attrs["Pos"]); err == nil {
		song.Position = pos + 1
	}
	if id, err := strconv.Atoi(attrs["Id"]); err == nil {
		song.ID = id
	}

	// "duration" carries fractional seconds, "Time" is the legacy integer field
	if d, err := strconv.ParseFloat(attrs["duration"], 64); err == nil && !math.IsNaN(d) && d >= 0 {
		song.Duration = time.Duration(d * float64(time.Second))
		song.HasDuration = true
	} else if t, err := strconv.Atoi(attrs["Time"]); err == nil && t >= 0 {
		song.Duration = time.Duration(t) * time.Second
		song.HasDuration = true
	}

	for k, v := range attrs {
		if !reservedKeys[k] {
			song.Tags[k] = v
		}
	}

	return song
}
