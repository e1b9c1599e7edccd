package common

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/latoulicious/mpdbot/pkg/mpd"
)

// Romanizer turns arbitrary text into a latin rendering.
type Romanizer interface {
	Romanize(ctx context.Context, text string) (string, error)
}

// FormatDuration renders d as H:MM:SS from one hour up, M:SS below.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// WithRomanization appends the romanized form of s in parentheses when it
// differs from s. Romanization failures leave s untouched.
func WithRomanization(ctx context.Context, r Romanizer, s string) string {
	if r == nil {
		return s
	}
	romanized, err := r.Romanize(ctx, s)
	if err != nil || romanized == s {
		return s
	}
	return fmt.Sprintf("%s (%s)", s, romanized)
}

// FormatSongInfo renders song as a fixed-width block wrapped in a code fence.
func FormatSongInfo(ctx context.Context, song *mpd.Song, r Romanizer) string {
	var b strings.Builder
	b.WriteString("```\n")

	title := song.File
	if song.Title != "" {
		title = WithRomanization(ctx, r, song.Title)
	}
	fmt.Fprintf(&b, "Title:    %s\n", title)

	if artist, ok := song.Artist(); ok {
		fmt.Fprintf(&b, "Artist:   %s\n", WithRomanization(ctx, r, artist))
	}
	if album, ok := song.Album(); ok {
		fmt.Fprintf(&b, "Album:    %s\n", WithRomanization(ctx, r, album))
	}
	if song.HasDuration {
		fmt.Fprintf(&b, "Duration: %s\n", FormatDuration(song.Duration))
	}

	b.WriteString("```")
	return b.String()
}
