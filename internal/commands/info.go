package commands

import (
	"context"

	"github.com/latoulicious/mpdbot/pkg/common"
)

func (d *Dispatcher) info(ctx context.Context) string {
	song, err := d.media.CurrentSong()
	if err != nil {
		return d.mediaFailure("info", err, "Failed to read the current song!")
	}
	if song == nil {
		return "Currently no song is playing!"
	}
	return common.FormatSongInfo(ctx, song, d.romanizer)
}
