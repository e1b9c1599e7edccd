package commands

import (
	"fmt"
	"strconv"
)

const unknownTitle = "???"

// play switches to a 1-based queue position and announces the new song.
func (d *Dispatcher) play(args []string) string {
	if len(args) == 0 {
		return "Missing or failed to parse song id"
	}
	position, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return "Missing or failed to parse song id"
	}

	song, err := d.media.SwitchAndCurrent(uint(position))
	if err != nil {
		return d.mediaFailure("play", err, fmt.Sprintf("Failed to play %d!", position))
	}

	title := unknownTitle
	if song != nil && song.Title != "" {
		title = song.Title
	}
	return fmt.Sprintf("Playing \"%s\" now.", title)
}
