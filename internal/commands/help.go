package commands

import (
	"fmt"
	"strings"
)

// helpText lists every verb with its usage.
func helpText(prefix string) string {
	lines := []string{
		"```",
		fmt.Sprintf("%s [join]    join your voice channel and stream the server", prefix),
		fmt.Sprintf("%s quit      leave the voice channel", prefix),
		fmt.Sprintf("%s pause     toggle pause", prefix),
		fmt.Sprintf("%s next      skip to the next song", prefix),
		fmt.Sprintf("%s prev      go back to the previous song", prefix),
		fmt.Sprintf("%s play <n>  play song n of the queue (1 is the first)", prefix),
		fmt.Sprintf("%s info      show the current song", prefix),
		fmt.Sprintf("%s help      show this message", prefix),
		"```",
	}
	return strings.Join(lines, "\n")
}
