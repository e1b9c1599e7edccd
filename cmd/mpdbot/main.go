// Command mpdbot controls an MPD server from Discord chat, streams its audio
// output into voice channels and serves a read-only queue page.
//
// Usage:
//
//	mpdbot run      Discord bot and queue view
//	mpdbot discord  Discord bot only
//	mpdbot web      queue view only
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
