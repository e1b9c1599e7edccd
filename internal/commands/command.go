// Package commands parses chat messages and runs them against the media
// server and the voice bridge.
package commands

import "strings"

// DefaultPrefix is the first token of every command message.
const DefaultPrefix = "!r"

type Verb int

const (
	VerbJoin Verb = iota
	VerbPause
	VerbNext
	VerbPrev
	VerbPlay
	VerbInfo
	VerbQuit
	VerbHelp
	VerbUnknown
)

var verbNames = map[string]Verb{
	"join":  VerbJoin,
	"pause": VerbPause,
	"next":  VerbNext,
	"prev":  VerbPrev,
	"play":  VerbPlay,
	"info":  VerbInfo,
	"quit":  VerbQuit,
	"help":  VerbHelp,
}

func (v Verb) String() string {
	for name, verb := range verbNames {
		if verb == v {
			return name
		}
	}
	return "unknown"
}

// Command is a parsed chat command.
type Command struct {
	Verb Verb
	// Name is the verb as typed; empty for a bare prefix.
	Name string
	Args []string
}

// Parse tokenizes content on whitespace. The message is a command only when it
// starts with prefix and its first token equals prefix exactly; a bare prefix
// means join.
func Parse(prefix, content string) (Command, bool) {
	if !strings.HasPrefix(content, prefix) {
		return Command{}, false
	}
	fields := strings.Fields(content)
	if len(fields) == 0 || fields[0] != prefix {
		return Command{}, false
	}

	if len(fields) == 1 {
		return Command{Verb: VerbJoin}, true
	}

	cmd := Command{Name: fields[1], Args: fields[2:]}
	verb, ok := verbNames[fields[1]]
	if !ok {
		verb = VerbUnknown
	}
	cmd.Verb = verb
	return cmd, true
}
