package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ok      bool
		verb    Verb
		args    []string
	}{
		{"bare prefix joins", "!r", true, VerbJoin, nil},
		{"explicit join", "!r join", true, VerbJoin, []string{}},
		{"pause", "!r pause", true, VerbPause, []string{}},
		{"next", "!r next", true, VerbNext, []string{}},
		{"prev", "!r prev", true, VerbPrev, []string{}},
		{"play with id", "!r play 3", true, VerbPlay, []string{"3"}},
		{"play without id", "!r play", true, VerbPlay, []string{}},
		{"info", "!r info", true, VerbInfo, []string{}},
		{"quit", "!r quit", true, VerbQuit, []string{}},
		{"help", "!r help", true, VerbHelp, []string{}},
		{"unknown verb", "!r vol 50", true, VerbUnknown, []string{"50"}},
		{"verbs are case sensitive", "!r PAUSE", true, VerbUnknown, []string{}},
		{"extra whitespace", "!r   play\t7 ", true, VerbPlay, []string{"7"}},
		{"leading whitespace", "  !r play 7", false, 0, nil},
		{"leading newline", "\n!r pause", false, 0, nil},
		{"prefix glued to text", "!rplay 3", false, 0, nil},
		{"other prefix", "!play 3", false, 0, nil},
		{"plain chat", "hello there", false, 0, nil},
		{"empty", "", false, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := Parse(DefaultPrefix, tt.content)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.verb, cmd.Verb)
			assert.Equal(t, tt.args, cmd.Args)
		})
	}
}

func TestParseCustomPrefix(t *testing.T) {
	cmd, ok := Parse("!mpd", "!mpd next")
	assert.True(t, ok)
	assert.Equal(t, VerbNext, cmd.Verb)

	_, ok = Parse("!mpd", "!r next")
	assert.False(t, ok)
}

func TestVerbString(t *testing.T) {
	assert.Equal(t, "play", VerbPlay.String())
	assert.Equal(t, "join", VerbJoin.String())
	assert.Equal(t, "unknown", VerbUnknown.String())
}
