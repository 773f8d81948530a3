package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestForTagsComponent(t *testing.T) {
	prev, prevLevel := L, zerolog.GlobalLevel()
	t.Cleanup(func() {
		L = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Init(&buf, "info", "json")

	l := For("chat")
	l.Info().Msg("mounted")
	l.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, `"component":"chat"`)
	assert.Contains(t, out, `"message":"mounted"`)
	assert.NotContains(t, out, "hidden")
}
