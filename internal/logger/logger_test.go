package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"info":    zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"trace":   zerolog.TraceLevel,
		"off":     zerolog.Disabled,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestBuildJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Build(Config{Level: "debug", Component: "compile"}, &buf)

	log.Debug().Str("mode", "key").Msg("compiled")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "compiled", line["msg"])
	assert.Equal(t, "compile", line["component"])
	assert.Equal(t, "key", line["mode"])
	assert.Contains(t, line, "timestamp")
}

func TestBuildFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := Build(Config{Level: "warn"}, &buf)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestBuildConsole(t *testing.T) {
	var buf bytes.Buffer
	log := Build(Config{Console: true}, &buf)

	log.Info().Msg("registry loaded")
	assert.Contains(t, buf.String(), "registry loaded")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error().Msg("dropped")
}
