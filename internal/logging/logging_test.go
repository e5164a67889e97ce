package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]struct {
		want zerolog.Level
		ok   bool
	}{
		"":        {zerolog.InfoLevel, false},
		"DEBUG":   {zerolog.DebugLevel, true},
		" warn ":  {zerolog.WarnLevel, true},
		"off":     {zerolog.Disabled, true},
		"verbose": {zerolog.InfoLevel, false},
	}
	for raw, tt := range tests {
		got, ok := parseLevel(raw)
		assert.Equal(t, tt.want, got, raw)
		assert.Equal(t, tt.ok, ok, raw)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "true")
	t.Setenv(EnvLogTimestamp, "nonsense")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	assert.Equal(t, zerolog.ErrorLevel, cfg.Level)
	assert.True(t, cfg.NoColor)
	assert.True(t, cfg.Timestamp)
}

func TestNewWritesConsoleLines(t *testing.T) {
	var buf bytes.Buffer
	logger := New("pipeline", Config{Level: zerolog.InfoLevel, NoColor: true, Out: &buf})

	logger.Debug().Msg("hidden")
	logger.Info().Str("target", "trees-dead").Msg("built")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "built")
	assert.Contains(t, out, "target=trees-dead")
	assert.Contains(t, out, "app=pipeline")
}
