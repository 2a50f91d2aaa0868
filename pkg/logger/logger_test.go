package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_WritesToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Out: &buf})

	logger.Info().Str("component", "test").Msg("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), `"component":"test"`)
}

func TestNew_AllLogLevels(t *testing.T) {
	testCases := []struct {
		level         string
		expectedLevel zerolog.Level
		name          string
	}{
		{"debug", zerolog.DebugLevel, "debug"},
		{"info", zerolog.InfoLevel, "info"},
		{"warn", zerolog.WarnLevel, "warn"},
		{"error", zerolog.ErrorLevel, "error"},
		{"unknown", zerolog.InfoLevel, "unknown defaults to info"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(Config{Level: tc.level, Out: &buf})

			assert.Equal(t, tc.expectedLevel, zerolog.GlobalLevel())
		})
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestNew_PrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Pretty: true, Out: &buf})

	logger.Info().Msg("test message")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.NotContains(t, output, `"message"`)
}

func TestNew_DebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Out: &buf})

	logger.Debug().Msg("hidden")

	assert.Empty(t, buf.String())
}
