package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, ParseLevel(LOG_LEVEL_DEBUG))
	require.Equal(t, zerolog.WarnLevel, ParseLevel(LOG_LEVEL_WARN))
	require.Equal(t, zerolog.ErrorLevel, ParseLevel(LOG_LEVEL_ERROR))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestNewLoggerToRespectsLevel(t *testing.T) {
	t.Setenv(LogLevelEnv, LOG_LEVEL_WARN)
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "Estimator")

	log.Info().Msg("hidden")
	require.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "Estimator", line["component"])
	require.Equal(t, "shown", line["message"])
}
