package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelSet(t *testing.T) {
	var ll LogLevel
	require.NoError(t, ll.Set("DEBUG"))
	assert.Equal(t, DEBUG, ll)
	assert.Equal(t, "LogLevel", ll.Type())

	err := ll.Set("loud")
	assert.ErrorContains(t, err, "trace, debug, info, warn, error, disabled")
	assert.Equal(t, DEBUG, ll)

	level, err := DISABLED.Zerolog()
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, level)
}

func TestInitWithLogFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	path := filepath.Join(t.TempDir(), "mercator.log")
	require.NoError(t, InitWithLogLevel(WARN, path))
	defer Close()

	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "kept")
	assert.NotContains(t, string(b), "dropped")
}
