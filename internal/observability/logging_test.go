package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/dogfight/internal/config"
)

func TestNewLoggers_JSON(t *testing.T) {
	ls, err := NewLoggers(config.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.False(t, ls.Root().Core().Enabled(zapcore.DebugLevel), "debug must be disabled at info level")
	assert.True(t, ls.Root().Core().Enabled(zapcore.InfoLevel))
}

func TestNewLoggers_Console(t *testing.T) {
	ls, err := NewLoggers(config.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, ls.Root().Core().Enabled(zapcore.DebugLevel))
}

func TestNewLoggers_ComponentOverrides(t *testing.T) {
	ls, err := NewLoggers(config.LoggingConfig{
		Level:      "info",
		Format:     "json",
		Components: map[string]string{"relay": "debug", "ws": "error"},
	})
	require.NoError(t, err)

	assert.False(t, ls.Root().Core().Enabled(zapcore.DebugLevel), "root keeps its own level")
	assert.True(t, ls.For("relay").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, ls.For("ws").Core().Enabled(zapcore.WarnLevel))
	assert.True(t, ls.For("ws").Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, ls.For("lifecycle").Core().Enabled(zapcore.DebugLevel), "no override uses the root level")
	assert.True(t, ls.For("lifecycle").Core().Enabled(zapcore.InfoLevel))
}

func TestNewLoggers_InvalidLevel(t *testing.T) {
	_, err := NewLoggers(config.LoggingConfig{Level: "trace", Format: "json"})
	assert.Error(t, err)

	_, err = NewLoggers(config.LoggingConfig{Level: "info", Format: "json", Components: map[string]string{"relay": "loud"}})
	assert.Error(t, err)
}

func TestNewLoggers_InvalidFormat(t *testing.T) {
	_, err := NewLoggers(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewLoggers_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		ls, err := NewLoggers(config.LoggingConfig{Level: level, Format: "json"})
		require.NoError(t, err, "level %q should be valid", level)
		assert.NotNil(t, ls.For("relay"))
	}
}
