package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zap.WarnLevel, parseLevel(" warning "))
	assert.Equal(t, zap.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zap.InfoLevel, parseLevel("verbose"))
}

func TestInitialize(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev; JSONOutput = false }()

	require.NoError(t, Initialize(true, "warn"))
	assert.True(t, JSONOutput)
	assert.False(t, Logger.Desugar().Core().Enabled(zap.InfoLevel))
	assert.True(t, Logger.Desugar().Core().Enabled(zap.ErrorLevel))

	require.NoError(t, Initialize(false, "debug"))
	assert.False(t, JSONOutput)
	assert.True(t, ComponentLogger("test").Desugar().Core().Enabled(zap.DebugLevel))
}
