package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultLoggerIsUsableBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Sugar.Infof("not initialised yet: %d", 1)
	})
}

func TestInit(t *testing.T) {
	t.Cleanup(func() {
		require.NoError(t, Init("warn"))
	})

	require.NoError(t, Init("debug"))
	assert.True(t, Log.Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init(""))
	assert.False(t, Log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Log.Core().Enabled(zapcore.WarnLevel))

	assert.Error(t, Init("loud"))
}
