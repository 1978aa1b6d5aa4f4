package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Production(t *testing.T) {
	logger, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer func() { _ = logger.Sync() }()

	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_Debug(t *testing.T) {
	logger, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer func() { _ = logger.Sync() }()

	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
