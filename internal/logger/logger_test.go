package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/segyhp/claimant-engine/internal/config"
)

func TestNew(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "DEBUG", Format: "console"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = New(config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	_, err = New(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
