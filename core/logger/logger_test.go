package logger

import (
	"bytes"
	"testing"

	"github.com/josephlewis42/pipesh/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, config.Logging{Level: "info", Format: "json"})
		require.NoError(t, err)

		logger.Debug("hidden")
		logger.Info("spawned", "cmd", "ls")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"cmd":"ls"`)
	})

	t.Run("logfmt", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, config.Logging{Level: "debug", Format: "logfmt"})
		require.NoError(t, err)

		logger.Debug("stage", "name", "each")
		assert.Contains(t, buf.String(), "name=each")
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := New(&bytes.Buffer{}, config.Logging{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := New(&bytes.Buffer{}, config.Logging{Level: "info", Format: "xml"})
		assert.Error(t, err)
	})
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().Error("dropped")
	})
}
