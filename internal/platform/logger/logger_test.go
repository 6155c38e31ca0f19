package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("honours level", func(t *testing.T) {
		log, sync, err := New("production", "warn")
		require.NoError(t, err)
		defer func() { _ = sync() }()

		assert.False(t, log.Enabled(context.Background(), slog.LevelInfo))
		assert.True(t, log.Enabled(context.Background(), slog.LevelWarn))
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, _, err := New("development", "loud")
		require.Error(t, err)
	})
}
