package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json output carries level and fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "debug", "json")
		require.NoError(t, err)

		logger.Debug().Str("event", "checkin").Msg("guest arrived")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "debug", line["level"])
		assert.Equal(t, "checkin", line["event"])
		assert.Equal(t, "guest arrived", line["message"])
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "warn", "json")
		require.NoError(t, err)

		logger.Info().Msg("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("console output", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "", "console")
		require.NoError(t, err)

		logger.Info().Msg("listening")
		assert.Contains(t, buf.String(), "listening")
	})

	t.Run("rejects bad level and format", func(t *testing.T) {
		_, err := New(nil, "loud", "json")
		assert.Error(t, err)

		_, err = New(nil, "info", "xml")
		assert.Error(t, err)
	})
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	ctx = WithComponent(ctx, "api", "lotus")
	zerolog.Ctx(ctx).Info().Msg("ready")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "api", line["component"])
	assert.Equal(t, "lotus", line["hotel"])
}
