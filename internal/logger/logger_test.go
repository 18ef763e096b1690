package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestParseLogFormat(t *testing.T) {
	f, err := ParseLogFormat("Text")
	require.NoError(t, err)
	assert.Equal(t, LogFormatText, f)

	_, err = ParseLogFormat("xml")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	log := NewLogger(WithOutput(&buf), WithLevel(slog.LevelWarn))
	log.Info("hidden")
	log.Warn("shown", slog.String("worksheet", "users"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"worksheet":"users"`)

	buf.Reset()

	NewLogger(WithOutput(&buf), WithFormat(LogFormatText)).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
