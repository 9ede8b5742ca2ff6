package logutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashagw/btrievedb/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewLogger(config.LogConfig{Level: tt.level, Format: "console"})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			assert.False(t, logger.Core().Enabled(tt.want-1))
		})
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "loud", Format: "console"})
	assert.Error(t, err)

	_, err = NewLogger(config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "btrievedb.log")
	logger, err := NewLogger(config.LogConfig{Level: "info", Format: "json", Filename: path, MaxSize: 1})
	require.NoError(t, err)

	logger.Info("opened store", zap.String("store", "MBBSEMU.DB"))
	logger.Debug("not written")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"opened store"`)
	assert.Contains(t, string(content), `"store":"MBBSEMU.DB"`)
	assert.NotContains(t, string(content), "not written")
}
