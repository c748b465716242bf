package logger

import (
	"encoding/json"
	"gradebook_backend/internal/config"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestResolveLevel(t *testing.T) {
	cases := []struct {
		name, mode string
		want       zapcore.Level
	}{
		{"", "debug", zap.DebugLevel},
		{"", "release", zap.InfoLevel},
		{"warn", "debug", zap.WarnLevel},
		{"ERROR", "release", zap.ErrorLevel},
	}
	for _, c := range cases {
		got, err := resolveLevel(c.name, c.mode)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s/%s", c.name, c.mode)
	}

	_, err := resolveLevel("loud", "debug")
	assert.Error(t, err)
}

func TestBuildWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gradebook.log")
	l, err := Build(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, "release")
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("Tenant session opened", Tenant("KRE"))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "Tenant session opened", entry["msg"])
	assert.Equal(t, "KRE", entry["tenant"])
	assert.Equal(t, "INFO", entry["level"])
	assert.NotContains(t, string(data), "hidden")
}

func TestBuildRejectsUnknownLevel(t *testing.T) {
	_, err := Build(config.LogConfig{Level: "loud"}, "debug")
	assert.Error(t, err)
}
