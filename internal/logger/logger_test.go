package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dailyfeed.log")
	l, err := Init(path, "debug")
	require.NoError(t, err)
	t.Cleanup(func() { Set(nil) })

	l.Info("catalog loaded")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "catalog loaded"))
	assert.True(t, strings.Contains(string(data), `"service":"dailyfeed"`))
}

func TestInitWithoutPathIsNop(t *testing.T) {
	l, err := Init("", "info")
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.Same(t, l, Get())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
