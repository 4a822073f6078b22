package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coursemirror/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "default level", cfg: &config.LoggingConfig{}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "verbose"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewWithFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mirror.log")

	l, err := New(&config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	l.WithField("url", "https://portal.example/c/1").Info("page fetched")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "page fetched")
	assert.Contains(t, string(data), `"url":"https://portal.example/c/1"`)
	assert.Contains(t, string(data), `"app":"coursemirror"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("warn", &buf)
	require.NoError(t, err)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("debug", &buf)
	require.NoError(t, err)

	l.WithField("depth", 2).
		WithFields(map[string]interface{}{"url": "https://portal.example/f", "folder": true}).
		InfoWithFields("entering folder", map[string]interface{}{"label": "Week 1"})

	out := buf.String()
	assert.Contains(t, out, "entering folder")
	assert.Contains(t, out, `"depth":2`)
	assert.Contains(t, out, `"url":"https://portal.example/f"`)
	assert.Contains(t, out, `"folder":true`)
	assert.Contains(t, out, `"label":"Week 1"`)
}

func TestChildDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("info", &buf)
	require.NoError(t, err)

	_ = l.WithField("child", "yes")
	l.Info("parent message")

	assert.NotContains(t, buf.String(), "child")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter("info", &buf)
	require.NoError(t, err)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("connection reset")).Error("download failed")
	out := buf.String()
	assert.Contains(t, out, "download failed")
	assert.Contains(t, out, "connection reset")
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "disabled"}))
	assert.NotNil(t, GetLogger())

	// Must not panic with a disabled sink.
	Info("info message")
	Error("error message")
	WithField("key", "value").Info("with field")
	WithError(errors.New("boom")).Error("with error")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithField("a", 1).WithError(errors.New("x")).ErrorWithFields("ignored", nil)
	assert.NotNil(t, l.WithFields(nil))
}

func TestTestLogger(t *testing.T) {
	l := NewTestLogger()

	l.Info("started")
	l.WithField("url", "u1").Warn("skipped")
	l.WithError(errors.New("bad")).ErrorWithFields("failed", map[string]interface{}{"code": 500})

	assert.True(t, l.HasMessage("started"))
	assert.True(t, l.HasError())
	assert.Len(t, l.GetMessages(), 3)

	warns := l.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "u1", warns[0].Fields["url"])

	errs := l.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, 500, errs[0].Fields["code"])
	assert.EqualError(t, errs[0].Error, "bad")
	assert.True(t, strings.Contains(l.String(), "[ERROR] failed"))
}
