package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogger builds the application logger. Logs rotate in s.LogDir; when
// the directory cannot be created the logger falls back to stderr only.
// The returned closer stops the rotating writer.
func SetupLogger(s Settings) (*slog.Logger, io.Closer) {
	level := slog.LevelInfo
	if s.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if err := os.MkdirAll(s.LogDir, 0o755); err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		logger.Warn("log directory unavailable, logging to stderr", "dir", s.LogDir, "error", err)
		return logger, io.NopCloser(nil)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(s.LogDir, "draftvault.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}
	return slog.New(slog.NewJSONHandler(rotator, opts)), rotator
}
