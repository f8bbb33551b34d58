package log

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu   sync.Mutex
	file *lumberjack.Logger
)

// Init initializes the global logger.
// It configures the zerolog default logger to write to the specified path (or
// stderr) at the specified level.
//
// path: Log file path. If empty, logs to stderr. Files are rotated and always
// contain JSON lines.
// level: Log level ("trace", "debug", "info", "warn", "error"). Defaults to "info".
// jsonOutput: Write JSON lines to stderr instead of console formatting.
func Init(path string, level string, jsonOutput bool) error {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}

	var w io.Writer
	switch {
	case path != "":
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    16, // Megabytes
			MaxBackups: 3,
		}
		w = file
	case jsonOutput:
		w = os.Stderr
	default:
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

// Close releases the log file opened by Init, if any. Later log calls fall
// back to stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	return err
}

// ParseLevel maps a configured level name to a zerolog level. Unknown names
// fall back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
