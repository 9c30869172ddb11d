package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupJSON sets slog's default logger to use JSON output at the given level.
// When file is not empty, records are also written to a size-rotated log file.
// The returned closer releases the file handle and is a no-op otherwise.
func SetupJSON(level slog.Level, file string) io.Closer {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if file != "" {
		rotated := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotated)
		closer = rotated
	}

	logger := slog.New(
		slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}),
	)
	slog.SetDefault(logger)

	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
