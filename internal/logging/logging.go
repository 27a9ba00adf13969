package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const serviceName = "stock-sentinel"

// New returns a zerolog logger configured for stdout at info level.
func New() zerolog.Logger {
	return NewWithLevel("info")
}

// NewWithLevel returns a stdout logger filtered at the given level.
// Unrecognized levels fall back to info.
func NewWithLevel(level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter returns a JSON logger writing to w, stamped with the service
// name and a timestamp on every event.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// parseLevel accepts zerolog level names plus "warning". Anything else,
// including numeric and disabled levels, falls back to info.
func parseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		return zerolog.WarnLevel
	}
	parsed, err := zerolog.ParseLevel(name)
	if err != nil || parsed < zerolog.TraceLevel || parsed > zerolog.PanicLevel {
		return zerolog.InfoLevel
	}
	return parsed
}
