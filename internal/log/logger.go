package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "videotube"

// New builds the process logger. Production writes JSON lines; other
// environments get the human-readable console format.
func New(environment, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if environment != "production" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(environment, level, out)
}

func NewWithWriter(environment, level string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	return zerolog.New(out).
		Level(parseLevel(environment, level)).
		With().
		Timestamp().
		Str("env", environment).
		Str("service", serviceName).
		Logger()
}

// parseLevel honours an explicit level and otherwise logs debug everywhere
// but production.
func parseLevel(environment, level string) zerolog.Level {
	if level = strings.TrimSpace(level); level != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
			return lvl
		}
	}
	if environment == "production" {
		return zerolog.InfoLevel
	}
	return zerolog.DebugLevel
}
