package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level   string // debug|info|warn|error
	Format  string // json|console
	Service string
}

func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		l = l.Str("service", cfg.Service)
	}
	return l.Logger()
}

func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// GooseLogger adapts a zerolog.Logger to goose's Printf/Fatalf logger.
type GooseLogger struct {
	Log zerolog.Logger
}

func (g GooseLogger) Printf(format string, v ...any) {
	g.Log.Info().Msgf(strings.TrimSpace(format), v...)
}

func (g GooseLogger) Fatalf(format string, v ...any) {
	g.Log.Fatal().Msgf(strings.TrimSpace(format), v...)
}
