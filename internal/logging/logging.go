// Package logging builds the root zerolog logger and attaches it to contexts.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// New creates the root logger. format is "json" or "console".
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), errors.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if w == nil {
		w = os.Stderr
	}
	switch format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	case "json":
	default:
		return zerolog.Nop(), errors.Errorf("invalid log format %q (must be 'console' or 'json')", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// WithComponent returns ctx carrying a child of its logger tagged with component and hotel.
func WithComponent(ctx context.Context, component, hotel string) context.Context {
	logger := zerolog.Ctx(ctx).With().Str("component", component)
	if hotel != "" {
		logger = logger.Str("hotel", hotel)
	}
	return logger.Logger().WithContext(ctx)
}
