// Package logging builds the root zerolog logger shared by the server.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoice-desk/internal/config"
)

// New returns a logger writing to stdout, or to cfg.FilePath when set.
// A path without extension gets a dated ".log" suffix. The returned closer
// releases the log file and is a no-op for stdout.
func New(cfg config.LogConfig) (zerolog.Logger, io.Closer, error) {
	var target io.Writer = os.Stdout
	closer := io.Closer(nopCloser{})

	if cfg.FilePath != "" {
		path := cfg.FilePath
		if filepath.Ext(path) == "" {
			path = path + time.Now().Format("-2006-01-02") + ".log"
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		target = file
		closer = file
	}

	return zerolog.New(target).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger(), closer, nil
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
