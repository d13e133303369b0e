package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"github.com/korjavin/gkentei/config"
)

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// newLogHandler builds the handler for out, fanning out to a JSON log file
// when one is configured. The returned func closes the file.
func newLogHandler(lc config.LogConfig, out io.Writer) (slog.Handler, func() error, error) {
	level, err := parseLevel(lc.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	switch strings.ToLower(lc.Format) {
	case "", "text":
		console = slog.NewTextHandler(out, opts)
	case "json":
		console = slog.NewJSONHandler(out, opts)
	default:
		return nil, nil, fmt.Errorf("invalid log format %q", lc.Format)
	}

	if lc.File == "" {
		return console, func() error { return nil }, nil
	}

	f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slogmulti.Fanout(console, slog.NewJSONHandler(f, opts)), f.Close, nil
}

func setupLogging(lc config.LogConfig, out io.Writer) (func() error, error) {
	h, closer, err := newLogHandler(lc, out)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(h).With(slog.String("service", "gkentei")))
	return closer, nil
}
