// Package logging builds the structured loggers used by the wmibo command.
//
// Logs go to stderr by default, so that they never mix with solver output on stdout.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
)

// Level is the minimum severity of logged messages.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel parses a level name, case insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
}

// Format is the rendering of log records.
type Format string

const (
	// FormatAuto is text on a terminal, JSON otherwise.
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatText, FormatJSON:
		return f, nil
	default:
		return FormatAuto, fmt.Errorf("invalid log format %q, expected auto, text or json", s)
	}
}

// Config configures New. The zero value logs info messages to stderr.
type Config struct {
	Level  Level
	Format Format
	// Output defaults to os.Stderr.
	Output io.Writer
	// RunID identifies a run in every record. A random one is generated if empty.
	RunID string
}

// New returns a logger for cfg.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.slogLevel()}
	var h slog.Handler
	if useJSON(cfg.Format, out) {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return slog.New(h).With("run_id", runID)
}

func useJSON(f Format, out io.Writer) bool {
	switch f {
	case FormatJSON:
		return true
	case FormatText:
		return false
	}
	return !IsTerminal(out)
}

// IsTerminal is true iff w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
