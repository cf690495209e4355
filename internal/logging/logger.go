// Package logging builds the slog loggers shared by the voxguide binaries.
package logging

import (
	"io"
	log "log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

var levels = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// ParseLevel maps a level name to a slog level, falling back to info.
func ParseLevel(name string) log.Level {
	if l, ok := levels[strings.ToLower(name)]; ok {
		return l
	}
	return log.LevelInfo
}

// New returns a tint logger writing to w, colored when w is a terminal.
// The "error" key is shortened to "err" so adapters and the engine log
// errors the same way.
func New(w io.Writer, level string) *log.Logger {
	return log.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w),
		ReplaceAttr: func(groups []string, a log.Attr) log.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// Setup installs a stderr logger as the slog default and returns it.
func Setup(level string) *log.Logger {
	l := New(os.Stderr, level)
	log.SetDefault(l)
	return l
}

func NewNop() *log.Logger {
	return log.New(log.NewTextHandler(io.Discard, nil))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
