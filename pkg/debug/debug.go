// Package debug holds zerolog hooks and logger construction shared by the
// CLI and the language server.
package debug

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

const TimeFormat = "2006-01-02T15:04:05.0000Z"

// TimeHook stamps events with millisecond precision.
type TimeHook struct {
	Format string
}

func (h TimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := h.Format
	if format == "" {
		format = TimeFormat
	}
	e.Str("time", time.Now().UTC().Format(format))
}

// CallerHook records the first caller outside zerolog and this package.
type CallerHook struct {
	Color bool
}

func (h CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isLoggingFrame(frame.Function) {
			pkg, _ := SplitFuncName(frame.Function)
			e.Str("caller", FormatCaller(pkg, frame.File, frame.Line, h.Color))
			return
		}
		if !more {
			return
		}
	}
}

func isLoggingFrame(fn string) bool {
	return strings.HasPrefix(fn, "github.com/rs/zerolog") || strings.HasPrefix(fn, "github.com/walteh/emmetls/pkg/debug.")
}

// SplitFuncName splits a runtime function name such as
// `github.com/x/y/pkg.(*T).Method` into its package and function parts.
func SplitFuncName(name string) (pkg, function string) {
	slash := strings.LastIndexByte(name, '/')
	if slash < 0 {
		slash = 0
	}
	dot := strings.IndexByte(name[slash:], '.')
	if dot < 0 {
		return name, ""
	}
	return name[:slash+dot], name[slash+dot+1:]
}

// FormatCaller renders `pkg:file.go:line`, with the file in bold and the
// line in red when colorize is set.
func FormatCaller(pkg, path string, line int, colorize bool) string {
	file := filepath.Base(path)
	pkg = filepath.Base(pkg)
	if !colorize {
		return fmt.Sprintf("%s:%s:%d", pkg, file, line)
	}
	sep := color.New(color.Faint).Sprint(":")
	return pkg + sep + color.New(color.Bold).Sprint(file) + sep + color.New(color.FgHiRed, color.Bold).Sprint(line)
}

type Options struct {
	Level zerolog.Level
	// Console writes human readable lines instead of JSON.
	Console bool
	Color   bool
}

// NewLogger builds a logger over w with the time and caller hooks.
func NewLogger(w io.Writer, opts Options) zerolog.Logger {
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: !opts.Color, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).
		Level(opts.Level).
		Hook(TimeHook{}).
		Hook(CallerHook{Color: opts.Color && opts.Console})
}
