// Package logging configures the zerolog logger used across spvc.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type logKey struct{}

var nop = zerolog.Nop()

// Options controls where and how much is logged
type Options struct {
	// Console receives human-readable output, usually os.Stderr
	Console io.Writer

	// Color enables ANSI colours on the console
	Color bool

	// Verbose lowers the level to debug
	Verbose bool

	// Quiet limits the console to warnings and errors; the log file still gets everything
	Quiet bool

	// LogFile, when set, also receives every event as a JSON line
	LogFile string
}

// New builds a logger from opts. The returned closer releases the log file, if any.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var consoleWriter io.Writer = NewConsoleWriter(console, opts.Color)
	if opts.Quiet {
		consoleWriter = &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: consoleWriter},
			Level:  zerolog.WarnLevel,
		}
	}

	writers := []io.Writer{consoleWriter}
	var closer io.Closer = nopCloser{}

	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, eris.Wrapf(err, "failed to open log file %s", opts.LogFile)
		}

		writers = append(writers, f)
		closer = f
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	return logger, closer, nil
}

// WithLogger attaches the given logger to the context
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}

// FromContext returns the logger attached to ctx, or a disabled logger
func FromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(logKey{}).(*zerolog.Logger); ok {
		return logger
	}

	return &nop
}

func init() {
	setErrorMarshal(os.Getenv("SPVC_DEBUG") != "")
}

// setErrorMarshal renders errors through eris, with stack traces when trace is set
func setErrorMarshal(trace bool) {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, trace)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
