package compiler

import "time"

// Result describes the outcome of compiling one shader
type Result struct {
	Source string
	Output string

	// Command is nil for shaders that were never invoked
	Command *ShellCommand

	// ExitCode is the compiler's exit status, or -1 if it never ran to completion
	ExitCode int

	// Log holds the compiler's combined stdout and stderr
	Log []byte

	Duration time.Duration

	// Cached is set when the artifact was restored from the build cache
	Cached bool

	// Skipped is set when the build was cancelled before this shader ran
	Skipped bool

	Err error
}

// Success reports whether the shader's artifact is up to date
func (r *Result) Success() bool {
	return r.Err == nil && !r.Skipped
}
