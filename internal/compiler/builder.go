package compiler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Norgate-AV/spvc/internal/codes"
)

// Commander interface for testing
type Commander interface {
	Run() error
}

// exitCoder is satisfied by *exec.ExitError
type exitCoder interface {
	ExitCode() int
}

// CommandBuilder runs compiler invocations
type CommandBuilder struct {
	execCommand func(ctx context.Context, name string, args ...string) Commander
}

// NewCommandBuilder creates a new command builder
func NewCommandBuilder() *CommandBuilder {
	return &CommandBuilder{
		execCommand: func(ctx context.Context, name string, args ...string) Commander {
			return exec.CommandContext(ctx, name, args...)
		},
	}
}

// NewCommandBuilderWith creates a command builder backed by a custom process factory
func NewCommandBuilderWith(execCommand func(ctx context.Context, name string, args ...string) Commander) *CommandBuilder {
	return &CommandBuilder{execCommand: execCommand}
}

// ExecuteCommand runs one invocation and waits for it to exit.
// Failures are reported on the result, never returned.
func (cb *CommandBuilder) ExecuteCommand(ctx context.Context, sc *ShellCommand) *Result {
	var out bytes.Buffer

	c := cb.execCommand(ctx, sc.Path, sc.Args...)
	if cmd, ok := c.(*exec.Cmd); ok {
		cmd.Dir = sc.Dir
		cmd.Stdout = &out
		cmd.Stderr = &out
	}

	start := time.Now()
	err := c.Run()

	res := &Result{
		Source:   sc.Source,
		Output:   sc.Output,
		Command:  sc,
		Duration: time.Since(start),
		Log:      out.Bytes(),
	}

	if err == nil {
		return res
	}

	var exitErr exitCoder
	switch {
	case errors.As(err, &exitErr):
		code := exitErr.ExitCode()
		res.ExitCode = code
		if codes.IsSuccess(code) {
			return res
		}

		res.Err = eris.Wrapf(err, "%s: %s (exit code %d)", sc.Source, codes.GetErrorMessage(code), code)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		res.ExitCode = -1
		res.Err = eris.Wrapf(ErrCompilerNotFound, "%s: %s", sc.Source, sc.Path)
	default:
		res.ExitCode = -1
		res.Err = eris.Wrapf(err, "%s: failed to run compiler", sc.Source)
	}

	return res
}
