package decompiler

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Invocation captures one finished decompiler process.
type Invocation struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Invoker abstracts launching the decompiler for testability.
//
// Invoke returns an error only when the process could not be started or was
// interrupted; a process that ran and exited non-zero is reported through
// Invocation.ExitCode with a nil error.
type Invoker interface {
	Invoke(ctx context.Context, workingDir, argument string) (Invocation, error)
}

// CommandInvoker launches Binary as a child process.
type CommandInvoker struct {
	Binary string
}

func (c CommandInvoker) Invoke(ctx context.Context, workingDir, argument string) (Invocation, error) {
	cmd := exec.CommandContext(ctx, c.Binary, argument) //nolint:gosec
	cmd.Dir = workingDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	inv := Invocation{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return inv, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		inv.ExitCode = -1
		return inv, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		inv.ExitCode = exitErr.ExitCode()
		return inv, nil
	}
	return inv, &StartError{Binary: c.Binary, Err: err}
}

// StartError reports that the decompiler process could not be launched.
type StartError struct {
	Binary string
	Err    error
}

func (e *StartError) Error() string {
	return "start " + e.Binary + ": " + e.Err.Error()
}

func (e *StartError) Unwrap() error { return e.Err }
