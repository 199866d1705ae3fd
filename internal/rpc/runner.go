// Package rpc invokes the building service through its command-line client.
// Each call is one subprocess; callers inspect the exit code and the captured
// output rather than a decoded response.
package rpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result is the captured outcome of one client invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Combined joins stdout and stderr the way handle extraction expects.
func (r Result) Combined() string {
	return r.Stdout + "\n" + r.Stderr
}

// Runner executes the client binary. Run returns an error only when the
// process could not be started or was interrupted; a non-zero exit is
// reported through Result.ExitCode.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, name, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	err := command.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	case ctx.Err() != nil:
		return result, fmt.Errorf("running %s: %w", name, ctx.Err())
	default:
		return result, fmt.Errorf("running %s: %w", name, err)
	}
}
