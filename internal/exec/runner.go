// Package exec runs external commands on behalf of the built-in tools.
package exec

import (
	"context"
	"errors"
	osexec "os/exec"
)

// DefaultShell interprets Shell commands.
const DefaultShell = "bash"

// Result is the outcome of one command. ExitCode is -1 when the process
// never started or was killed.
type Result struct {
	Output   []byte
	ExitCode int
}

// Runner starts a command and collects its combined stdout/stderr.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
}

// OSRunner runs commands with os/exec.
type OSRunner struct{}

// NewRunner returns the process-backed Runner.
func NewRunner() OSRunner {
	return OSRunner{}
}

// Run implements Runner. A non-zero exit is reported both in the result and
// as an error.
func (OSRunner) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	res := Result{Output: out, ExitCode: 0}
	if err != nil {
		res.ExitCode = -1
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			res.ExitCode = exitErr.ExitCode()
		}
	}
	return res, err
}

// Shell runs command through DefaultShell -c.
func Shell(ctx context.Context, r Runner, dir, command string) (Result, error) {
	return r.Run(ctx, dir, DefaultShell, "-c", command)
}

// Available reports whether name resolves on PATH.
func Available(name string) bool {
	_, err := osexec.LookPath(name)
	return err == nil
}

var _ Runner = OSRunner{}
