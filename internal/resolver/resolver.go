// Package resolver maps a zettel ID to a file path by asking an external
// "zk prepare" process.
package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Result is the captured outcome of one resolver invocation.
type Result struct {
	Stdout   string
	ExitCode int
}

// OK reports whether the process exited successfully.
func (r Result) OK() bool { return r.ExitCode == 0 }

// Path returns the candidate file path: stdout trimmed of surrounding whitespace.
func (r Result) Path() string { return strings.TrimSpace(r.Stdout) }

// Resolver prepares a zettel and reports where its file lives.
type Resolver interface {
	Prepare(ctx context.Context, id string) (Result, error)
}

// Process runs "<Command> prepare <id>" and captures its stdout and exit status.
type Process struct {
	Command string
	// Args are inserted between Command and "prepare", e.g. ["-Z", "/notes"].
	Args   []string
	Dir    string
	Logger *slog.Logger
}

var _ Resolver = (*Process)(nil)

// NewProcess returns a Process invoking command.
func NewProcess(command string, logger *slog.Logger, args ...string) *Process {
	if logger == nil {
		logger = slog.Default()
	}
	return &Process{Command: command, Args: args, Logger: logger}
}

// Prepare blocks until the process exits. A non-zero exit status is not
// an error; it is reported through Result.ExitCode. The error return is
// reserved for failures to start the process at all.
func (p *Process) Prepare(ctx context.Context, id string) (Result, error) {
	args := append(append([]string{}, p.Args...), "prepare", id)
	cmd := exec.CommandContext(ctx, p.Command, args...)
	cmd.Dir = p.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		p.Logger.Debug("resolver: prepare exited non-zero",
			slog.String("id", id),
			slog.Int("exit_code", res.ExitCode),
			slog.String("stderr", strings.TrimSpace(stderr.String())))
	default:
		return Result{}, fmt.Errorf("resolver: run %s: %w", p.Command, err)
	}
	return res, nil
}

// Func adapts a function to the Resolver interface.
type Func func(ctx context.Context, id string) (Result, error)

// Prepare calls f.
func (f Func) Prepare(ctx context.Context, id string) (Result, error) { return f(ctx, id) }
