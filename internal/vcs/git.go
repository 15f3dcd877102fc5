// Package vcs runs git and interactive shells inside the kasten directory.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// CommandError reports a subprocess that failed or exited non-zero.
type CommandError struct {
	Cmd    string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("`%s`: %v", e.Cmd, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Runner executes commands with a fixed working directory.
type Runner struct {
	Dir    string
	Logger *slog.Logger
	// Stdin, Stdout and Stderr are used by Interactive and Stream.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner returns a Runner rooted at dir, attached to the process stdio.
func NewRunner(dir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Dir: dir, Logger: logger, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Output runs name with args and returns its combined output.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	line := strings.Join(append([]string{name}, args...), " ")
	r.Logger.Debug("vcs: run", slog.String("cmd", line), slog.String("dir", r.Dir))
	if err := cmd.Run(); err != nil {
		return out.String(), &CommandError{Cmd: line, Output: out.String(), Err: err}
	}
	return out.String(), nil
}

// Stream runs name with its output copied to the runner's Stdout and
// Stderr as it is produced. The combined output is also kept so a
// failure carries it in CommandError.Output.
func (r *Runner) Stream(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	var out lockedBuffer
	cmd.Stdout = io.MultiWriter(writerOrDiscard(r.Stdout), &out)
	cmd.Stderr = io.MultiWriter(writerOrDiscard(r.Stderr), &out)

	line := strings.Join(append([]string{name}, args...), " ")
	r.Logger.Debug("vcs: run", slog.String("cmd", line), slog.String("dir", r.Dir))
	if err := cmd.Run(); err != nil {
		return &CommandError{Cmd: line, Output: out.String(), Err: err}
	}
	return nil
}

// lockedBuffer is written to by the stdout and stderr copy goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// Interactive runs name attached to the runner's stdio.
func (r *Runner) Interactive(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return &CommandError{Cmd: strings.Join(append([]string{name}, args...), " "), Err: err}
	}
	return nil
}

// Shell starts an interactive $SHELL, or runs command with "sh -c".
func (r *Runner) Shell(ctx context.Context, command string) error {
	if command != "" {
		return r.Interactive(ctx, "sh", "-c", command)
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "sh"
	}
	return r.Interactive(ctx, shell)
}

// Git wraps the git operations used by "zk sync".
type Git struct {
	r *Runner
}

// NewGit returns a Git operating in r's directory.
func NewGit(r *Runner) *Git { return &Git{r: r} }

// HasChanges reports whether the work tree has uncommitted changes,
// including untracked files.
func (g *Git) HasChanges(ctx context.Context) (bool, error) {
	out, err := g.r.Output(ctx, "git", "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitAll stages every change and commits it with msg.
func (g *Git) CommitAll(ctx context.Context, msg string) error {
	if _, err := g.r.Output(ctx, "git", "add", "-A"); err != nil {
		return err
	}
	return g.r.Stream(ctx, "git", "commit", "-q", "-m", msg)
}

// FetchAndRebase pulls remote changes, rebasing local commits on top.
func (g *Git) FetchAndRebase(ctx context.Context) error {
	return g.r.Stream(ctx, "git", "pull", "--rebase")
}

// Push pushes the current branch.
func (g *Git) Push(ctx context.Context) error {
	return g.r.Stream(ctx, "git", "push")
}

// Sync commits pending changes, rebases on the remote, and pushes.
func (g *Git) Sync(ctx context.Context, now time.Time) error {
	dirty, err := g.HasChanges(ctx)
	if err != nil {
		return err
	}
	if dirty {
		msg := "zk sync " + now.Format(time.RFC3339)
		if err := g.CommitAll(ctx, msg); err != nil {
			return err
		}
		g.r.Logger.Info("committed local changes", slog.String("message", msg))
	}
	if err := g.FetchAndRebase(ctx); err != nil {
		return err
	}
	return g.Push(ctx)
}
