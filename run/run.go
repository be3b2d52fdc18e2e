// Package run executes the external storage-element tools that back the
// drivers. It captures combined output, retries flaky commands, and maps
// tool exit codes onto caller-supplied sentinel errors.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result represents the result of a command execution.
type Result struct {
	// Output is the combined stdout and stderr of the command.
	Output string

	// ExitCode is the exit code returned by the command.
	ExitCode int
}

// Lines splits the output into non-empty lines.
func (r *Result) Lines() []string {
	var lines []string
	for _, line := range strings.Split(r.Output, "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ExitError reports a command that ran and exited non-zero, or failed to
// start at all.
type ExitError struct {
	// Cmd is the full command that was executed, including arguments.
	Cmd []string

	// ExitCode is the exit code returned by the command, or -1 when it
	// never started.
	ExitCode int

	// Output is the combined output captured before the failure.
	Output string

	// Err is the underlying error from the execution.
	Err error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.ExitCode < 0 && e.Err != nil {
		return fmt.Sprintf("command %q failed: %v", strings.Join(e.Cmd, " "), e.Err)
	}
	return fmt.Sprintf("command %q failed with exit code %d", strings.Join(e.Cmd, " "), e.ExitCode)
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Classify maps the exit code of err onto a sentinel from codes. The
// sentinel wraps the original error so the full command and output stay
// reachable via errors.Unwrap. Errors without an exit code mapping pass
// through unchanged.
func Classify(err error, codes map[int]error) error {
	if err == nil {
		return nil
	}
	var exit *ExitError
	if !errors.As(err, &exit) {
		return err
	}
	if sentinel, ok := codes[exit.ExitCode]; ok {
		return &classified{sentinel: sentinel, cause: err}
	}
	return err
}

type classified struct {
	sentinel error
	cause    error
}

func (c *classified) Error() string { return c.sentinel.Error() + ": " + c.cause.Error() }

func (c *classified) Unwrap() []error { return []error{c.sentinel, c.cause} }

// Runner executes commands with a fixed configuration: an environment
// overlay on top of the process environment, a retry policy, and an
// optional dry mode in which commands are logged but never run.
type Runner struct {
	env      map[string]string
	dry      bool
	attempts int
	sleep    time.Duration
	log      *zap.Logger
}

// Option configures a Runner at creation time.
type Option func(*Runner)

// WithEnv overlays environment variables on top of the process
// environment for every command.
func WithEnv(env map[string]string) Option {
	return func(r *Runner) {
		for k, v := range env {
			r.env[k] = v
		}
	}
}

// WithDry logs commands instead of running them. Every dry run reports
// success with the output "<dry output>".
func WithDry() Option {
	return func(r *Runner) {
		r.dry = true
	}
}

// WithAttempts sets the number of tries per command. Values below one
// mean a single try.
func WithAttempts(n int) Option {
	return func(r *Runner) {
		r.attempts = n
	}
}

// WithRetrySleep sets the pause between attempts.
func WithRetrySleep(d time.Duration) Option {
	return func(r *Runner) {
		r.sleep = d
	}
}

// WithLogger attaches a logger to the runner.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// New creates a Runner. The zero configuration runs each command once
// with the process environment.
func New(opts ...Option) *Runner {
	r := &Runner{
		env:      make(map[string]string),
		attempts: 1,
		sleep:    10 * time.Second,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.attempts < 1 {
		r.attempts = 1
	}
	return r
}

// Run executes args, retrying per the runner's policy. On success the
// combined output is returned; after the last failed attempt the error is
// an *ExitError carrying the exit code and captured output.
func (r *Runner) Run(ctx context.Context, args ...string) (*Result, error) {
	return r.RunAttempts(ctx, r.attempts, args...)
}

// RunAttempts is Run with the number of tries overridden per call, used
// for transfers whose retry count comes from per-operation options.
func (r *Runner) RunAttempts(ctx context.Context, attempts int, args ...string) (*Result, error) {
	if len(args) == 0 {
		return nil, &ExitError{Cmd: args, ExitCode: -1, Err: osexec.ErrNotFound}
	}
	if r.dry {
		r.log.Info("dry run", zap.Strings("cmd", args))
		return &Result{Output: "<dry output>", ExitCode: 0}, nil
	}
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			r.log.Warn("retrying command",
				zap.Strings("cmd", args),
				zap.Int("attempt", attempt),
				zap.Int("attempts", attempts))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.sleep):
			}
		}

		res, err := r.runOnce(ctx, args)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (r *Runner) runOnce(ctx context.Context, args []string) (*Result, error) {
	r.log.Debug("running command", zap.Strings("cmd", args))
	cmd := osexec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = os.Environ()
	for k, v := range r.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	out, err := cmd.CombinedOutput()
	output := string(out)
	if err == nil {
		return &Result{Output: output, ExitCode: 0}, nil
	}

	exitCode := -1
	var exit *osexec.ExitError
	if errors.As(err, &exit) {
		exitCode = exit.ExitCode()
	}
	r.log.Debug("command failed",
		zap.Strings("cmd", args),
		zap.Int("exit_code", exitCode),
		zap.String("output", output))
	return nil, &ExitError{Cmd: args, ExitCode: exitCode, Output: output, Err: err}
}
