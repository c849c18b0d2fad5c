// Package shell runs the external commands a release shells out to. The
// release engine only talks to the Runner interface so tests can script
// command behavior without touching the system.
package shell

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Cmd describes one external command invocation.
type Cmd struct {
	Dir  string // working directory, empty means inherit
	Name string
	Args []string
	Env  []string // extra KEY=VALUE entries appended to the environment
}

func Command(name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args}
}

// In returns a copy of the command with its working directory set.
func (c Cmd) In(dir string) Cmd {
	c.Dir = dir
	return c
}

// WithEnv returns a copy of the command with extra environment entries.
func (c Cmd) WithEnv(kv ...string) Cmd {
	c.Env = append(c.Env[:len(c.Env):len(c.Env)], kv...)
	return c
}

// String renders the invocation roughly as a shell line, for logs and
// dry-run warnings.
func (c Cmd) String() string {
	parts := make([]string, 0, len(c.Env)+1+len(c.Args))
	parts = append(parts, c.Env...)
	parts = append(parts, c.Name)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}

// Result carries the captured output of a finished command.
type Result struct {
	Output   string // combined stdout and stderr
	ExitCode int
}

// Runner executes external commands.
type Runner interface {
	// Run executes c and captures its combined output. A non-zero exit
	// returns the Result alongside a non-nil error so callers can inspect
	// both the output and the code.
	Run(ctx context.Context, c Cmd) (Result, error)
	// RunInteractive executes c attached to the caller's terminal, for
	// editors and other programs that need a tty.
	RunInteractive(ctx context.Context, c Cmd) error
}

// ExecRunner is the os/exec backed Runner used outside of tests.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, c Cmd) (Result, error) {
	slog.Debug("exec", "cmd", c.String(), "dir", c.Dir)
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	out, err := cmd.CombinedOutput()
	res := Result{Output: string(out)}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		if res.ExitCode == 0 {
			// the command never ran
			res.ExitCode = -1
		}
		return res, fmt.Errorf("%s: %w", c.Name, err)
	}
	return res, nil
}

func (ExecRunner) RunInteractive(ctx context.Context, c Cmd) error {
	slog.Debug("exec interactive", "cmd", c.String(), "dir", c.Dir)
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}
