// Package shelltest provides a scripted shell.Runner for tests. Commands
// are matched against rules by substring of their rendered form; unmatched
// commands succeed with empty output.
package shelltest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rpmrelay/rpmrelay/internal/shell"
)

// Rule scripts the outcome of commands whose rendered line contains Match.
// The first matching rule wins. A non-zero ExitCode makes Run return an
// error alongside the result, like a real failed command. Do, when set,
// runs on every match so tests can mimic filesystem side effects of the
// real command (a checkout appearing, results landing in a directory).
type Rule struct {
	Match    string
	Output   string
	ExitCode int
	Do       func(c shell.Cmd)
}

type Runner struct {
	mu          sync.Mutex
	rules       []Rule
	calls       []shell.Cmd
	interactive []shell.Cmd
}

func New(rules ...Rule) *Runner {
	return &Runner{rules: rules}
}

func (r *Runner) Run(_ context.Context, c shell.Cmd) (shell.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)

	line := c.String()
	for _, rule := range r.rules {
		if strings.Contains(line, rule.Match) {
			if rule.Do != nil {
				rule.Do(c)
			}
			res := shell.Result{Output: rule.Output, ExitCode: rule.ExitCode}
			if rule.ExitCode != 0 {
				return res, fmt.Errorf("%s: exit status %d", c.Name, rule.ExitCode)
			}
			return res, nil
		}
	}
	return shell.Result{}, nil
}

func (r *Runner) RunInteractive(_ context.Context, c shell.Cmd) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interactive = append(r.interactive, c)
	return nil
}

// Ran reports whether any captured command line contains substr.
func (r *Runner) Ran(substr string) bool {
	for _, line := range r.CommandLines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// CommandLines returns the rendered command lines in call order.
func (r *Runner) CommandLines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := make([]string, len(r.calls))
	for i, c := range r.calls {
		lines[i] = c.String()
	}
	return lines
}

// Calls returns the captured commands in call order.
func (r *Runner) Calls() []shell.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shell.Cmd(nil), r.calls...)
}

// InteractiveCalls returns the commands run through RunInteractive.
func (r *Runner) InteractiveCalls() []shell.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shell.Cmd(nil), r.interactive...)
}
