// Package release implements the publication engine: planning and copying
// packaging files into a backing build system's checkout, gating commits on
// operator review, and submitting builds. Each backing system is one
// Releaser variant over the same shared machinery.
package release

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/rpmrelay/rpmrelay/internal/shell"
	"github.com/rpmrelay/rpmrelay/internal/workspace"
)

var warnTag = color.New(color.FgHiYellow, color.Bold).Sprint("WARNING:")

// Session carries the per-run state threaded through every release
// component. Nothing in the engine reads run state from globals.
type Session struct {
	RunID    string
	Project  string
	Workdir  *workspace.Workspace
	Runner   shell.Runner
	Operator Operator
	DryRun   bool

	phase Phase
}

func NewSession(project string, wd *workspace.Workspace, runner shell.Runner, op Operator) *Session {
	return &Session{
		RunID:    uuid.NewString(),
		Project:  project,
		Workdir:  wd,
		Runner:   runner,
		Operator: op,
		phase:    PhaseConfigured,
	}
}

// Advance records a lifecycle transition.
func (s *Session) Advance(p Phase) {
	s.phase = p
	slog.Debug("release phase", "run", s.RunID, "project", s.Project, "phase", p.String())
}

func (s *Session) Phase() Phase { return s.phase }

// Abort ends the run in PhaseAborted, keeping the phase it failed in
// visible in the log.
func (s *Session) Abort(err error) {
	if errors.Is(err, ErrUserAborted) {
		slog.Warn("release aborted on operator request",
			"run", s.RunID, "project", s.Project, "during", s.phase.String())
	} else {
		slog.Error("release aborted",
			"run", s.RunID, "project", s.Project, "during", s.phase.String(), "error", err)
	}
	s.phase = PhaseAborted
}

// WarnDryRun announces an action suppressed by --dry-run.
func (s *Session) WarnDryRun(what string) {
	fmt.Printf("\n%s Skipping command due to --dry-run: %s\n\n", warnTag, what)
}
