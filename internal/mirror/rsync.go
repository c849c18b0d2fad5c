package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/rpmrelay/rpmrelay/internal/shell"
)

// RsyncUserEnv overrides the remote user for rsync transfers.
const RsyncUserEnv = "RSYNC_USERNAME"

// RsyncMirror transfers the repository with rsync.
type RsyncMirror struct {
	location string
	runner   shell.Runner
}

// NewRsyncMirror mirrors against an rsync location such as
// "repos.example.com/f42/". With RSYNC_USERNAME set in the environment the
// user is prefixed onto the location.
func NewRsyncMirror(location string, runner shell.Runner) *RsyncMirror {
	if user := os.Getenv(RsyncUserEnv); user != "" {
		slog.Info("using rsync username from environment", "user", user)
		location = user + "@" + location
	}
	return &RsyncMirror{location: location, runner: runner}
}

func (m *RsyncMirror) Location() string { return m.location }

func (m *RsyncMirror) Pull(ctx context.Context, dest string) error {
	res, err := m.runner.Run(ctx, shell.Command("rsync", "-avtz", m.location, dest))
	if err != nil {
		return fmt.Errorf("rsync pull from %s: %s: %w", m.location, res.Output, err)
	}
	slog.Debug("rsync pull finished", "from", m.location)
	return nil
}

// Push mirrors src back to the remote, deleting remote files that are gone
// locally.
func (m *RsyncMirror) Push(ctx context.Context, src string) error {
	res, err := m.runner.Run(ctx, shell.Command("rsync", "-avtz", "--delete", src+"/", m.location))
	if err != nil {
		return fmt.Errorf("rsync push to %s: %s: %w", m.location, res.Output, err)
	}
	slog.Debug("rsync push finished", "to", m.location)
	return nil
}
