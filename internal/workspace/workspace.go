// Package workspace manages the scratch tree a release run checks code out
// into. Concurrent runs over the same tree are rejected with an exclusive
// file lock.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/rpmrelay/rpmrelay/internal/utils"
)

const (
	workdirName  = "relwork"
	lockFileName = ".relwork.lock"
)

var (
	// ErrLocked means another release run holds the scratch tree.
	ErrLocked = errors.New("scratch tree locked by another release run")

	// ErrCheckedOut means a previous checkout is still present and must be
	// removed by hand before releasing again.
	ErrCheckedOut = errors.New("scratch tree already contains a checkout")
)

// Workspace is the scratch tree for checkouts and temp files of a single
// release run.
type Workspace struct {
	Root       string // <buildDir>/relwork
	ProjectDir string // <Root>/<project>

	lock *flock.Flock
}

func New(buildDir, project string) (*Workspace, error) {
	root, err := utils.ResolvePath(filepath.Join(buildDir, workdirName))
	if err != nil {
		return nil, fmt.Errorf("resolve scratch tree: %w", err)
	}
	return &Workspace{
		Root:       root,
		ProjectDir: filepath.Join(root, project),
		lock:       flock.New(filepath.Join(root, lockFileName)),
	}, nil
}

// Prepare creates the scratch root and takes the exclusive lock.
func (w *Workspace) Prepare() error {
	if err := utils.EnsureDir(w.Root); err != nil {
		return fmt.Errorf("create scratch tree %s: %w", w.Root, err)
	}
	locked, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock scratch tree: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	slog.Debug("locked scratch tree", "path", w.Root)
	return nil
}

// VerifyNoCheckout fails when the project checkout already exists. A stale
// tree is never reused silently; the operator removes it first.
func (w *Workspace) VerifyNoCheckout() error {
	if utils.DirExists(w.ProjectDir) || utils.FileExists(w.ProjectDir) {
		return fmt.Errorf("%w: remove %s and try again", ErrCheckedOut, w.ProjectDir)
	}
	return nil
}

// TempDir creates a scratch subdirectory under the workspace root.
func (w *Workspace) TempDir(prefix string) (string, error) {
	if err := utils.EnsureDir(w.Root); err != nil {
		return "", err
	}
	return os.MkdirTemp(w.Root, prefix)
}

// Cleanup removes the project checkout and releases the lock. Best effort;
// failures are logged, not returned, so cleanup is safe on every exit path.
func (w *Workspace) Cleanup() {
	slog.Debug("cleaning up scratch tree", "dir", w.ProjectDir)
	if err := os.RemoveAll(w.ProjectDir); err != nil {
		slog.Warn("scratch tree cleanup failed", "dir", w.ProjectDir, "error", err)
	}
	w.Unlock()
}

// Unlock releases the run's lock and removes the lock file. A workspace
// that was never locked unlocks as a no-op.
func (w *Workspace) Unlock() {
	if !w.lock.Locked() {
		return
	}
	if err := w.lock.Unlock(); err != nil {
		slog.Warn("unlock scratch tree failed", "error", err)
		return
	}
	_ = os.Remove(w.lock.Path())
}
