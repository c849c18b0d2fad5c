package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpmrelay/rpmrelay/internal/shell"
)

// FileRegistrar registers a branch's sync result with the backing system:
// adding landed files and removing obsolete ones through its own commands
// so the changes are tracked.
type FileRegistrar interface {
	Register(ctx context.Context, dir string, plan *Plan) error
}

// BranchResult is the per-branch outcome of a fan-out sync.
type BranchResult struct {
	Branch   string
	New      []string
	Updated  []string
	Obsolete []string
}

// SyncAll reconciles every branch checkout in declared order. Branches are
// independent: a failure stops the fan-out, and already synced branches
// keep their state.
func SyncAll(ctx context.Context, files []string, branches []string, dirFor func(branch string) string, reg FileRegistrar) ([]BranchResult, error) {
	if len(branches) == 0 {
		return nil, errors.New("empty branch list")
	}
	results := make([]BranchResult, 0, len(branches))
	for _, branch := range branches {
		dir := dirFor(branch)
		slog.Info("syncing files", "branch", branch, "dir", dir)

		plan, err := PlanSync(files, dir)
		if err != nil {
			return results, fmt.Errorf("branch %s: %w", branch, err)
		}
		if err := ApplySync(plan); err != nil {
			return results, fmt.Errorf("branch %s: %w", branch, err)
		}
		if err := reg.Register(ctx, dir, plan); err != nil {
			return results, fmt.Errorf("branch %s: %w", branch, err)
		}
		results = append(results, BranchResult{
			Branch:   branch,
			New:      sortedSet(plan.New),
			Updated:  sortedSet(plan.Updated),
			Obsolete: sortedSet(plan.Obsolete),
		})
	}
	return results, nil
}

// MergeOps are the backing-system commands MergeForward drives. PushCmd
// returns the assembled command rather than running it so the merge loop
// can honor dry-run uniformly.
type MergeOps struct {
	Checkout func(ctx context.Context, branch string) error
	Merge    func(ctx context.Context, from string) error // merge from into the checked-out branch
	PushCmd  func(branch string) shell.Cmd
	Submit   func(ctx context.Context) error
}

// MergeForward propagates the released primary branch into each secondary
// branch in order: checkout, merge, push, build submission. A failure halts
// the remaining branches; branches already pushed keep their state.
func (s *Session) MergeForward(ctx context.Context, branches []string, ops MergeOps) error {
	primary := branches[0]
	for _, branch := range branches[1:] {
		slog.Info("merging branch", "from", primary, "into", branch)
		if err := ops.Checkout(ctx, branch); err != nil {
			return fmt.Errorf("checkout %s: %w", branch, err)
		}
		if err := ops.Merge(ctx, primary); err != nil {
			return fmt.Errorf("merge %s into %s: %w", primary, branch, err)
		}

		push := ops.PushCmd(branch)
		if s.DryRun {
			s.WarnDryRun(push.String())
		} else if res, err := s.Runner.Run(ctx, push); err != nil {
			return fmt.Errorf("push %s: %s: %w", branch, res.Output, err)
		}

		if err := ops.Submit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// gitRegistrar stages sync results with git. Add failures are tolerated
// because an unchanged file stages to nothing; removal failures abort since
// a missed deletion would republish the file.
type gitRegistrar struct {
	runner shell.Runner
}

func (g *gitRegistrar) Register(ctx context.Context, dir string, plan *Plan) error {
	for _, name := range sortedSet(plan.New.Union(plan.Updated)) {
		if res, err := g.runner.Run(ctx, shell.Command("git", "add", name).In(dir)); err != nil {
			slog.Warn("git add failed", "file", name, "output", res.Output, "error", err)
		}
	}
	for _, name := range sortedSet(plan.Obsolete) {
		slog.Info("deleting obsolete file", "name", name)
		if res, err := g.runner.Run(ctx, shell.Command("git", "rm", name).In(dir)); err != nil {
			return fmt.Errorf("git rm %s: %s: %w", name, res.Output, err)
		}
	}
	return nil
}

// cvsRegistrar registers sync results with CVS. Only new files need an
// explicit add; updates are picked up by the commit.
type cvsRegistrar struct {
	runner shell.Runner
}

func (c *cvsRegistrar) Register(ctx context.Context, dir string, plan *Plan) error {
	for _, name := range sortedSet(plan.New) {
		if res, err := c.runner.Run(ctx, shell.Command("cvs", "add", name).In(dir)); err != nil {
			slog.Warn("cvs add failed", "file", name, "output", res.Output, "error", err)
		}
	}
	for _, name := range sortedSet(plan.Obsolete) {
		slog.Info("deleting obsolete file", "name", name)
		if res, err := c.runner.Run(ctx, shell.Command("cvs", "rm", "-Rf", name).In(dir)); err != nil {
			return fmt.Errorf("cvs rm %s: %s: %w", name, res.Output, err)
		}
	}
	return nil
}
