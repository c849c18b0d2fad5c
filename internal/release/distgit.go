package release

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/rpmrelay/rpmrelay/internal/builder"
	"github.com/rpmrelay/rpmrelay/internal/shell"
	"github.com/rpmrelay/rpmrelay/internal/utils"
)

const defaultDistGitClient = "fedpkg"

// distGitReleaser publishes into a git-backed package tree: clone, sync the
// primary branch, gate the commit on review, push, submit the build, then
// merge the release forward across the secondary branches.
type distGitReleaser struct {
	deps     Deps
	session  *Session
	branches []string
	client   string // dist-git client executable
}

func newDistGitReleaser(deps Deps) (Releaser, error) {
	if err := requireOptions(deps.Target, "branches"); err != nil {
		return nil, err
	}
	branches, err := branchList(deps.Target)
	if err != nil {
		return nil, err
	}
	client := deps.Target.Option("client")
	if client == "" {
		client = defaultDistGitClient
	}
	return &distGitReleaser{
		deps:     deps,
		session:  deps.Session,
		branches: branches,
		client:   client,
	}, nil
}

func (r *distGitReleaser) Cleanup() {
	r.session.Workdir.Cleanup()
}

func (r *distGitReleaser) Release(ctx context.Context, dryRun bool) error {
	if err := r.release(ctx, dryRun); err != nil {
		r.session.Abort(err)
		return err
	}
	return nil
}

func (r *distGitReleaser) release(ctx context.Context, dryRun bool) error {
	r.session.DryRun = dryRun
	ws := r.session.Workdir

	if err := ws.Prepare(); err != nil {
		return err
	}

	slog.Info("cloning package tree", "project", r.session.Project, "client", r.client)
	clone := shell.Command(r.client, "clone", r.session.Project).In(ws.Root)
	if res, err := r.session.Runner.Run(ctx, clone); err != nil {
		return fmt.Errorf("clone %s: %s: %w", r.session.Project, res.Output, err)
	}
	if err := r.switchBranch(ctx, r.branches[0]); err != nil {
		return err
	}
	r.session.Advance(PhasePrepared)

	if err := r.deps.Builder.SourceArchive(ctx); err != nil {
		return err
	}
	manifest := r.deps.Builder.Manifest()

	if err := r.syncPrimary(ctx, manifest); err != nil {
		return err
	}
	r.session.Advance(PhaseSynced)

	if err := r.uploadSources(ctx, manifest); err != nil {
		return err
	}
	if err := r.confirmCommitAndPush(ctx, manifest); err != nil {
		return err
	}

	sub := NewSubmitter(r.session)
	if _, err := sub.Submit(ctx, r.buildCmd()); err != nil {
		return err
	}
	r.session.Advance(PhaseSubmitted)

	checkout := ws.ProjectDir
	err := r.session.MergeForward(ctx, r.branches, MergeOps{
		Checkout: r.switchBranch,
		Merge: func(ctx context.Context, from string) error {
			res, err := r.session.Runner.Run(ctx, shell.Command("git", "merge", from).In(checkout))
			if err != nil {
				return fmt.Errorf("%s: %w", res.Output, err)
			}
			return nil
		},
		PushCmd: func(branch string) shell.Cmd {
			return shell.Command("git", "push", "origin", branch+":"+branch).In(checkout)
		},
		Submit: func(ctx context.Context) error {
			_, err := sub.Submit(ctx, r.buildCmd())
			return err
		},
	})
	if err != nil {
		return err
	}

	r.session.Advance(PhaseDone)
	return nil
}

func (r *distGitReleaser) switchBranch(ctx context.Context, branch string) error {
	cmd := shell.Command(r.client, "switch-branch", branch).In(r.session.Workdir.ProjectDir)
	if res, err := r.session.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("switch to branch %s: %s: %w", branch, res.Output, err)
	}
	return nil
}

func (r *distGitReleaser) syncPrimary(ctx context.Context, m *builder.Manifest) error {
	files, err := ListFilesToCopy(m, r.deps.Target.List("copy_patterns"))
	if err != nil {
		return err
	}
	checkout := r.session.Workdir.ProjectDir
	plan, err := PlanSync(files, checkout)
	if err != nil {
		return err
	}
	if err := ApplySync(plan); err != nil {
		return err
	}
	return (&gitRegistrar{runner: r.session.Runner}).Register(ctx, checkout, plan)
}

func (r *distGitReleaser) uploadSources(ctx context.Context, m *builder.Manifest) error {
	if len(m.Sources) == 0 {
		slog.Debug("no sources to upload")
		return nil
	}
	args := append([]string{"new-sources"}, m.Sources...)
	cmd := shell.Command(r.client, args...).In(r.session.Workdir.ProjectDir)
	if r.session.DryRun {
		r.session.WarnDryRun(cmd.String())
		return nil
	}
	slog.Info("uploading sources to lookaside",
		"count", len(m.Sources),
		"size", humanize.Bytes(utils.TotalSize(m.Sources)))
	if res, err := r.session.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("upload sources: %s: %w", res.Output, err)
	}
	return nil
}

func (r *distGitReleaser) confirmCommitAndPush(ctx context.Context, m *builder.Manifest) error {
	checkout := r.session.Workdir.ProjectDir
	gate := NewCommitGate(r.session)

	decision, err := gate.Review(ctx, shell.Command("git", "diff", "--cached").In(checkout))
	if err != nil {
		return err
	}
	if decision.Empty {
		r.session.Advance(PhaseNothingToCommit)
	} else {
		msg := fmt.Sprintf("Update %s to %s", m.ProjectName, m.BuildVersion)
		commit := shell.Command(r.client, "commit", "-m", msg).In(checkout)
		if r.session.DryRun {
			r.session.WarnDryRun(commit.String())
		} else {
			slog.Info("proceeding with commit")
			if res, err := r.session.Runner.Run(ctx, commit); err != nil {
				return fmt.Errorf("commit: %s: %w", res.Output, err)
			}
		}
		r.session.Advance(PhaseCommitted)
	}

	push := shell.Command(r.client, "push").In(checkout)
	if r.session.DryRun {
		r.session.WarnDryRun(push.String())
		return nil
	}
	if res, err := r.session.Runner.Run(ctx, push); err != nil {
		return fmt.Errorf("push: %s: %w", res.Output, err)
	}
	return nil
}

func (r *distGitReleaser) buildCmd() shell.Cmd {
	return shell.Command(r.client, "build", "--nowait").In(r.session.Workdir.ProjectDir)
}
