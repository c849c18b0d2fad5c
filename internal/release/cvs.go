package release

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rpmrelay/rpmrelay/internal/builder"
	"github.com/rpmrelay/rpmrelay/internal/shell"
	"github.com/rpmrelay/rpmrelay/internal/utils"
)

// cvsReleaser publishes into a centralized CVS tree where each branch is a
// directory of the checked out module: per-branch sync, one aggregate
// commit, a tag and a build submission per branch.
type cvsReleaser struct {
	deps     Deps
	session  *Session
	cvsRoot  string
	branches []string
}

func newCVSReleaser(deps Deps) (Releaser, error) {
	if err := requireOptions(deps.Target, "cvsroot", "branches"); err != nil {
		return nil, err
	}
	branches, err := branchList(deps.Target)
	if err != nil {
		return nil, err
	}
	return &cvsReleaser{
		deps:     deps,
		session:  deps.Session,
		cvsRoot:  deps.Target.Option("cvsroot"),
		branches: branches,
	}, nil
}

func (r *cvsReleaser) Cleanup() {
	r.session.Workdir.Cleanup()
}

func (r *cvsReleaser) Release(ctx context.Context, dryRun bool) error {
	if err := r.release(ctx, dryRun); err != nil {
		r.session.Abort(err)
		return err
	}
	return nil
}

func (r *cvsReleaser) release(ctx context.Context, dryRun bool) error {
	r.session.DryRun = dryRun
	ws := r.session.Workdir

	if err := ws.VerifyNoCheckout(); err != nil {
		return err
	}
	if err := ws.Prepare(); err != nil {
		return err
	}

	slog.Info("releasing into CVS", "project", r.session.Project, "branches", r.branches)
	if err := r.checkoutModule(ctx); err != nil {
		return err
	}
	if err := r.verifyBranches(); err != nil {
		return err
	}
	r.session.Advance(PhasePrepared)

	if err := r.deps.Builder.SourceArchive(ctx); err != nil {
		return err
	}
	manifest := r.deps.Builder.Manifest()

	files, err := ListFilesToCopy(manifest, r.deps.Target.List("copy_patterns"))
	if err != nil {
		return err
	}
	if _, err := SyncAll(ctx, files, r.branches, r.branchDir, &cvsRegistrar{runner: r.session.Runner}); err != nil {
		return err
	}
	r.session.Advance(PhaseSynced)

	if err := r.uploadSources(ctx, manifest); err != nil {
		return err
	}
	if err := r.confirmCommit(ctx, manifest); err != nil {
		return err
	}
	if err := r.tagBranches(ctx); err != nil {
		return err
	}
	r.session.Advance(PhaseTagged)

	if err := r.submitBuilds(ctx); err != nil {
		return err
	}
	r.session.Advance(PhaseSubmitted)
	r.session.Advance(PhaseDone)
	return nil
}

func (r *cvsReleaser) branchDir(branch string) string {
	return filepath.Join(r.session.Workdir.ProjectDir, branch)
}

// checkoutModule checks the module out of CVS and expands zstream entries.
// A branch declared as "base/zstream" has its zstream directory generated
// from the base branch's recipe before use.
func (r *cvsReleaser) checkoutModule(ctx context.Context) error {
	ws := r.session.Workdir
	slog.Info("checking out module", "cvsroot", r.cvsRoot, "module", r.session.Project)
	co := shell.Command("cvs", "-d", r.cvsRoot, "co", r.session.Project).In(ws.Root)
	if res, err := r.session.Runner.Run(ctx, co); err != nil {
		return fmt.Errorf("cvs checkout: %s: %w", res.Output, err)
	}

	for i, branch := range r.branches {
		base, zstream, ok := strings.Cut(branch, "/")
		if !ok {
			continue
		}
		slog.Info("generating zstream branch", "base", base, "zstream", zstream)
		gen := shell.Command("make", "-C", r.branchDir(base), "zstreams")
		if res, err := r.session.Runner.Run(ctx, gen); err != nil {
			return fmt.Errorf("generate zstream %s: %s: %w", branch, res.Output, err)
		}
		r.branches[i] = zstream
	}
	return nil
}

func (r *cvsReleaser) verifyBranches() error {
	for _, branch := range r.branches {
		if !utils.DirExists(r.branchDir(branch)) {
			return &ConfigError{
				Target: r.deps.Target.Name(),
				Reason: fmt.Sprintf("checkout of %s has no branch directory %s", r.session.Project, branch),
			}
		}
	}
	return nil
}

func (r *cvsReleaser) uploadSources(ctx context.Context, m *builder.Manifest) error {
	if len(m.Sources) == 0 {
		slog.Debug("no sources to upload")
		return nil
	}
	slog.Info("uploading sources to lookaside",
		"count", len(m.Sources),
		"size", humanize.Bytes(utils.TotalSize(m.Sources)))
	for _, branch := range r.branches {
		cmd := shell.Command("make", "new-sources", "FILES="+strings.Join(m.Sources, " ")).In(r.branchDir(branch))
		if r.session.DryRun {
			r.session.WarnDryRun(cmd.String())
			continue
		}
		if res, err := r.session.Runner.Run(ctx, cmd); err != nil {
			return fmt.Errorf("upload sources for %s: %s: %w", branch, res.Output, err)
		}
	}
	return nil
}

func (r *cvsReleaser) confirmCommit(ctx context.Context, m *builder.Manifest) error {
	moduleDir := r.session.Workdir.ProjectDir
	gate := NewCommitGate(r.session)

	decision, err := gate.Review(ctx, shell.Command("cvs", "diff", "-u").In(moduleDir))
	if err != nil {
		return err
	}
	if decision.Empty {
		r.session.Advance(PhaseNothingToCommit)
		return nil
	}

	err = gate.WithMessageFile(ctx, m.ProjectName, m.BuildVersion, decision.Diff, func(msgFile string) error {
		commit := shell.Command("cvs", "commit", "-F", msgFile).In(moduleDir)
		if r.session.DryRun {
			r.session.WarnDryRun(commit.String())
			return nil
		}
		slog.Info("proceeding with commit")
		if res, err := r.session.Runner.Run(ctx, commit); err != nil {
			return fmt.Errorf("cvs commit: %s: %w", res.Output, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.session.Advance(PhaseCommitted)
	return nil
}

// tagBranches runs the tag recipe in each branch directory. The recipe
// exits 1 when there is nothing new to tag; that is tolerated so re-runs
// work, anything above it is fatal.
func (r *cvsReleaser) tagBranches(ctx context.Context) error {
	if r.session.DryRun {
		r.session.WarnDryRun("make tag")
		return nil
	}
	for _, branch := range r.branches {
		slog.Info("tagging branch", "branch", branch)
		res, err := r.session.Runner.Run(ctx, shell.Command("make", "tag").In(r.branchDir(branch)))
		if res.Output != "" {
			fmt.Println(res.Output)
		}
		if err != nil {
			if res.ExitCode == 1 {
				slog.Debug("nothing new to tag", "branch", branch)
				continue
			}
			return fmt.Errorf("tag %s: %s: %w", branch, res.Output, err)
		}
	}
	return nil
}

func (r *cvsReleaser) submitBuilds(ctx context.Context) error {
	sub := NewSubmitter(r.session)
	for _, branch := range r.branches {
		cmd := shell.Command("make", "build").WithEnv("BUILD_FLAGS=--nowait").In(r.branchDir(branch))
		if _, err := sub.Submit(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}
