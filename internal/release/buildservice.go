package release

import (
	"context"
	"log/slog"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/rpmrelay/rpmrelay/internal/shell"
)

const defaultBuildServiceExe = "koji"

// kojiOptionsKey is the rc file setting that replaces the default build
// client invocation, e.g. for an alternate profile or extra flags.
const kojiOptionsKey = "KOJI_OPTIONS"

// buildServiceReleaser submits the tagged project straight to the remote
// build service: one source package and one submission per configured
// autobuild tag that survives policy filtering. There is no checkout and
// no commit gate on this path.
type buildServiceReleaser struct {
	deps    Deps
	session *Session
	exe     string
}

func newBuildServiceReleaser(deps Deps) (Releaser, error) {
	exe := deps.Target.Option("executable")
	if exe == "" {
		exe = defaultBuildServiceExe
	}
	return &buildServiceReleaser{deps: deps, session: deps.Session, exe: exe}, nil
}

func (r *buildServiceReleaser) Cleanup() {
	r.session.Workdir.Cleanup()
}

func (r *buildServiceReleaser) Release(ctx context.Context, dryRun bool) error {
	if err := r.release(ctx, dryRun); err != nil {
		r.session.Abort(err)
		return err
	}
	return nil
}

func (r *buildServiceReleaser) release(ctx context.Context, dryRun bool) error {
	r.session.DryRun = dryRun

	tags := AutobuildTags(r.deps.Props)
	if len(tags) == 0 {
		slog.Info("no autobuild tags configured, nothing to submit")
		return nil
	}
	slog.Info("submitting to build service", "executable", r.exe, "tags", tags)

	opts := DefaultSubmitOpts
	if v, ok := r.deps.UserConf.Get(kojiOptionsKey); ok {
		slog.Debug("using build client options from rc file", "options", v)
		opts = v
	}
	if r.deps.Scratch {
		opts += " --scratch"
	}

	only := mapset.NewSet(r.deps.OnlyTags...)
	policy := NewTagPolicy(r.deps.Props, r.session.Project)
	sub := NewSubmitter(r.session)
	r.session.Advance(PhasePrepared)

	for _, tag := range tags {
		if only.Cardinality() > 0 && !only.Contains(tag) {
			slog.Debug("tag not requested, skipping", "tag", tag)
			continue
		}
		allowed, reason := policy.Allowed(tag)
		if !allowed {
			slog.Warn("not submitting build", "tag", tag, "reason", reason)
			continue
		}

		distTag := r.deps.Props.Get(tag, "disttag")
		srpm, err := r.deps.Builder.SourcePackage(ctx, distTag, true)
		if err != nil {
			return err
		}

		args := append(strings.Fields(opts), tag, srpm)
		if _, err := sub.Submit(ctx, shell.Command(r.exe, args...)); err != nil {
			return err
		}
	}

	r.session.Advance(PhaseSubmitted)
	r.session.Advance(PhaseDone)
	return nil
}
