package release

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpmrelay/rpmrelay/internal/builder"
	"github.com/rpmrelay/rpmrelay/internal/mirror"
	"github.com/rpmrelay/rpmrelay/internal/shell"
	"github.com/rpmrelay/rpmrelay/internal/utils"
)

// repoMirrorReleaser builds packages locally and merges them into a
// mirrored package repository: pull the remote repo into a scratch dir,
// stage the fresh binary packages, regenerate the index, push back.
type repoMirrorReleaser struct {
	deps      Deps
	session   *Session
	mirrorDir string

	// newMirror is swappable for tests
	newMirror func(ctx context.Context) (mirror.Mirror, error)
}

func newRepoMirrorReleaser(deps Deps) (Releaser, error) {
	if err := requireOptions(deps.Target, "builder"); err != nil {
		return nil, err
	}
	t := deps.Target
	if !t.HasOption("rsync") && !t.HasOption("s3_bucket") {
		return nil, &ConfigError{Target: t.Name(), Reason: "needs an rsync location or an s3_bucket"}
	}

	r := &repoMirrorReleaser{deps: deps, session: deps.Session}
	r.newMirror = r.defaultMirror
	return r, nil
}

// defaultMirror builds the transport from the target options. The client
// is constructed lazily so a config-only failure never opens connections.
func (r *repoMirrorReleaser) defaultMirror(ctx context.Context) (mirror.Mirror, error) {
	t := r.deps.Target
	if t.HasOption("rsync") {
		return mirror.NewRsyncMirror(t.Option("rsync"), r.session.Runner), nil
	}
	access, _ := r.deps.UserConf.Get("AWS_ACCESS_KEY_ID")
	secret, _ := r.deps.UserConf.Get("AWS_SECRET_ACCESS_KEY")
	return mirror.NewS3Mirror(ctx, &mirror.S3Config{
		Bucket:    t.Option("s3_bucket"),
		Prefix:    t.Option("s3_prefix"),
		Region:    t.Option("s3_region"),
		Endpoint:  t.Option("s3_endpoint"),
		AccessKey: access,
		SecretKey: secret,
	})
}

func (r *repoMirrorReleaser) Cleanup() {
	if r.mirrorDir != "" {
		if err := os.RemoveAll(r.mirrorDir); err != nil {
			slog.Warn("mirror scratch cleanup failed", "dir", r.mirrorDir, "error", err)
		}
	}
	r.session.Workdir.Cleanup()
}

func (r *repoMirrorReleaser) Release(ctx context.Context, dryRun bool) error {
	if err := r.release(ctx, dryRun); err != nil {
		r.session.Abort(err)
		return err
	}
	return nil
}

func (r *repoMirrorReleaser) release(ctx context.Context, dryRun bool) error {
	r.session.DryRun = dryRun
	b := r.deps.Builder

	if err := b.SourceArchive(ctx); err != nil {
		return err
	}
	if _, err := b.SourcePackage(ctx, "", true); err != nil {
		return err
	}
	if err := b.Package(ctx); err != nil {
		return err
	}
	r.session.Advance(PhasePrepared)

	transport, err := r.newMirror(ctx)
	if err != nil {
		return err
	}

	if err := r.session.Workdir.Prepare(); err != nil {
		return err
	}
	dir, err := r.session.Workdir.TempDir("mirror-")
	if err != nil {
		return fmt.Errorf("mirror scratch dir: %w", err)
	}
	r.mirrorDir = dir

	slog.Info("pulling package repository", "from", transport.Location())
	if err := transport.Pull(ctx, dir); err != nil {
		return err
	}

	staged := 0
	for _, pkg := range b.Manifest().ArtifactsOfType(builder.ArtifactBinaryPackage) {
		name := filepath.Base(pkg)
		slog.Info("staging package", "name", name)
		if err := utils.CopyFile(pkg, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
		staged++
	}
	if staged == 0 {
		slog.Warn("build produced no binary packages to publish")
	}
	r.session.Advance(PhaseSynced)

	slog.Info("regenerating repository index")
	if res, err := r.session.Runner.Run(ctx, shell.Command("createrepo", ".").In(dir)); err != nil {
		return fmt.Errorf("createrepo: %s: %w", res.Output, err)
	}

	if r.session.DryRun {
		r.session.WarnDryRun("push repository to " + transport.Location())
	} else {
		slog.Info("pushing package repository", "to", transport.Location())
		if err := transport.Push(ctx, dir); err != nil {
			return err
		}
	}

	r.session.Advance(PhaseDone)
	return nil
}
