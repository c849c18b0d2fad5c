package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpmrelay/rpmrelay/internal/shell"
	"github.com/rpmrelay/rpmrelay/internal/utils"
)

// GitBuilder exports the tagged tree with git archive and drives rpmbuild
// over it. It is the default builder.
type GitBuilder struct {
	opts      Options
	runner    shell.Runner
	manifest  Manifest
	buildBase string // <BuildDir>/<project>-build
	archive   string
	exported  bool
}

func NewGitBuilder(opts Options) *GitBuilder {
	base := filepath.Join(opts.BuildDir, opts.Project+"-build")
	exportName := fmt.Sprintf("%s-%s", opts.Project, versionOnly(opts.Version))
	return &GitBuilder{
		opts:      opts,
		runner:    opts.Runner,
		buildBase: base,
		archive:   filepath.Join(base, exportName+".tar.gz"),
		manifest: Manifest{
			ProjectName:  opts.Project,
			BuildVersion: opts.Version,
			WorkingCopy:  filepath.Join(base, exportName),
		},
	}
}

// versionOnly strips the release from a version-release string; the source
// archive is named after the version alone.
func versionOnly(version string) string {
	v, _, _ := strings.Cut(version, "-")
	return v
}

func (b *GitBuilder) Manifest() *Manifest { return &b.manifest }

func (b *GitBuilder) SourceArchive(ctx context.Context) error {
	if err := utils.EnsureDir(b.buildBase); err != nil {
		return fmt.Errorf("create build dir: %w", err)
	}

	exportName := filepath.Base(b.manifest.WorkingCopy)
	tarPath := filepath.Join(b.buildBase, exportName+".tar")

	slog.Info("exporting tagged tree", "tag", b.opts.Tag, "dest", b.manifest.WorkingCopy)
	archive := shell.Command("git", "archive",
		"--format=tar",
		"--prefix="+exportName+"/",
		"-o", tarPath,
		b.opts.Tag).In(b.opts.SourceDir)
	if res, err := b.runner.Run(ctx, archive); err != nil {
		return fmt.Errorf("git archive %s: %s: %w", b.opts.Tag, res.Output, err)
	}
	if res, err := b.runner.Run(ctx, shell.Command("tar", "-xf", tarPath).In(b.buildBase)); err != nil {
		return fmt.Errorf("unpack export: %s: %w", res.Output, err)
	}
	if res, err := b.runner.Run(ctx, shell.Command("tar", "-czf", b.archive, exportName).In(b.buildBase)); err != nil {
		return fmt.Errorf("compress source archive: %s: %w", res.Output, err)
	}
	_ = os.Remove(tarPath)

	spec := utils.FindFile(b.manifest.WorkingCopy, ".spec")
	if spec == "" {
		return fmt.Errorf("no spec file in exported tree %s", b.manifest.WorkingCopy)
	}
	b.manifest.SpecFile = spec
	b.manifest.Sources = []string{b.archive}
	b.manifest.Artifacts = append(b.manifest.Artifacts, Artifact{Path: b.archive, Type: ArtifactSourceArchive})
	b.exported = true
	return nil
}

func (b *GitBuilder) SourcePackage(ctx context.Context, distTag string, reuseWorkdir bool) (string, error) {
	if !b.exported || !reuseWorkdir {
		if err := b.SourceArchive(ctx); err != nil {
			return "", err
		}
	}

	args := b.rpmbuildArgs("-bs", distTag)
	slog.Info("building source package", "dist", distTag)
	res, err := b.runner.Run(ctx, shell.Command("rpmbuild", args...).In(b.buildBase))
	if err != nil {
		return "", fmt.Errorf("rpmbuild -bs: %s: %w", res.Output, err)
	}
	for _, p := range wrotePaths(res.Output) {
		if strings.HasSuffix(p, ".src.rpm") {
			b.manifest.Artifacts = append(b.manifest.Artifacts, Artifact{Path: p, Type: ArtifactSourcePackage})
			return p, nil
		}
	}
	return "", fmt.Errorf("rpmbuild reported no source package: %s", res.Output)
}

func (b *GitBuilder) Package(ctx context.Context) error {
	if !b.exported {
		if err := b.SourceArchive(ctx); err != nil {
			return err
		}
	}

	args := b.rpmbuildArgs("-bb", "")
	slog.Info("building binary packages")
	res, err := b.runner.Run(ctx, shell.Command("rpmbuild", args...).In(b.buildBase))
	if err != nil {
		return fmt.Errorf("rpmbuild -bb: %s: %w", res.Output, err)
	}
	for _, p := range wrotePaths(res.Output) {
		t := ArtifactBinaryPackage
		if strings.HasSuffix(p, ".src.rpm") {
			t = ArtifactSourcePackage
		}
		b.manifest.Artifacts = append(b.manifest.Artifacts, Artifact{Path: p, Type: t})
	}
	return nil
}

func (b *GitBuilder) rpmbuildArgs(mode, distTag string) []string {
	args := []string{mode, b.manifest.SpecFile,
		"--define", "_sourcedir " + b.buildBase,
		"--define", "_srcrpmdir " + b.buildBase,
		"--define", "_rpmdir " + b.buildBase,
		"--define", "_builddir " + b.buildBase,
	}
	if distTag != "" {
		args = append(args, "--define", "dist "+distTag)
	}
	return args
}

func (b *GitBuilder) Cleanup() {
	slog.Debug("removing build dir", "dir", b.buildBase)
	if err := os.RemoveAll(b.buildBase); err != nil {
		slog.Warn("build dir cleanup failed", "dir", b.buildBase, "error", err)
	}
}
