// Package builder produces release artifacts from a tagged project tree:
// the source archive, the source package, and binary packages. The release
// engine only talks to the Builder interface; which implementation runs is
// a per-target configuration choice.
package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpmrelay/rpmrelay/internal/shell"
)

// ArtifactType tags entries in a Manifest's artifact list.
type ArtifactType int

const (
	ArtifactSourceArchive ArtifactType = iota
	ArtifactSourcePackage
	ArtifactBinaryPackage
)

type Artifact struct {
	Path string
	Type ArtifactType
}

// Manifest describes what a build produced. The owning builder mutates it
// as artifacts appear; everything else treats it as read-only.
type Manifest struct {
	ProjectName  string
	SpecFile     string // absolute path
	WorkingCopy  string // exported project tree, the root for file sync listings
	BuildVersion string // version-release, e.g. 1.4.2-1
	Sources      []string
	Artifacts    []Artifact
}

// ArtifactsOfType returns the paths of artifacts with the given type, in
// production order.
func (m *Manifest) ArtifactsOfType(t ArtifactType) []string {
	var paths []string
	for _, a := range m.Artifacts {
		if a.Type == t {
			paths = append(paths, a.Path)
		}
	}
	return paths
}

// Builder produces release artifacts.
type Builder interface {
	// SourceArchive exports the tagged tree and produces the source
	// archive, populating the manifest working copy, spec file, and
	// sources.
	SourceArchive(ctx context.Context) error
	// SourcePackage builds a source package with distTag embedded in the
	// release string and returns its path. With reuseWorkdir set an
	// already exported tree is reused instead of re-exported.
	SourcePackage(ctx context.Context, distTag string, reuseWorkdir bool) (string, error)
	// Package builds the binary packages and appends them to the manifest.
	Package(ctx context.Context) error
	// Cleanup removes the builder's scratch state.
	Cleanup()
	Manifest() *Manifest
}

// Options parameterize builder construction.
type Options struct {
	Project   string
	Tag       string // VCS tag being released, e.g. mypkg-1.4.2-1
	Version   string // version-release, e.g. 1.4.2-1
	SourceDir string // project tree the tag lives in, empty means cwd
	BuildDir  string
	Args      map[string]string // builder.* pass-through from the target
	Runner    shell.Runner
}

// Factory creates a Builder by kind name. The empty kind selects the
// default git builder.
type Factory func(kind string, opts Options) (Builder, error)

// DefaultFactory knows the built-in builders.
func DefaultFactory(kind string, opts Options) (Builder, error) {
	switch kind {
	case "", "git":
		return NewGitBuilder(opts), nil
	case "mock":
		return NewMockBuilder(opts)
	default:
		return nil, fmt.Errorf("unknown builder %q", kind)
	}
}

// wrotePaths extracts the artifact paths rpmbuild reports on its
// "Wrote:" output lines.
func wrotePaths(output string) []string {
	var paths []string
	for _, line := range strings.Split(output, "\n") {
		if p, ok := strings.CutPrefix(strings.TrimSpace(line), "Wrote:"); ok {
			paths = append(paths, strings.TrimSpace(p))
		}
	}
	return paths
}
