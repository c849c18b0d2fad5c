package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmrelay/rpmrelay/internal/shell/shelltest"
)

func testOptions(t *testing.T, runner *shelltest.Runner) Options {
	t.Helper()
	return Options{
		Project:  "mypkg",
		Tag:      "mypkg-1.4.2-1",
		Version:  "1.4.2-1",
		BuildDir: t.TempDir(),
		Runner:   runner,
	}
}

// seedExport lays down the files a real `git archive | tar x` would have
// produced, since the scripted runner runs nothing.
func seedExport(t *testing.T, b *GitBuilder, names ...string) {
	t.Helper()
	dir := b.Manifest().WorkingCopy
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
}

func TestGitBuilderSourceArchive(t *testing.T) {
	runner := shelltest.New()
	b := NewGitBuilder(testOptions(t, runner))
	seedExport(t, b, "mypkg.spec", "fix-segfault.patch")

	require.NoError(t, b.SourceArchive(context.Background()))

	m := b.Manifest()
	assert.Equal(t, "mypkg", m.ProjectName)
	assert.Equal(t, "1.4.2-1", m.BuildVersion)
	assert.Equal(t, filepath.Join(m.WorkingCopy, "mypkg.spec"), m.SpecFile)
	require.Len(t, m.Sources, 1)
	assert.Equal(t, "mypkg-1.4.2.tar.gz", filepath.Base(m.Sources[0]))

	assert.True(t, runner.Ran("git archive"))
	assert.True(t, runner.Ran("--prefix=mypkg-1.4.2/"))
	assert.True(t, runner.Ran("tar -czf"))
}

func TestGitBuilderSourceArchiveNoSpec(t *testing.T) {
	runner := shelltest.New()
	b := NewGitBuilder(testOptions(t, runner))
	seedExport(t, b, "README.md")

	err := b.SourceArchive(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no spec file")
}

func TestGitBuilderSourcePackage(t *testing.T) {
	runner := shelltest.New(shelltest.Rule{
		Match:  "rpmbuild -bs",
		Output: "Wrote: /build/mypkg-1.4.2-1.el5.src.rpm\n",
	})
	b := NewGitBuilder(testOptions(t, runner))
	seedExport(t, b, "mypkg.spec")

	srpm, err := b.SourcePackage(context.Background(), ".el5", true)
	require.NoError(t, err)
	assert.Equal(t, "/build/mypkg-1.4.2-1.el5.src.rpm", srpm)
	assert.True(t, runner.Ran("--define dist .el5"))

	m := b.Manifest()
	assert.Equal(t, []string{srpm}, m.ArtifactsOfType(ArtifactSourcePackage))
}

func TestGitBuilderSourcePackageNoDistTag(t *testing.T) {
	runner := shelltest.New(shelltest.Rule{
		Match:  "rpmbuild -bs",
		Output: "Wrote: /build/mypkg-1.4.2-1.src.rpm\n",
	})
	b := NewGitBuilder(testOptions(t, runner))
	seedExport(t, b, "mypkg.spec")

	_, err := b.SourcePackage(context.Background(), "", true)
	require.NoError(t, err)
	assert.False(t, runner.Ran("--define dist"))
}

func TestGitBuilderSourcePackageReusesExport(t *testing.T) {
	runner := shelltest.New(shelltest.Rule{
		Match:  "rpmbuild -bs",
		Output: "Wrote: /build/mypkg-1.4.2-1.src.rpm\n",
	})
	b := NewGitBuilder(testOptions(t, runner))
	seedExport(t, b, "mypkg.spec")

	require.NoError(t, b.SourceArchive(context.Background()))
	_, err := b.SourcePackage(context.Background(), "", true)
	require.NoError(t, err)

	archives := 0
	for _, line := range runner.CommandLines() {
		if strings.HasPrefix(line, "git archive") {
			archives++
		}
	}
	assert.Equal(t, 1, archives, "reuse must not re-export the tree")
}

func TestGitBuilderPackageClassifiesArtifacts(t *testing.T) {
	runner := shelltest.New(shelltest.Rule{
		Match: "rpmbuild -bb",
		Output: "Wrote: /build/x86_64/mypkg-1.4.2-1.x86_64.rpm\n" +
			"Wrote: /build/x86_64/mypkg-devel-1.4.2-1.x86_64.rpm\n",
	})
	b := NewGitBuilder(testOptions(t, runner))
	seedExport(t, b, "mypkg.spec")

	require.NoError(t, b.Package(context.Background()))
	assert.Len(t, b.Manifest().ArtifactsOfType(ArtifactBinaryPackage), 2)
}

func TestMockBuilderRequiresChroot(t *testing.T) {
	_, err := NewMockBuilder(testOptions(t, shelltest.New()))
	assert.Error(t, err)
}

func TestMockBuilderPackage(t *testing.T) {
	runner := shelltest.New(shelltest.Rule{
		Match:  "rpmbuild -bs",
		Output: "Wrote: /build/mypkg-1.4.2-1.src.rpm\n",
	})
	opts := testOptions(t, runner)
	opts.Args = map[string]string{"mock": "fedora-42-x86_64"}

	b, err := NewMockBuilder(opts)
	require.NoError(t, err)
	seedExport(t, b.GitBuilder, "mypkg.spec")

	// lay down what the (scripted, inert) mock run would have produced
	resultDir := filepath.Join(opts.BuildDir, "mypkg-build", "mock-results")
	require.NoError(t, os.MkdirAll(resultDir, 0o755))
	for _, name := range []string{"mypkg-1.4.2-1.fc42.x86_64.rpm", "mypkg-1.4.2-1.fc42.src.rpm"} {
		require.NoError(t, os.WriteFile(filepath.Join(resultDir, name), nil, 0o644))
	}

	require.NoError(t, b.Package(context.Background()))
	assert.True(t, runner.Ran("mock -r fedora-42-x86_64"))

	bins := b.Manifest().ArtifactsOfType(ArtifactBinaryPackage)
	require.Len(t, bins, 1)
	assert.Equal(t, "mypkg-1.4.2-1.fc42.x86_64.rpm", filepath.Base(bins[0]))
}

func TestDefaultFactory(t *testing.T) {
	opts := testOptions(t, shelltest.New())

	b, err := DefaultFactory("", opts)
	require.NoError(t, err)
	assert.IsType(t, &GitBuilder{}, b)

	opts.Args = map[string]string{"mock": "epel-9-x86_64"}
	b, err = DefaultFactory("mock", opts)
	require.NoError(t, err)
	assert.IsType(t, &MockBuilder{}, b)

	_, err = DefaultFactory("copr", opts)
	assert.Error(t, err)
}

func TestBuilderCleanup(t *testing.T) {
	runner := shelltest.New()
	b := NewGitBuilder(testOptions(t, runner))
	seedExport(t, b, "mypkg.spec")

	b.Cleanup()
	assert.NoDirExists(t, b.buildBase)
}
