package release

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpmrelay/rpmrelay/internal/builder"
	"github.com/rpmrelay/rpmrelay/internal/config"
	"github.com/rpmrelay/rpmrelay/internal/shell"
	"github.com/rpmrelay/rpmrelay/internal/workspace"
)

// scriptedOperator answers prompts from a fixed list; extra prompts
// decline.
type scriptedOperator struct {
	answers []bool
	prompts []string
}

func (o *scriptedOperator) Confirm(prompt string) (bool, error) {
	answer := false
	if len(o.prompts) < len(o.answers) {
		answer = o.answers[len(o.prompts)]
	}
	o.prompts = append(o.prompts, prompt)
	return answer, nil
}

func newTestSession(t *testing.T, project string, runner shell.Runner, op Operator) *Session {
	t.Helper()
	ws, err := workspace.New(t.TempDir(), project)
	require.NoError(t, err)
	t.Cleanup(ws.Unlock)
	return NewSession(project, ws, runner, op)
}

// fakeBuilder satisfies builder.Builder with canned manifest content.
type fakeBuilder struct {
	manifest  builder.Manifest
	srpm      string
	distTags  []string // dist tags requested from SourcePackage
	srpmErr   error
	exported  bool
	packaged  bool
	cleanedUp bool
}

func (f *fakeBuilder) SourceArchive(context.Context) error {
	f.exported = true
	return nil
}

func (f *fakeBuilder) SourcePackage(_ context.Context, distTag string, _ bool) (string, error) {
	f.distTags = append(f.distTags, distTag)
	if f.srpmErr != nil {
		return "", f.srpmErr
	}
	return f.srpm, nil
}

func (f *fakeBuilder) Package(context.Context) error {
	f.packaged = true
	return nil
}

func (f *fakeBuilder) Cleanup() { f.cleanedUp = true }

func (f *fakeBuilder) Manifest() *builder.Manifest { return &f.manifest }

// newFakeBuilder lays out a real working copy so file listings and sync
// copies operate on actual files.
func newFakeBuilder(t *testing.T, project, version string, files ...string) *fakeBuilder {
	t.Helper()
	workingCopy := t.TempDir()
	spec := filepath.Join(workingCopy, project+".spec")
	require.NoError(t, os.WriteFile(spec, []byte("Name: "+project+"\n"), 0o644))
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(workingCopy, name), []byte(name), 0o644))
	}

	archive := filepath.Join(workingCopy, project+"-"+version+".tar.gz")
	require.NoError(t, os.WriteFile(archive, []byte("tarball"), 0o644))

	return &fakeBuilder{
		srpm: "/build/" + project + "-" + version + ".src.rpm",
		manifest: builder.Manifest{
			ProjectName:  project,
			SpecFile:     spec,
			WorkingCopy:  workingCopy,
			BuildVersion: version,
			Sources:      []string{archive},
		},
	}
}

func parseTarget(t *testing.T, name, yaml string) *config.Target {
	t.Helper()
	targets, err := config.ParseTargets([]byte(yaml))
	require.NoError(t, err)
	target, ok := targets.Target(name)
	require.True(t, ok, "target %s not defined in fixture", name)
	return target
}

func parseProps(t *testing.T, yaml string) *config.Props {
	t.Helper()
	props, err := config.ParseProps([]byte(yaml))
	require.NoError(t, err)
	return props
}

// seedCheckout fills a fake backing-system checkout with files.
func seedCheckout(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("old "+name), 0o644))
	}
}
