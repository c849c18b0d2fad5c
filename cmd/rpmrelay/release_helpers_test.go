package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmrelay/rpmrelay/internal/shell/shelltest"
)

func TestDetectProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mypkg.spec"), []byte("Name: mypkg\n"), 0o644))

	project, err := detectProject(dir)
	require.NoError(t, err)
	assert.Equal(t, "mypkg", project)
}

func TestDetectProjectNoSpec(t *testing.T) {
	_, err := detectProject(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".spec")
}

func TestLatestTag(t *testing.T) {
	runner := shelltest.New(
		shelltest.Rule{Match: "git describe --tags --abbrev=0", Output: "mypkg-1.4.2-1\n"},
	)

	tag, err := latestTag(context.Background(), runner, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "mypkg-1.4.2-1", tag)
}

func TestLatestTagNoTags(t *testing.T) {
	runner := shelltest.New(
		shelltest.Rule{Match: "git describe", Output: "fatal: No names found, cannot describe anything.\n", ExitCode: 128},
	)

	_, err := latestTag(context.Background(), runner, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No names found")
}

func TestBuildVersion(t *testing.T) {
	assert.Equal(t, "1.4.2-1", buildVersion("mypkg", "mypkg-1.4.2-1"))
	assert.Equal(t, "v2.0", buildVersion("mypkg", "v2.0"), "foreign tag shapes pass through")
}
