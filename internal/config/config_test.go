package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const targetsYAML = `
yum-f42:
  releaser: repo-mirror
  builder: mock
  builder.mock: fedora-42-x86_64
  rsync: repos.example.com/f42/

dist-git:
  releaser: dist-git
  branches: main f42 f41
`

func TestParseTargets(t *testing.T) {
	targets, err := ParseTargets([]byte(targetsYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"dist-git", "yum-f42"}, targets.Names())

	yum, ok := targets.Target("yum-f42")
	require.True(t, ok)
	assert.Equal(t, "yum-f42", yum.Name())
	assert.True(t, yum.HasOption("rsync"))
	assert.False(t, yum.HasOption("branches"))
	assert.Equal(t, "repo-mirror", yum.Option("releaser"))
	assert.Empty(t, yum.Option("missing"))

	_, ok = targets.Target("nope")
	assert.False(t, ok)
}

func TestTargetBuilderArgs(t *testing.T) {
	targets, err := ParseTargets([]byte(targetsYAML))
	require.NoError(t, err)

	yum, _ := targets.Target("yum-f42")
	args := yum.BuilderArgs()
	assert.Equal(t, map[string]string{"mock": "fedora-42-x86_64"}, args)
}

func TestTargetList(t *testing.T) {
	targets, err := ParseTargets([]byte(targetsYAML))
	require.NoError(t, err)

	dg, _ := targets.Target("dist-git")
	assert.Equal(t, []string{"main", "f42", "f41"}, dg.List("branches"))
	assert.Empty(t, dg.List("missing"))
}

func TestLoadTargetsMissingFile(t *testing.T) {
	_, err := LoadTargets(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

const propsYAML = `
koji:
  autobuild_tags: dist-5E-sw-1.2-candidate dist-f42-updates-candidate

dist-5E-sw-1.2-candidate:
  disttag: .el5
  whitelist: mypkg otherpkg

dist-f42-updates-candidate:
  disttag: .fc42
  blacklist: badpkg
`

func TestParseProps(t *testing.T) {
	props, err := ParseProps([]byte(propsYAML))
	require.NoError(t, err)

	assert.True(t, props.HasSection("koji"))
	assert.False(t, props.HasSection("brew"))
	assert.True(t, props.HasOption("dist-5E-sw-1.2-candidate", "whitelist"))
	assert.False(t, props.HasOption("dist-f42-updates-candidate", "whitelist"))
	assert.Equal(t, ".el5", props.Get("dist-5E-sw-1.2-candidate", "disttag"))
	assert.Empty(t, props.Get("nope", "disttag"))
	assert.Equal(t, []string{"mypkg", "otherpkg"}, props.List("dist-5E-sw-1.2-candidate", "whitelist"))
}

func TestLoadPropsMissingFileIsEmpty(t *testing.T) {
	props, err := LoadProps(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.False(t, props.HasSection("koji"))
}

func TestLoadUserConfig(t *testing.T) {
	dir := t.TempDir()
	rc := filepath.Join(dir, UserConfigFile)
	require.NoError(t, os.WriteFile(rc, []byte("KOJI_OPTIONS=build --nowait --background\nHACKING=1\n"), 0o644))

	conf, err := LoadUserConfig(rc)
	require.NoError(t, err)

	v, ok := conf.Get("KOJI_OPTIONS")
	assert.True(t, ok)
	assert.Equal(t, "build --nowait --background", v)

	_, ok = conf.Get("UNSET")
	assert.False(t, ok)
}

func TestLoadUserConfigMissingFile(t *testing.T) {
	conf, err := LoadUserConfig(filepath.Join(t.TempDir(), ".rpmrelayrc"))
	require.NoError(t, err)
	assert.Empty(t, conf)
}
