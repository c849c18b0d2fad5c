package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmrelay/rpmrelay/internal/config"
	"github.com/rpmrelay/rpmrelay/internal/shell/shelltest"
)

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"repo-mirror", "dist-git", "cvs", "build-service"} {
		k, err := ParseKind(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(k))
	}

	_, err := ParseKind("copr")
	assert.Error(t, err)

	_, err = ParseKind("")
	assert.Error(t, err)
}

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := New(Kind("copr"), Deps{})
	assert.Error(t, err)
}

func TestNewValidatesRequiredOptions(t *testing.T) {
	runner := shelltest.New()
	session := newTestSession(t, "mypkg", runner, &scriptedOperator{})

	tests := []struct {
		name   string
		kind   Kind
		target string
		yaml   string
		reason string
	}{
		{
			name:   "dist-git without branches",
			kind:   KindDistGit,
			target: "dg",
			yaml:   "dg:\n  releaser: dist-git\n",
			reason: "branches",
		},
		{
			name:   "cvs without cvsroot",
			kind:   KindCVS,
			target: "cvs",
			yaml:   "cvs:\n  releaser: cvs\n  branches: BRANCH-1\n",
			reason: "cvsroot",
		},
		{
			name:   "repo-mirror without builder",
			kind:   KindRepoMirror,
			target: "yum",
			yaml:   "yum:\n  releaser: repo-mirror\n  rsync: host/path/\n",
			reason: "builder",
		},
		{
			name:   "repo-mirror without destination",
			kind:   KindRepoMirror,
			target: "yum",
			yaml:   "yum:\n  releaser: repo-mirror\n  builder: mock\n",
			reason: "rsync",
		},
		{
			name:   "cvs with blank branches",
			kind:   KindCVS,
			target: "cvs",
			yaml:   "cvs:\n  releaser: cvs\n  cvsroot: :gserver:cvs.example.com:/cvs\n  branches: \"  \"\n",
			reason: "branch list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := parseTarget(t, tt.target, tt.yaml)
			_, err := New(tt.kind, Deps{Target: target, Session: session})
			require.Error(t, err)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.target, cfgErr.Target)
			assert.Contains(t, cfgErr.Error(), tt.reason)
			assert.Empty(t, runner.CommandLines(), "config validation must not run commands")
		})
	}
}

func TestNewBuildsEachKind(t *testing.T) {
	runner := shelltest.New()
	session := newTestSession(t, "mypkg", runner, &scriptedOperator{})
	deps := func(name, yaml string) Deps {
		return Deps{
			Target:   parseTarget(t, name, yaml),
			Props:    parseProps(t, ""),
			UserConf: config.UserConfig{},
			Session:  session,
		}
	}

	r, err := New(KindDistGit, deps("dg", "dg:\n  releaser: dist-git\n  branches: main f42\n"))
	require.NoError(t, err)
	assert.IsType(t, &distGitReleaser{}, r)

	r, err = New(KindCVS, deps("c", "c:\n  releaser: cvs\n  cvsroot: :gserver:cvs.example.com:/cvs\n  branches: BRANCH-1\n"))
	require.NoError(t, err)
	assert.IsType(t, &cvsReleaser{}, r)

	r, err = New(KindRepoMirror, deps("y", "y:\n  releaser: repo-mirror\n  builder: mock\n  rsync: host/path/\n"))
	require.NoError(t, err)
	assert.IsType(t, &repoMirrorReleaser{}, r)

	r, err = New(KindBuildService, deps("k", "k:\n  releaser: build-service\n"))
	require.NoError(t, err)
	assert.IsType(t, &buildServiceReleaser{}, r)
}
