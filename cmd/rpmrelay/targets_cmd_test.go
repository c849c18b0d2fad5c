package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmrelay/rpmrelay/internal/config"
)

func TestPrintTargets(t *testing.T) {
	targets, err := config.ParseTargets([]byte(`
yum-f42:
  releaser: repo-mirror
  builder: mock
dist-git:
  releaser: dist-git
  branches: main f42
odd:
  note: misconfigured on purpose
`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printTargets(&out, targets))

	lines := out.String()
	assert.Contains(t, lines, "dist-git")
	assert.Contains(t, lines, "yum-f42")
	assert.Contains(t, lines, "repo-mirror")
	assert.Contains(t, lines, "(no releaser)")
}
