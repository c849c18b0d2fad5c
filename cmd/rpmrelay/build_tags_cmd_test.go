package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmrelay/rpmrelay/internal/config"
)

const buildTagsProps = `
koji:
  autobuild_tags: dist-5E-epel dist-f42

dist-5E-epel:
  disttag: .el5
  blacklist: mypkg

dist-f42:
  disttag: .fc42
`

func TestPrintBuildTagsHidesBlacklisted(t *testing.T) {
	props, err := config.ParseProps([]byte(buildTagsProps))
	require.NoError(t, err)

	var out bytes.Buffer
	printBuildTags(&out, props, "mypkg", false)

	assert.Equal(t, "dist-f42\n", out.String())
}

func TestPrintBuildTagsDebugAnnotates(t *testing.T) {
	props, err := config.ParseProps([]byte(buildTagsProps))
	require.NoError(t, err)

	var out bytes.Buffer
	printBuildTags(&out, props, "mypkg", true)

	assert.Equal(t, "dist-5E-epel (blacklisted)\ndist-f42\n", out.String())
}
