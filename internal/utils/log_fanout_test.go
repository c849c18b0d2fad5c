package utils

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogFanoutDuplicatesRecords(t *testing.T) {
	var console, file bytes.Buffer
	h := NewLogFanout(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	log := slog.New(h)

	log.Debug("checkout finished")
	log.Info("build submitted", "tag", "pkg-1.4.2-1")

	assert.NotContains(t, console.String(), "checkout finished")
	assert.Contains(t, console.String(), "build submitted")
	assert.Contains(t, file.String(), "checkout finished")
	assert.Contains(t, file.String(), "build submitted")
}

func TestLogFanoutWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogFanout(slog.NewTextHandler(&buf, nil))
	log := slog.New(h).With("project", "pkg")

	log.Info("syncing")
	assert.Contains(t, buf.String(), "project=pkg")
}
