package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rpmrelay/rpmrelay/internal/shell"
	"github.com/rpmrelay/rpmrelay/internal/utils"
)

// MockBuilder builds binary packages inside a mock chroot so the build
// environment matches the release distribution instead of the host. Source
// export and source package production come from the git builder.
type MockBuilder struct {
	*GitBuilder
	chroot string
}

// NewMockBuilder requires a "mock" builder arg naming the chroot config,
// e.g. builder.mock: fedora-42-x86_64 on the release target.
func NewMockBuilder(opts Options) (*MockBuilder, error) {
	chroot := opts.Args["mock"]
	if chroot == "" {
		return nil, errors.New("mock builder requires a builder.mock target option naming the chroot config")
	}
	return &MockBuilder{GitBuilder: NewGitBuilder(opts), chroot: chroot}, nil
}

func (b *MockBuilder) Package(ctx context.Context) error {
	srpm, err := b.SourcePackage(ctx, "", true)
	if err != nil {
		return err
	}

	resultDir := filepath.Join(b.buildBase, "mock-results")
	if err := utils.EnsureDir(resultDir); err != nil {
		return fmt.Errorf("create mock result dir: %w", err)
	}

	slog.Info("building in mock chroot", "chroot", b.chroot)
	cmd := shell.Command("mock", "-r", b.chroot, "--resultdir", resultDir, "--rebuild", srpm)
	if res, err := b.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("mock build: %s: %w", res.Output, err)
	}

	names, err := utils.ListFiles(resultDir, ".rpm")
	if err != nil {
		return fmt.Errorf("scan mock results: %w", err)
	}
	found := 0
	for _, name := range names {
		if strings.HasSuffix(name, ".src.rpm") {
			continue
		}
		b.manifest.Artifacts = append(b.manifest.Artifacts, Artifact{
			Path: filepath.Join(resultDir, name),
			Type: ArtifactBinaryPackage,
		})
		found++
	}
	if found == 0 {
		return fmt.Errorf("mock produced no binary packages in %s", resultDir)
	}
	return nil
}
