package release

import (
	"context"
	"fmt"

	"github.com/rpmrelay/rpmrelay/internal/builder"
	"github.com/rpmrelay/rpmrelay/internal/config"
)

// Kind selects which backing system a release target publishes into. The
// set is closed; construction dispatches over it before any I/O happens.
type Kind string

const (
	KindRepoMirror   Kind = "repo-mirror"
	KindDistGit      Kind = "dist-git"
	KindCVS          Kind = "cvs"
	KindBuildService Kind = "build-service"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindRepoMirror, KindDistGit, KindCVS, KindBuildService:
		return k, nil
	}
	return "", fmt.Errorf("unknown releaser kind %q", s)
}

// Releaser publishes one release target.
type Releaser interface {
	// Release runs the full publication sequence. dryRun suppresses every
	// destructive external command while keeping review output intact.
	Release(ctx context.Context, dryRun bool) error
	// Cleanup removes the run's scratch state. Safe after both success and
	// failure.
	Cleanup()
}

// Deps is the collaborator set the variants are built from.
type Deps struct {
	Target   *config.Target
	Props    *config.Props
	UserConf config.UserConfig
	Builder  builder.Builder
	Session  *Session
	OnlyTags []string // restrict which build tags are attempted
	Scratch  bool     // request throwaway builds where the service supports them
}

// New constructs the releaser for kind. Unknown kinds and missing required
// target options fail here, before anything touches the system.
func New(kind Kind, deps Deps) (Releaser, error) {
	switch kind {
	case KindRepoMirror:
		return newRepoMirrorReleaser(deps)
	case KindDistGit:
		return newDistGitReleaser(deps)
	case KindCVS:
		return newCVSReleaser(deps)
	case KindBuildService:
		return newBuildServiceReleaser(deps)
	default:
		return nil, fmt.Errorf("unknown releaser kind %q", kind)
	}
}

func requireOptions(t *config.Target, options ...string) error {
	for _, opt := range options {
		if !t.HasOption(opt) {
			return missingOption(t.Name(), opt)
		}
	}
	return nil
}

// branchList returns the target's ordered branch list. The first entry is
// the primary branch the rest derive from.
func branchList(t *config.Target) ([]string, error) {
	branches := t.List("branches")
	if len(branches) == 0 {
		return nil, &ConfigError{Target: t.Name(), Reason: "empty branch list"}
	}
	return branches, nil
}
