package release

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/rpmrelay/rpmrelay/internal/config"
	"github.com/rpmrelay/rpmrelay/internal/shell"
)

// alreadyBuiltMarker is the build system's response when this exact build
// was submitted before. It makes re-running a partially failed release
// safe: completed submissions report success instead of failing the run.
const alreadyBuiltMarker = "already been built"

// DefaultSubmitOpts is the fire-and-forget build client invocation used
// unless the operator overrides it in the rc file.
const DefaultSubmitOpts = "build --nowait"

type SubmitStatus int

const (
	Submitted SubmitStatus = iota
	AlreadyBuilt
	SubmitFailed
)

type SubmitResult struct {
	Status   SubmitStatus
	ExitCode int
	Output   string
}

// Submitter hands builds to the remote build service.
type Submitter struct {
	session *Session
}

func NewSubmitter(s *Session) *Submitter {
	return &Submitter{session: s}
}

// Submit runs the build command. A non-zero exit whose output carries the
// already-built marker counts as success; any other failure is fatal to the
// release. Dry-run prints the command instead and reports success.
func (s *Submitter) Submit(ctx context.Context, cmd shell.Cmd) (SubmitResult, error) {
	if s.session.DryRun {
		s.session.WarnDryRun(cmd.String())
		return SubmitResult{Status: Submitted}, nil
	}

	slog.Info("submitting build", "cmd", cmd.String())
	res, err := s.session.Runner.Run(ctx, cmd)
	if err != nil {
		if strings.Contains(res.Output, alreadyBuiltMarker) {
			slog.Info("build was submitted previously, continuing")
			return SubmitResult{Status: AlreadyBuilt, ExitCode: res.ExitCode, Output: res.Output}, nil
		}
		return SubmitResult{Status: SubmitFailed, ExitCode: res.ExitCode, Output: res.Output},
			&SubmitError{Cmd: cmd.String(), ExitCode: res.ExitCode, Output: res.Output}
	}
	if res.Output != "" {
		fmt.Println(res.Output)
	}
	return SubmitResult{Status: Submitted, ExitCode: res.ExitCode, Output: res.Output}, nil
}

// TagPolicy decides whether a project may auto-build into a build tag,
// from the per-tag whitelist and blacklist sections of the project props.
type TagPolicy struct {
	props   *config.Props
	project string
}

func NewTagPolicy(props *config.Props, project string) *TagPolicy {
	return &TagPolicy{props: props, project: project}
}

// Whitelisted reports whether the tag carries a whitelist naming the
// project.
func (p *TagPolicy) Whitelisted(tag string) bool {
	return slices.Contains(p.props.List(tag, "whitelist"), p.project)
}

// Blacklisted reports whether the tag carries a blacklist naming the
// project.
func (p *TagPolicy) Blacklisted(tag string) bool {
	return slices.Contains(p.props.List(tag, "blacklist"), p.project)
}

// Allowed applies the policy. A whitelist is exclusive when present: the
// project must be on it and any blacklist is ignored. Without one, a
// blacklist naming the project denies. The returned reason explains a
// denial.
func (p *TagPolicy) Allowed(tag string) (bool, string) {
	if p.props.HasOption(tag, "whitelist") {
		if !p.Whitelisted(tag) {
			return false, fmt.Sprintf("%s is not in the whitelist for %s", p.project, tag)
		}
		return true, ""
	}
	if p.Blacklisted(tag) {
		return false, fmt.Sprintf("%s is in the blacklist for %s", p.project, tag)
	}
	return true, ""
}

// autobuildSection is the props section carrying build service settings.
const autobuildSection = "koji"

// AutobuildTags returns the build tags the project is configured to
// auto-build into, in declared order. Nil when the props carry no build
// service section.
func AutobuildTags(props *config.Props) []string {
	if !props.HasSection(autobuildSection) {
		return nil
	}
	return props.List(autobuildSection, "autobuild_tags")
}

// TagListing describes one autobuild tag for display.
type TagListing struct {
	Tag        string
	Annotation string
	Hidden     bool
}

// ListTags reports the autobuild tags with their policy disposition.
// Outside debug mode blacklisted tags are suppressed entirely; with debug
// set the listing annotates them instead.
func ListTags(props *config.Props, project string, debug bool) []TagListing {
	policy := NewTagPolicy(props, project)
	var listings []TagListing
	for _, tag := range AutobuildTags(props) {
		l := TagListing{Tag: tag}
		switch {
		case props.HasOption(tag, "whitelist") && policy.Whitelisted(tag):
			if debug {
				l.Annotation = "whitelisted"
			}
		case policy.Blacklisted(tag):
			if debug {
				l.Annotation = "blacklisted"
			} else {
				l.Hidden = true
			}
		}
		listings = append(listings, l)
	}
	return listings
}
