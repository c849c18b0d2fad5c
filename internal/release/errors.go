package release

import (
	"errors"
	"fmt"
)

// ErrUserAborted means the operator declined a confirmation prompt. It is a
// normal termination path, still reported with a non-zero exit so scripts
// notice.
var ErrUserAborted = errors.New("release aborted by operator")

// ConfigError is a release target missing something it needs. It is always
// raised before any external command runs.
type ConfigError struct {
	Target string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("release target %q: %s", e.Target, e.Reason)
}

func missingOption(target, option string) *ConfigError {
	return &ConfigError{Target: target, Reason: fmt.Sprintf("missing required option %q", option)}
}

// SubmitError is a build submission that failed for real, without the
// already-built marker in its output.
type SubmitError struct {
	Cmd      string
	ExitCode int
	Output   string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("build submission failed (exit %d): %s", e.ExitCode, e.Cmd)
}
