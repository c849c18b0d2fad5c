package release

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/rpmrelay/rpmrelay/internal/bugref"
	"github.com/rpmrelay/rpmrelay/internal/shell"
)

var (
	diffAdd = color.New(color.FgGreen)
	diffDel = color.New(color.FgRed)
)

// CommitGate renders staged changes for operator review and gates the
// commit behind an explicit confirmation.
type CommitGate struct {
	session *Session
}

func NewCommitGate(s *Session) *CommitGate {
	return &CommitGate{session: s}
}

// Decision is the gate's verdict.
type Decision struct {
	// Empty means the diff showed nothing to commit and the release
	// proceeds without one.
	Empty bool
	// Diff is the reviewed diff text, kept for commit message synthesis.
	Diff string
}

// Review runs diffCmd and shows its output for the operator to confirm.
// An empty diff short-circuits to proceed without a prompt. A declined
// prompt returns ErrUserAborted.
func (g *CommitGate) Review(ctx context.Context, diffCmd shell.Cmd) (Decision, error) {
	res, err := g.session.Runner.Run(ctx, diffCmd)
	if err != nil && res.Output == "" {
		// cvs diff exits non-zero when files differ, so a failure only
		// counts when nothing was captured
		return Decision{}, fmt.Errorf("diff: %w", err)
	}

	diff := res.Output
	if strings.TrimSpace(diff) == "" {
		slog.Info("no changes staged, skipping commit")
		return Decision{Empty: true}, nil
	}

	g.showDiff(diffCmd, diff)
	ok, err := g.session.Operator.Confirm("Do you wish to proceed with commit? [y/n]")
	if err != nil {
		return Decision{}, fmt.Errorf("confirm commit: %w", err)
	}
	if !ok {
		return Decision{}, ErrUserAborted
	}
	return Decision{Diff: diff}, nil
}

func (g *CommitGate) showDiff(c shell.Cmd, diff string) {
	header := fmt.Sprintf("Running '%s' in: %s", c, c.Dir)
	bar := strings.Repeat("#", len(header))
	fmt.Printf("\n%s\n%s\n%s\n\n", bar, header, bar)
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			diffAdd.Println(line)
		case strings.HasPrefix(line, "-"):
			diffDel.Println(line)
		default:
			fmt.Println(line)
		}
	}
	fmt.Printf("\n##### Please review the above diff #####\n")
}

// DefaultMessage synthesizes the commit message: the update line plus one
// tracker reference per distinct bug found in the reviewed diff.
func DefaultMessage(project, version, diff string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Update %s to %s\n", project, version)
	for ref := range bugref.References(diff) {
		b.WriteString(ref)
		b.WriteByte('\n')
	}
	return b.String()
}

const defaultEditor = "vi"

// WithMessageFile writes the synthesized commit message to a scratch file,
// offers the operator an editor pass over it, then hands the path to
// commit. The scratch file is removed on every exit path.
func (g *CommitGate) WithMessageFile(ctx context.Context, project, version, diff string, commit func(msgFile string) error) error {
	f, err := os.CreateTemp("", "relay-commit-*")
	if err != nil {
		return fmt.Errorf("commit message file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	msg := DefaultMessage(project, version, diff)
	if _, err := f.WriteString(msg); err != nil {
		f.Close()
		return fmt.Errorf("write commit message: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write commit message: %w", err)
	}

	fmt.Printf("\n##### Commit message: #####\n\n%s\n###########################\n\n", msg)
	edit, err := g.session.Operator.Confirm("Would you like to edit this commit message? [y/n]")
	if err != nil {
		return fmt.Errorf("confirm edit: %w", err)
	}
	if edit {
		if err := g.editFile(ctx, path); err != nil {
			return err
		}
	}
	return commit(path)
}

func (g *CommitGate) editFile(ctx context.Context, path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}
	slog.Debug("editing commit message", "editor", editor, "file", path)
	if err := g.session.Runner.RunInteractive(ctx, shell.Command(editor, path)); err != nil {
		return fmt.Errorf("editor %s: %w", editor, err)
	}
	return nil
}
