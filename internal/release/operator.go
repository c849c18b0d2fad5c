package release

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// Operator is the human-in-the-loop channel: present a prompt, collect a
// decision. Tests substitute a scripted implementation.
type Operator interface {
	// Confirm shows prompt and reports whether the answer was affirmative.
	Confirm(prompt string) (bool, error)
}

// affirmatives are the accepted yes answers, matched case-insensitively.
// Anything else declines.
var affirmatives = []string{"y", "yes", "ok", "sure"}

// IsAffirmative reports whether a raw answer counts as yes.
func IsAffirmative(answer string) bool {
	return slices.Contains(affirmatives, strings.ToLower(strings.TrimSpace(answer)))
}

// TerminalOperator prompts on the terminal and reads answers line by line.
type TerminalOperator struct {
	out io.Writer
	in  *bufio.Reader
}

func NewTerminalOperator() *TerminalOperator {
	return &TerminalOperator{out: os.Stdout, in: bufio.NewReader(os.Stdin)}
}

func (t *TerminalOperator) Confirm(prompt string) (bool, error) {
	if _, err := fmt.Fprintf(t.out, "%s ", prompt); err != nil {
		return false, err
	}
	line, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	return IsAffirmative(line), nil
}
