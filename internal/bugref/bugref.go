// Package bugref extracts bug tracker references from changelog-style text
// so commit messages can carry them in the tracker's expected form.
package bugref

import (
	"fmt"
	"iter"
	"regexp"
	"strings"
)

// Changelog entries of the form "- 123456: message" or "- 123456 - message"
// reference a tracker bug. Inside a unified diff the added lines carry a
// leading "+".
var (
	entryPattern = regexp.MustCompile(`^- (\d+)\s?[:-]+\s?(.*)$`)
	diffPattern  = regexp.MustCompile(`^\+- (\d+)\s?[:-]+\s?(.*)$`)
)

// References yields one "Resolves: #<id> - <message>" line per distinct bug
// number referenced in text, in first-seen order. The returned sequence
// re-scans text each time it is ranged over.
func References(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]bool)
		for _, line := range strings.Split(text, "\n") {
			id, msg, ok := parseLine(line)
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			if !yield(fmt.Sprintf("Resolves: #%s - %s", id, msg)) {
				return
			}
		}
	}
}

func parseLine(line string) (id, msg string, ok bool) {
	if m := entryPattern.FindStringSubmatch(line); m != nil {
		return m[1], m[2], true
	}
	if m := diffPattern.FindStringSubmatch(line); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}
