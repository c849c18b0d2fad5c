package bugref

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(text string) []string {
	var out []string
	for ref := range References(text) {
		out = append(out, ref)
	}
	return out
}

func TestReferencesFromChangelog(t *testing.T) {
	text := `* Tue Aug 19 2025 Releaser <rel@example.com> 1.4.2-1
- 123456: fix the frobnicator
- 234567 - handle empty input
- unrelated note without a number
`
	assert.Equal(t, []string{
		"Resolves: #123456 - fix the frobnicator",
		"Resolves: #234567 - handle empty input",
	}, collect(text))
}

func TestReferencesFromDiffAddedLines(t *testing.T) {
	text := `--- pkg.spec
+++ pkg.spec
@@ -10,3 +10,5 @@
+- 555555: rebase to 1.4.2
 - 111111: already released fix
`
	// the context line was released before; only the added entry counts
	assert.Equal(t, []string{"Resolves: #555555 - rebase to 1.4.2"}, collect(text))
}

func TestReferencesDeduplicates(t *testing.T) {
	text := "- 42424242: first mention\n- 42424242: second mention\n"
	refs := collect(text)
	assert.Len(t, refs, 1)
	assert.Equal(t, "Resolves: #42424242 - first mention", refs[0])
}

func TestReferencesNoMatches(t *testing.T) {
	assert.Empty(t, collect("nothing to see here\n+ not a changelog line\n"))
}

func TestReferencesSequenceRestarts(t *testing.T) {
	seq := References("- 100001: one\n- 100002: two\n")

	var first []string
	for ref := range seq {
		first = append(first, ref)
		break // stop early
	}
	assert.Equal(t, []string{"Resolves: #100001 - one"}, first)

	// ranging again starts from the beginning
	var second []string
	for ref := range seq {
		second = append(second, ref)
	}
	assert.Len(t, second, 2)
}
