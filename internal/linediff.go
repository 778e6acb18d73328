package internal

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// CountChangedLines measures an edit in lines. Within each changed hunk a
// replaced line counts once, so the hunk contributes max(added, removed).
func CountChangedLines(before, after string) int {
	if before == after {
		return 0
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	total, added, removed := 0, 0, 0
	flush := func() {
		total += max(added, removed)
		added, removed = 0, 0
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += lineCount(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += lineCount(d.Text)
		case diffmatchpatch.DiffEqual:
			flush()
		}
	}
	flush()

	return total
}

// LastEditOffset returns the rune offset in after just past the last
// changed region, or the end of after when nothing changed.
func LastEditOffset(before, after string) int {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)

	pos, last := 0, -1
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += n
		case diffmatchpatch.DiffInsert:
			pos += n
			last = pos
		case diffmatchpatch.DiffDelete:
			last = pos
		}
	}

	if last < 0 {
		return utf8.RuneCountInString(after)
	}
	return last
}

// PrefixRunes returns the first n runes of s.
func PrefixRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for idx := range s {
		if i == n {
			return s[:idx]
		}
		i++
	}
	return s
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
