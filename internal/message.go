package internal

import (
	"cmp"
	"slices"
	"strings"
)

const (
	emptyCommitMessage = "Update notes"
	messageNoteLimit   = 3
)

// GenerateCommitMessage summarises the pending notes, most-changed first.
func (e *CommitEngine) GenerateCommitMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return commitMessage(e.state.PendingChanges)
}

func commitMessage(pending map[string]PendingChange) string {
	type changed struct {
		name  string
		lines int
	}

	changes := make([]changed, 0, len(pending))
	for id, c := range pending {
		changes = append(changes, changed{name: noteName(id), lines: c.LinesChanged})
	}
	slices.SortFunc(changes, func(a, b changed) int {
		if n := cmp.Compare(b.lines, a.lines); n != 0 {
			return n
		}
		return cmp.Compare(a.name, b.name)
	})

	switch len(changes) {
	case 0:
		return emptyCommitMessage
	case 1:
		return "Update " + changes[0].name
	}

	names := make([]string, 0, messageNoteLimit)
	for _, c := range changes[:min(len(changes), messageNoteLimit)] {
		names = append(names, c.name)
	}
	return "Update " + strings.Join(names, ", ")
}
