package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSession(t *testing.T, autoCommit bool) (*EditorSession, *CommitEngine, *fakeClock, *bytes.Buffer) {
	t.Helper()
	repo := setupVault(t)
	e, clock := newTestEngine(t)

	s := NewEditorSession(repo, e, autoCommit)
	var out bytes.Buffer
	s.SetOutput(&out)
	return s, e, clock, &out
}

func decodeReplies(t *testing.T, out *bytes.Buffer) []map[string]any {
	t.Helper()

	var replies []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var r map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &r), "decode %q", line)
		replies = append(replies, r)
	}
	return replies
}

func TestEditorSessionEditAndState(t *testing.T) {
	s, e, _, _ := setupSession(t, true)
	ctx := context.Background()

	assert.False(t, s.Handle(ctx, Event{Type: EventEdit, Cursor: 10, Scroll: 3}))
	assert.Equal(t, 10, e.State().LastEditCursorPos)
	assert.Equal(t, EditorState{Cursor: 10, Scroll: 3}, s.EditorState())

	s.Handle(ctx, Event{Type: EventState, Cursor: 12, Scroll: 4, Viewport: 600, Content: "hi"})
	assert.Equal(t, EditorState{Cursor: 12, Scroll: 4, Viewport: 600, Content: "hi"}, s.EditorState())
	assert.Equal(t, 10, e.State().LastEditCursorPos, "state events are not edits")
}

func TestEditorSessionSaveAndBlur(t *testing.T) {
	s, e, clock, out := setupSession(t, true)
	ctx := context.Background()

	s.Handle(ctx, Event{Type: EventSave, Path: "a.md", Content: "one\ntwo\n"})
	assert.True(t, e.HasUncommittedChanges())

	// Within the cool-down a blur does nothing.
	s.Handle(ctx, Event{Type: EventBlur})
	assert.True(t, e.HasUncommittedChanges())

	clock.Advance(31 * time.Second)
	s.Handle(ctx, Event{Type: EventSwitch})
	assert.False(t, e.HasUncommittedChanges())

	replies := decodeReplies(t, out)
	require.Len(t, replies, 2)
	assert.Equal(t, ReplySaved, replies[0]["type"])
	assert.Equal(t, float64(2), replies[0]["lines_changed"])
	assert.Equal(t, ReplyCommitted, replies[1]["type"])
	assert.Equal(t, "Update a", replies[1]["message"])
}

func TestEditorSessionFlushRespectsAutoCommitSetting(t *testing.T) {
	s, e, clock, _ := setupSession(t, false)
	ctx := context.Background()

	s.Handle(ctx, Event{Type: EventSave, Path: "a.md", Content: "x\n"})
	clock.Advance(time.Minute)

	assert.True(t, s.Handle(ctx, Event{Type: EventClose}))
	assert.True(t, e.HasUncommittedChanges())
}

func TestEditorSessionErrors(t *testing.T) {
	s, _, _, out := setupSession(t, true)
	ctx := context.Background()

	s.Handle(ctx, Event{Type: "dance"})
	s.Handle(ctx, Event{Type: EventSave, Path: "notes.txt", Content: "x"})

	replies := decodeReplies(t, out)
	require.Len(t, replies, 2)
	for _, r := range replies {
		assert.Equal(t, ReplyError, r["type"])
		assert.NotEmpty(t, r["message"])
	}
}

func TestEditorSessionAutoCommitOnEvaluation(t *testing.T) {
	s, e, clock, out := setupSession(t, true)
	ctx := context.Background()

	var b strings.Builder
	for i := range 60 {
		b.WriteString("line ")
		b.WriteString(string(rune('a' + i%26)))
		b.WriteString("\n")
	}
	s.Handle(ctx, Event{Type: EventSave, Path: "big.md", Content: b.String()})
	s.Handle(ctx, Event{Type: EventState, Cursor: 900, Scroll: 2000, Viewport: 500, Content: "# Done\n"})
	clock.Advance(3 * time.Minute)

	require.True(t, e.evaluate(s.auto.Callback(ctx), s.EditorState))
	assert.False(t, e.HasUncommittedChanges())

	replies := decodeReplies(t, out)
	require.Len(t, replies, 3)
	assert.Equal(t, ReplySaved, replies[0]["type"])
	assert.Equal(t, ReplyCommitted, replies[1]["type"])
	assert.Equal(t, "Update big", replies[1]["message"])
	assert.Equal(t, ReplyConfidence, replies[2]["type"])
	assert.Equal(t, float64(100), replies[2]["score"])
	assert.Equal(t, true, replies[2]["should_commit"])
	assert.Contains(t, replies[2]["signals"], "heading_end")
}

func TestEditorSessionRun(t *testing.T) {
	s, e, _, _ := setupSession(t, true)

	in := strings.NewReader(strings.Join([]string{
		`{"type":"edit","cursor":5}`,
		`not json`,
		``,
		`{"type":"save","path":"a.md","content":"a\n"}`,
		`{"type":"close"}`,
		`{"type":"save","path":"b.md","content":"never read\n"}`,
	}, "\n"))

	var out bytes.Buffer
	require.NoError(t, s.Run(context.Background(), in, &out))

	replies := decodeReplies(t, &out)
	require.Len(t, replies, 2)
	assert.Equal(t, ReplyError, replies[0]["type"])
	assert.Equal(t, ReplySaved, replies[1]["type"])

	pending := e.State().PendingChanges
	assert.Contains(t, pending, "a.md")
	assert.NotContains(t, pending, "b.md")
	assert.False(t, e.EvalLoopRunning())
}

func TestEditorSessionRunEOF(t *testing.T) {
	s, _, _, _ := setupSession(t, true)

	var out bytes.Buffer
	require.NoError(t, s.Run(context.Background(), strings.NewReader(""), &out))
	assert.Empty(t, out.String())
}

func TestEditorSessionRunCancelled(t *testing.T) {
	s, _, _, _ := setupSession(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, w := io.Pipe()
	defer w.Close()

	var out bytes.Buffer
	assert.NoError(t, s.Run(ctx, r, &out))
}
